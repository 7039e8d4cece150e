package services

import (
	"strings"

	"github.com/google/uuid"
)

func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func NewTopupID() string { return newID("top_") }
func NewOrderID() string { return newID("ord_") }
