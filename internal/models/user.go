package models

import (
	"strings"
	"time"
)

const DefaultUserName = "Customer"

type User struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	BalanceCents int64     `json:"balanceCents"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NormalizeEmail is the user key: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
