package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// ProductID accepts both JSON numbers and numeric strings. Anything else decodes to 0,
// which never matches a catalog entry.
type ProductID int64

func (p *ProductID) UnmarshalJSON(b []byte) error {
	*p = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	} else {
		s = string(b)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	*p = ProductID(f)
	return nil
}

type Product struct {
	ID          ProductID `json:"id"`
	Name        string    `json:"name"`
	Price       Price     `json:"price"`
	SalePrice   Price     `json:"salePrice,omitempty"`
	Image       string    `json:"image,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Price keeps the catalog's display value as text. JSON numbers are accepted too.
type Price string

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*p = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Price(s)
	default:
		*p = Price(b)
	}
	return nil
}

// CartLine is transient; qty is clamped by checkout, not here.
type CartLine struct {
	ProductID ProductID `json:"id"`
	Qty       float64   `json:"-"`
}

func (l *CartLine) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID  ProductID       `json:"id"`
		Qty json.RawMessage `json:"qty"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		*l = CartLine{}
		return nil
	}
	l.ProductID = raw.ID
	l.Qty = parseLooseNumber(raw.Qty)
	return nil
}

// parseLooseNumber returns 0 for missing, null, or non-numeric input.
func parseLooseNumber(b json.RawMessage) float64 {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0
	}
	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return 0
		}
	} else {
		s = string(b)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
