package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/premiumshop-backend/internal/models"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// PriceToCents converts a display price like "19,99 €" to integer cents.
// Malformed or out of range input yields 0, which checkout rejects as invalid_price.
func PriceToCents(v string) int64 {
	s := strings.Replace(v, ",", ".", 1)
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if s == "" || s == "." {
		return 0
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	if strings.Count(s, ".") > 1 {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) {
		return 0
	}
	return cents.IntPart()
}

// UnitPriceCents prefers a positive sale price over the list price.
func UnitPriceCents(p models.Product) int64 {
	if sale := PriceToCents(string(p.SalePrice)); sale > 0 {
		return sale
	}
	return PriceToCents(string(p.Price))
}

type Catalog struct {
	byID    map[models.ProductID]models.Product
	skipped int
}

// New indexes products by id. Products without an id cannot be ordered and are left out.
func New(products []models.Product) *Catalog {
	c := &Catalog{byID: make(map[models.ProductID]models.Product, len(products))}
	for _, p := range products {
		if p.ID == 0 {
			c.skipped++
			continue
		}
		c.byID[p.ID] = p
	}
	return c
}

// Skipped counts the products New dropped for a missing id.
func (c *Catalog) Skipped() int { return c.skipped }

func (c *Catalog) Find(id models.ProductID) (models.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) Len() int { return len(c.byID) }

// Products returns the catalog ordered by id.
func (c *Catalog) Products() []models.Product {
	out := make([]models.Product, 0, len(c.byID))
	for _, p := range c.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// FileLoader reads the product file on every Load so checkout always prices
// against the current file contents.
type FileLoader struct {
	Path string
	Log  *slog.Logger
}

func NewFileLoader(path string) *FileLoader { return &FileLoader{Path: path, Log: slog.Default()} }

func (l *FileLoader) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(l.Path)
	if errors.Is(err, os.ErrNotExist) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	products, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", l.Path, err)
	}
	c := New(products)
	if n := c.Skipped(); n > 0 && l.Log != nil {
		l.Log.Warn("catalog products without id skipped", "path", l.Path, "count", n)
	}
	return c, nil
}

// Parse accepts either a bare product array or {"products": [...]}.
func Parse(b []byte) ([]models.Product, error) {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []models.Product
		if err := json.Unmarshal(b, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var wrapped struct {
		Products []models.Product `json:"products"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Products, nil
}

// Static serves a fixed product list; used by tests and the CLI.
type Static []models.Product

func (s Static) Load(context.Context) (*Catalog, error) { return New(s), nil }
