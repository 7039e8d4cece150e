package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/baharkarakas/premiumshop-backend/internal/models"
)

func TestPriceToCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10", 1000},
		{"19.99", 1999},
		{"19,99 €", 1999},
		{"€ 4,5", 450},
		{"0.005", 1},
		{"12.", 1200},
		{".5", 50},
		{"", 0},
		{"free", 0},
		{"1.2.3", 0},
		{"1,234.56", 0},
		{"46116860184273879.04", 4611686018427387904},
		{"92233720368547758.07", 9223372036854775807},
		{"92233720368547758.08", 0},
		{"100000000000000000000", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := PriceToCents(tt.in); got != tt.want {
				t.Errorf("PriceToCents(%q): got %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnitPriceCents(t *testing.T) {
	tests := []struct {
		name string
		p    models.Product
		want int64
	}{
		{"list only", models.Product{Price: "10.00"}, 1000},
		{"sale wins", models.Product{Price: "10.00", SalePrice: "7,50"}, 750},
		{"zero sale ignored", models.Product{Price: "10.00", SalePrice: "0"}, 1000},
		{"garbage sale ignored", models.Product{Price: "10.00", SalePrice: "soon"}, 1000},
		{"both invalid", models.Product{Price: "n/a"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnitPriceCents(tt.p); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFileLoaderReloadsEachCall(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	l := NewFileLoader(path)

	c, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("missing file should give empty catalog, got %d", c.Len())
	}

	if err := os.WriteFile(path, []byte(`[{"id":1,"name":"Hoodie","price":"10.00"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := c.Find(1); !ok || p.Name != "Hoodie" {
		t.Fatalf("expected product 1, got %+v %v", p, ok)
	}

	if err := os.WriteFile(path, []byte(`{"products":[{"id":"1","price":12.5},{"id":2,"price":"3"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = l.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Fatalf("got %d products, want 2", c.Len())
	}
	p, _ := c.Find(1)
	if got := UnitPriceCents(p); got != 1250 {
		t.Errorf("reloaded price: got %d, want 1250", got)
	}
	if ps := c.Products(); ps[0].ID != 1 || ps[1].ID != 2 {
		t.Errorf("Products not ordered by id: %+v", ps)
	}
}

func TestNewSkipsProductsWithoutID(t *testing.T) {
	tests := []struct {
		name        string
		products    []models.Product
		wantLen     int
		wantSkipped int
	}{
		{"none", nil, 0, 0},
		{"all valid", []models.Product{{ID: 1}, {ID: 2}}, 2, 0},
		{"two without id", []models.Product{{ID: 0, Name: "A"}, {ID: 3, Name: "B"}, {Name: "C"}}, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.products)
			if c.Len() != tt.wantLen || c.Skipped() != tt.wantSkipped {
				t.Fatalf("Len=%d Skipped=%d, want %d and %d", c.Len(), c.Skipped(), tt.wantLen, tt.wantSkipped)
			}
			if _, ok := c.Find(0); ok {
				t.Fatal("product with id 0 is orderable")
			}
		})
	}
}

func TestFileLoaderInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileLoader(path).Load(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}
