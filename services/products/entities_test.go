package products

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mostafa20220/mini-erp/services/common"
)

func TestNewProduct_Normalizes(t *testing.T) {
	p, err := NewProduct("  abc-123 ", " Widget ", " tools ", decimal.NewFromFloat(5), decimal.NewFromFloat(12.50), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SKU != "ABC-123" {
		t.Errorf("expected uppercase trimmed sku, got %q", p.SKU)
	}
	if p.Name != "Widget" || p.Category != "tools" {
		t.Errorf("expected trimmed name/category, got %q / %q", p.Name, p.Category)
	}
}

func TestNewProduct_Validation(t *testing.T) {
	cost := decimal.NewFromFloat(5)
	sell := decimal.NewFromFloat(12.50)

	cases := []struct {
		name string
		run  func() (*Product, error)
	}{
		{"empty sku", func() (*Product, error) { return NewProduct("  ", "Widget", "tools", cost, sell, 1) }},
		{"empty name", func() (*Product, error) { return NewProduct("SKU-1", "", "tools", cost, sell, 1) }},
		{"empty category", func() (*Product, error) { return NewProduct("SKU-1", "Widget", "", cost, sell, 1) }},
		{"negative cost", func() (*Product, error) { return NewProduct("SKU-1", "Widget", "tools", decimal.NewFromFloat(-1), sell, 1) }},
		{"selling below cost", func() (*Product, error) { return NewProduct("SKU-1", "Widget", "tools", sell, cost, 1) }},
		{"negative stock", func() (*Product, error) { return NewProduct("SKU-1", "Widget", "tools", cost, sell, -1) }},
	}

	for _, tc := range cases {
		_, err := tc.run()
		var validation *common.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestNewProduct_SellingEqualToCostAllowed(t *testing.T) {
	price := decimal.NewFromFloat(5)
	if _, err := NewProduct("SKU-1", "Widget", "tools", price, price, 0); err != nil {
		t.Errorf("selling price equal to cost must be allowed, got %v", err)
	}
}

func TestStockStatus(t *testing.T) {
	cases := []struct {
		qty  int
		want string
	}{
		{0, StockStatusOutOfStock},
		{1, StockStatusLowStock},
		{10, StockStatusLowStock},
		{11, StockStatusInStock},
		{500, StockStatusInStock},
	}

	for _, tc := range cases {
		p := &Product{StockQty: tc.qty}
		if got := p.StockStatus(); got != tc.want {
			t.Errorf("StockStatus() with qty %d = %s, want %s", tc.qty, got, tc.want)
		}
	}
}

func TestProfitMargin(t *testing.T) {
	p := &Product{
		CostPrice:    decimal.NewFromFloat(5),
		SellingPrice: decimal.NewFromFloat(12.50),
	}
	if want := "7.5"; p.ProfitMargin().String() != want {
		t.Errorf("expected margin %s, got %s", want, p.ProfitMargin())
	}
}
