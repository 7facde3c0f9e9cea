package products

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mostafa20220/mini-erp/services/common"
)

// LowStockThreshold is the stock_qty at or below which a product (with
// remaining stock) is reported as LOW_STOCK.
const LowStockThreshold = 10

const (
	StockStatusInStock    = "IN_STOCK"
	StockStatusLowStock   = "LOW_STOCK"
	StockStatusOutOfStock = "OUT_OF_STOCK"
)

type Product struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	StockQty     int             `json:"stock_qty"`
	common.Audit
}

// NewProduct validates and normalizes raw input into a Product.
// The SKU is stored uppercase.
func NewProduct(sku, name, category string, costPrice, sellingPrice decimal.Decimal, stockQty int) (*Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)

	if sku == "" {
		return nil, common.NewValidationError("sku is required")
	}
	if name == "" {
		return nil, common.NewValidationError("name is required")
	}
	if category == "" {
		return nil, common.NewValidationError("category is required")
	}
	if costPrice.IsNegative() {
		return nil, common.NewValidationError("cost price must not be negative")
	}
	if sellingPrice.LessThan(costPrice) {
		return nil, common.NewValidationError("selling price must be greater than or equal to cost price")
	}
	if stockQty < 0 {
		return nil, common.NewValidationError("stock quantity must not be negative")
	}

	return &Product{
		SKU:          sku,
		Name:         name,
		Category:     category,
		CostPrice:    costPrice,
		SellingPrice: sellingPrice,
		StockQty:     stockQty,
	}, nil
}

func (p *Product) StockStatus() string {
	switch {
	case p.StockQty == 0:
		return StockStatusOutOfStock
	case p.StockQty <= LowStockThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

func (p *Product) ProfitMargin() decimal.Decimal {
	return p.SellingPrice.Sub(p.CostPrice)
}

// Patch enumerates the optional fields of a partial product update.
// Stock changes go through the ledger, never through a plain column write.
type Patch struct {
	Name         *string          `json:"name"`
	Category     *string          `json:"category"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	StockQty     *int             `json:"stock_qty"`
}

// StockChangeLog is one immutable row of the stock audit trail. Product
// fields are snapshotted so the record survives product deletion.
type StockChangeLog struct {
	ID              int64     `json:"id"`
	ProductID       *int64    `json:"product_id,omitempty"`
	ProductName     string    `json:"product_name"`
	ProductSKU      string    `json:"product_sku"`
	ProductCategory string    `json:"product_category"`
	CustomerID      *int64    `json:"customer_id,omitempty"`
	PreviousQty     int       `json:"previous_qty"`
	NewQty          int       `json:"new_qty"`
	ChangeReason    string    `json:"change_reason"`
	CreatedBy       *int64    `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
