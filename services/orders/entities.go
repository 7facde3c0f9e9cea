package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mostafa20220/mini-erp/services/common"
)

const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

type Order struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  int64           `json:"customer_id"`
	OrderDate   time.Time       `json:"order_date"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItem     `json:"items,omitempty"`
	common.Audit
}

// OrderItem snapshots the product at order time so the line survives
// later product edits or deletion.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   *int64          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// NewOrderItem computes the line total from quantity and unit price.
func NewOrderItem(productID int64, productName, productSKU string, quantity int, price decimal.Decimal) OrderItem {
	return OrderItem{
		ProductID:   &productID,
		ProductName: productName,
		ProductSKU:  productSKU,
		Quantity:    quantity,
		Price:       price,
		TotalPrice:  price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is a legal status edge.
// CONFIRMED and CANCELLED are terminal except CONFIRMED -> CANCELLED.
// Same-status is not an edge; callers treat it as a no-op.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCancelled
	default:
		return false
	}
}

func (o *Order) IsPending() bool {
	return o.Status == StatusPending
}

func (o *Order) CanBeDeleted() bool {
	return o.Status == StatusPending
}

// CalculateTotal sums the line totals.
func (o *Order) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice)
	}
	return total
}
