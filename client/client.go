// Package client is a small REST client for the mini-erp API, used by
// tooling and smoke tests.
package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type Client struct {
	http *resty.Client
}

func New(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	return &Client{http: c}
}

// WithActor sets the acting user forwarded on every request.
func (c *Client) WithActor(id int64) *Client {
	c.http.SetHeader("X-Actor-ID", strconv.FormatInt(id, 10))
	return c
}

type Customer struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type Product struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	StockQty     int             `json:"stock_qty"`
	StockStatus  string          `json:"stock_status"`
}

type OrderItem struct {
	ProductID  *int64          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type Order struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  int64           `json:"customer_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItem     `json:"items"`
}

type StockChangeLog struct {
	ID           int64  `json:"id"`
	ProductID    *int64 `json:"product_id"`
	PreviousQty  int    `json:"previous_qty"`
	NewQty       int    `json:"new_qty"`
	ChangeReason string `json:"change_reason"`
}

type CreateCustomerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type CreateProductRequest struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	StockQty     int             `json:"stock_qty"`
}

type OrderLine struct {
	ProductID int64            `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

type CreateOrderRequest struct {
	CustomerID int64       `json:"customer_id"`
	Items      []OrderLine `json:"items"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Body)
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

func (c *Client) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	var out Customer
	resp, err := c.http.R().SetContext(ctx).SetBody(req).SetResult(&out).Post("/api/customers")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	var out Product
	resp, err := c.http.R().SetContext(ctx).SetBody(req).SetResult(&out).Post("/api/products")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var out Product
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		Get(fmt.Sprintf("/api/products/%d", id))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StockLogs(ctx context.Context, productID int64) ([]StockChangeLog, error) {
	var out struct {
		StockLogs []StockChangeLog `json:"stock_logs"`
	}
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		Get(fmt.Sprintf("/api/products/%d/stock-logs", productID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out.StockLogs, nil
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	var out Order
	resp, err := c.http.R().SetContext(ctx).SetBody(req).SetResult(&out).Post("/api/orders")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var out Order
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		Get(fmt.Sprintf("/api/orders/%d", id))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangeOrderStatus(ctx context.Context, id int64, status string) (*Order, error) {
	var out Order
	resp, err := c.http.R().SetContext(ctx).
		SetBody(map[string]string{"status": status}).
		SetResult(&out).
		Patch(fmt.Sprintf("/api/orders/%d/status", id))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	resp, err := c.http.R().SetContext(ctx).Delete(fmt.Sprintf("/api/orders/%d", id))
	return check(resp, err)
}
