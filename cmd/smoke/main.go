// Command smoke runs the order/stock consistency scenario against a
// running mini-erp instance and fails loudly on any deviation.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mostafa20220/mini-erp/client"
)

func main() {
	baseURL := os.Getenv("MINI_ERP_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	api := client.New(baseURL).WithActor(1)
	run := strings.Split(uuid.New().String(), "-")[0]

	customer, err := api.CreateCustomer(ctx, client.CreateCustomerRequest{
		Email:     fmt.Sprintf("smoke-%s@example.com", run),
		FirstName: "Smoke",
		LastName:  "Test",
	})
	if err != nil {
		log.Fatalf("create customer: %v", err)
	}

	product, err := api.CreateProduct(ctx, client.CreateProductRequest{
		SKU:          "SMOKE-" + strings.ToUpper(run),
		Name:         "Smoke Widget",
		Category:     "smoke",
		CostPrice:    decimal.NewFromFloat(5.00),
		SellingPrice: decimal.NewFromFloat(12.50),
		StockQty:     10,
	})
	if err != nil {
		log.Fatalf("create product: %v", err)
	}

	order, err := api.CreateOrder(ctx, client.CreateOrderRequest{
		CustomerID: customer.ID,
		Items:      []client.OrderLine{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		log.Fatalf("create order: %v", err)
	}
	assertEqual("order status after creation", "PENDING", order.Status)
	assertEqual("order total", "37.5", order.TotalAmount.String())
	assertStock(ctx, api, product.ID, 10, "after creation (pending orders reserve nothing)")

	if _, err := api.ChangeOrderStatus(ctx, order.ID, "CONFIRMED"); err != nil {
		log.Fatalf("confirm order: %v", err)
	}
	assertStock(ctx, api, product.ID, 7, "after confirmation")

	if _, err := api.ChangeOrderStatus(ctx, order.ID, "CANCELLED"); err != nil {
		log.Fatalf("cancel order: %v", err)
	}
	assertStock(ctx, api, product.ID, 10, "after cancellation")

	logs, err := api.StockLogs(ctx, product.ID)
	if err != nil {
		log.Fatalf("stock logs: %v", err)
	}
	// initial stock + decrease + increase
	if len(logs) != 3 {
		log.Fatalf("expected 3 stock log rows, got %d", len(logs))
	}

	// Overdraw: a pending order beyond available stock must be rejected
	// at confirmation, leaving everything untouched.
	big, err := api.CreateOrder(ctx, client.CreateOrderRequest{
		CustomerID: customer.ID,
		Items:      []client.OrderLine{{ProductID: product.ID, Quantity: 10}},
	})
	if err != nil {
		log.Fatalf("create second order: %v", err)
	}
	if _, err := api.ChangeOrderStatus(ctx, big.ID, "CONFIRMED"); err != nil {
		log.Fatalf("confirm second order: %v", err)
	}
	overdraw, err := api.CreateOrder(ctx, client.CreateOrderRequest{
		CustomerID: customer.ID,
		Items:      []client.OrderLine{{ProductID: product.ID, Quantity: 1}},
	})
	if err == nil {
		// stock is now 0, the advisory check should already reject
		if _, err := api.ChangeOrderStatus(ctx, overdraw.ID, "CONFIRMED"); err == nil {
			log.Fatal("expected insufficient stock confirming overdraw order")
		}
		assertStatus("overdraw confirmation", err, 409)
	}
	assertStock(ctx, api, product.ID, 0, "after overdraw attempt")

	// A confirmed order cannot be deleted.
	err = api.DeleteOrder(ctx, big.ID)
	if err == nil {
		log.Fatal("expected error deleting confirmed order")
	}
	assertStatus("delete confirmed order", err, 409)

	log.Println("✅ smoke scenario passed")
}

func assertStock(ctx context.Context, api *client.Client, productID int64, want int, when string) {
	product, err := api.GetProduct(ctx, productID)
	if err != nil {
		log.Fatalf("get product: %v", err)
	}
	if product.StockQty != want {
		log.Fatalf("stock %s: want %d, got %d", when, want, product.StockQty)
	}
}

func assertEqual(what, want, got string) {
	if want != got {
		log.Fatalf("%s: want %s, got %s", what, want, got)
	}
}

func assertStatus(what string, err error, want int) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != want {
		log.Fatalf("%s: expected HTTP %d, got %v", what, want, err)
	}
}
