package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mostafa20220/mini-erp/services/common"
	"github.com/mostafa20220/mini-erp/services/products"
	"github.com/mostafa20220/mini-erp/services/users"
)

// StockLedger is the slice of the products service the status machine
// drives. Both methods run inside the caller's transaction and acquire
// the product row lock themselves.
type StockLedger interface {
	DecreaseStock(ctx context.Context, tx common.Tx, productID int64, quantity int, actor, customerID *int64, reason string) (*products.StockChangeLog, error)
	IncreaseStock(ctx context.Context, tx common.Tx, productID int64, quantity int, actor, customerID *int64, reason string) (*products.StockChangeLog, error)
}

// ProductCatalog provides the read side for order validation.
type ProductCatalog interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]*products.Product, error)
}

// CustomerDirectory resolves the ordering customer.
type CustomerDirectory interface {
	GetUser(ctx context.Context, id int64) (*users.User, error)
}

// UseCase contains the order business logic.
type UseCase struct {
	db        common.TxBeginner
	repo      Repository
	numbers   *NumberGenerator
	catalog   ProductCatalog
	customers CustomerDirectory
	ledger    StockLedger
}

func NewUseCase(
	db common.TxBeginner,
	repo Repository,
	numbers *NumberGenerator,
	catalog ProductCatalog,
	customers CustomerDirectory,
	ledger StockLedger,
) *UseCase {
	return &UseCase{
		db:        db,
		repo:      repo,
		numbers:   numbers,
		catalog:   catalog,
		customers: customers,
		ledger:    ledger,
	}
}

// LineItem is one requested order line. Price overrides the product's
// current selling price when set.
type LineItem struct {
	ProductID int64            `json:"product_id" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,gte=1"`
	Price     *decimal.Decimal `json:"price"`
}

// CreateOrder validates the request and materializes a PENDING order in
// one unit of work. The per-line stock check here is advisory only: the
// authoritative check happens under the row lock at confirmation, since
// pending orders reserve nothing.
func (uc *UseCase) CreateOrder(ctx context.Context, customerID int64, items []LineItem, actor *int64) (*Order, error) {
	if len(items) == 0 {
		return nil, common.NewValidationError("order must contain at least one item")
	}

	customer, err := uc.customers.GetUser(ctx, customerID)
	if err != nil {
		var notFound *common.NotFoundError
		if errors.As(err, &notFound) {
			return nil, common.NewValidationError("customer not found or not a valid customer")
		}
		return nil, err
	}
	if !customer.IsCustomer() {
		return nil, common.NewValidationError("customer not found or not a valid customer")
	}

	ids := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, common.NewValidationError("quantity must be at least 1 for product %d", item.ProductID)
		}
		if item.Price != nil && item.Price.LessThan(decimal.NewFromFloat(0.01)) {
			return nil, common.NewValidationError("price must be at least 0.01 for product %d", item.ProductID)
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, common.NewValidationError("duplicate product id %d in order items", item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	productsByID, err := uc.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := productsByID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, common.NewNotFoundError("products with ids %v not found", missing)
	}

	order := &Order{
		CustomerID: customerID,
		Status:     StatusPending,
		Items:      make([]OrderItem, 0, len(items)),
	}
	order.CreatedBy = actor
	order.ModifiedBy = actor

	for _, item := range items {
		product := productsByID[item.ProductID]

		if product.StockQty < item.Quantity {
			return nil, &common.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				SKU:         product.SKU,
				Requested:   item.Quantity,
				Available:   product.StockQty,
			}
		}

		price := product.SellingPrice
		if item.Price != nil {
			price = *item.Price
		}
		order.Items = append(order.Items, NewOrderItem(product.ID, product.Name, product.SKU, item.Quantity, price))
	}
	order.TotalAmount = order.CalculateTotal()

	// The unique constraint on order_number backstops the generator:
	// losing the race for today's sequence slot is retried once.
	err = uc.persistOrder(ctx, order)
	if IsNumberConflict(err) {
		log.Printf("order number conflict on %s, retrying", order.OrderNumber)
		err = uc.persistOrder(ctx, order)
		if IsNumberConflict(err) {
			return nil, &common.ConflictError{Msg: "could not allocate a unique order number, please retry"}
		}
	}
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (uc *UseCase) persistOrder(ctx context.Context, order *Order) error {
	tx, err := uc.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	number, err := uc.numbers.Next(ctx, tx)
	if err != nil {
		return err
	}
	order.OrderNumber = number

	if err := uc.repo.Create(ctx, tx, order); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order creation: %w", err)
	}
	return nil
}

// ChangeStatus transitions an order and applies the stock side effects
// in the same unit of work. Requesting the current status is a no-op.
func (uc *UseCase) ChangeStatus(ctx context.Context, orderID int64, newStatus string, actor *int64) (*Order, error) {
	if !ValidStatus(newStatus) {
		return nil, common.NewValidationError("unknown order status %q", newStatus)
	}

	tx, err := uc.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := uc.repo.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == newStatus {
		return order, nil
	}
	if !CanTransition(order.Status, newStatus) {
		return nil, &common.TransitionError{From: order.Status, To: newStatus}
	}

	switch newStatus {
	case StatusConfirmed:
		reason := fmt.Sprintf("Order %s confirmed", order.OrderNumber)
		if err := uc.applyStockEffect(ctx, tx, order, uc.ledger.DecreaseStock, actor, reason); err != nil {
			return nil, err
		}
	case StatusCancelled:
		if order.Status == StatusConfirmed {
			reason := fmt.Sprintf("Order %s cancelled", order.OrderNumber)
			if err := uc.applyStockEffect(ctx, tx, order, uc.ledger.IncreaseStock, actor, reason); err != nil {
				return nil, err
			}
		}
		// from PENDING nothing was reserved, so nothing to return
	}

	if err := uc.repo.UpdateStatus(ctx, tx, order.ID, newStatus, actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status change: %w", err)
	}

	log.Printf("order %s: %s -> %s", order.OrderNumber, order.Status, newStatus)
	order.Status = newStatus
	order.ModifiedBy = actor
	return order, nil
}

type stockEffect func(ctx context.Context, tx common.Tx, productID int64, quantity int, actor, customerID *int64, reason string) (*products.StockChangeLog, error)

// applyStockEffect runs one ledger operation per item. Items are walked
// in product-id order so concurrent transitions lock rows in the same
// sequence.
func (uc *UseCase) applyStockEffect(ctx context.Context, tx common.Tx, order *Order, effect stockEffect, actor *int64, reason string) error {
	items := make([]OrderItem, len(order.Items))
	copy(items, order.Items)
	sort.Slice(items, func(i, j int) bool {
		switch {
		case items[i].ProductID == nil:
			return true
		case items[j].ProductID == nil:
			return false
		default:
			return *items[i].ProductID < *items[j].ProductID
		}
	})

	for _, item := range items {
		if item.ProductID == nil {
			return common.NewNotFoundError("product %s (sku %s) no longer exists", item.ProductName, item.ProductSKU)
		}
		if _, err := effect(ctx, tx, *item.ProductID, item.Quantity, actor, &order.CustomerID, reason); err != nil {
			return err
		}
	}
	return nil
}

// DeleteOrder removes an order and its items. Only pending orders may
// be deleted.
func (uc *UseCase) DeleteOrder(ctx context.Context, orderID int64, actor *int64) error {
	tx, err := uc.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := uc.repo.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return err
	}

	if !order.CanBeDeleted() {
		return &common.InvalidStateError{
			Msg: fmt.Sprintf("only pending orders can be deleted, order %s is %s", order.OrderNumber, order.Status),
		}
	}

	if err := uc.repo.Delete(ctx, tx, order.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order deletion: %w", err)
	}
	return nil
}

func (uc *UseCase) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *UseCase) ListOrders(ctx context.Context, filter Filter) ([]Order, error) {
	return uc.repo.List(ctx, filter)
}

func (uc *UseCase) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	return uc.repo.Dashboard(ctx)
}
