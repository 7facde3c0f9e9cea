package products

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mostafa20220/mini-erp/services/common"
)

// Stock adjustment operations accepted by AdjustStock.
const (
	AdjustIncrease = "increase"
	AdjustDecrease = "decrease"
	AdjustSet      = "set"
)

// UseCase contains product business logic. It is the only writer of
// Product.StockQty: every mutation happens under the product row lock
// and appends exactly one StockChangeLog row in the same transaction.
type UseCase struct {
	db   common.TxBeginner
	repo Repository
}

func NewUseCase(db common.TxBeginner, repo Repository) *UseCase {
	return &UseCase{db: db, repo: repo}
}

// DecreaseStock decrements stock inside the caller's transaction. The
// sufficiency check runs after the row lock is acquired, so a stale
// pre-flight read can never oversell.
func (uc *UseCase) DecreaseStock(ctx context.Context, tx common.Tx, productID int64, quantity int, actor, customerID *int64, reason string) (*StockChangeLog, error) {
	if quantity <= 0 {
		return nil, common.NewValidationError("quantity must be positive, got %d", quantity)
	}

	product, err := uc.repo.GetForUpdate(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	if product.StockQty < quantity {
		return nil, &common.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			SKU:         product.SKU,
			Requested:   quantity,
			Available:   product.StockQty,
		}
	}

	return uc.writeStock(ctx, tx, product, product.StockQty-quantity, actor, customerID, reason)
}

// IncreaseStock increments stock inside the caller's transaction.
func (uc *UseCase) IncreaseStock(ctx context.Context, tx common.Tx, productID int64, quantity int, actor, customerID *int64, reason string) (*StockChangeLog, error) {
	if quantity <= 0 {
		return nil, common.NewValidationError("quantity must be positive, got %d", quantity)
	}

	product, err := uc.repo.GetForUpdate(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	return uc.writeStock(ctx, tx, product, product.StockQty+quantity, actor, customerID, reason)
}

// SetStock writes an absolute quantity, for manual corrections. Returns
// a nil log when the quantity is already the requested one.
func (uc *UseCase) SetStock(ctx context.Context, tx common.Tx, productID int64, newQty int, actor, customerID *int64, reason string) (*StockChangeLog, error) {
	if newQty < 0 {
		return nil, common.NewValidationError("stock quantity must not be negative, got %d", newQty)
	}

	product, err := uc.repo.GetForUpdate(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	if product.StockQty == newQty {
		return nil, nil
	}

	return uc.writeStock(ctx, tx, product, newQty, actor, customerID, reason)
}

// writeStock persists the new quantity and its audit row. Callers hold
// the row lock on product.
func (uc *UseCase) writeStock(ctx context.Context, tx common.Tx, product *Product, newQty int, actor, customerID *int64, reason string) (*StockChangeLog, error) {
	if err := uc.repo.UpdateStock(ctx, tx, product.ID, newQty, actor); err != nil {
		return nil, err
	}

	entry := &StockChangeLog{
		ProductID:       &product.ID,
		ProductName:     product.Name,
		ProductSKU:      product.SKU,
		ProductCategory: product.Category,
		CustomerID:      customerID,
		PreviousQty:     product.StockQty,
		NewQty:          newQty,
		ChangeReason:    reason,
		CreatedBy:       actor,
	}
	if err := uc.repo.InsertLog(ctx, tx, entry); err != nil {
		return nil, err
	}

	product.StockQty = newQty
	return entry, nil
}

// StockAdjustment is a manual correction request.
type StockAdjustment struct {
	Operation  string
	Quantity   int
	Reason     string
	CustomerID *int64
}

// AdjustStock runs one manual stock correction as its own unit of work.
func (uc *UseCase) AdjustStock(ctx context.Context, productID int64, adj StockAdjustment, actor *int64) (*StockChangeLog, error) {
	reason := adj.Reason
	if reason == "" {
		reason = "Manual stock adjustment"
	}

	tx, err := uc.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var entry *StockChangeLog
	switch adj.Operation {
	case AdjustIncrease:
		entry, err = uc.IncreaseStock(ctx, tx, productID, adj.Quantity, actor, adj.CustomerID, reason)
	case AdjustDecrease:
		entry, err = uc.DecreaseStock(ctx, tx, productID, adj.Quantity, actor, adj.CustomerID, reason)
	case AdjustSet:
		entry, err = uc.SetStock(ctx, tx, productID, adj.Quantity, actor, adj.CustomerID, reason)
	default:
		return nil, common.NewValidationError("unknown stock operation %q", adj.Operation)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}
	return entry, nil
}

type CreateProductInput struct {
	SKU          string
	Name         string
	Category     string
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	StockQty     int
}

// CreateProduct creates the product and logs its initial stock in one
// unit of work.
func (uc *UseCase) CreateProduct(ctx context.Context, input CreateProductInput, actor *int64) (*Product, error) {
	product, err := NewProduct(input.SKU, input.Name, input.Category, input.CostPrice, input.SellingPrice, input.StockQty)
	if err != nil {
		return nil, err
	}
	product.CreatedBy = actor
	product.ModifiedBy = actor

	tx, err := uc.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := uc.repo.Create(ctx, tx, product); err != nil {
		return nil, err
	}

	entry := &StockChangeLog{
		ProductID:       &product.ID,
		ProductName:     product.Name,
		ProductSKU:      product.SKU,
		ProductCategory: product.Category,
		PreviousQty:     0,
		NewQty:          product.StockQty,
		ChangeReason:    "Initial stock on product creation",
		CreatedBy:       actor,
	}
	if err := uc.repo.InsertLog(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}
	return product, nil
}

// UpdateProduct applies a partial update. A stock change inside the
// patch is routed through SetStock so it is locked and logged like any
// other mutation.
func (uc *UseCase) UpdateProduct(ctx context.Context, id int64, patch Patch, actor *int64) (*Product, error) {
	tx, err := uc.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	product, err := uc.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, common.NewValidationError("name must not be empty")
		}
		product.Name = *patch.Name
	}
	if patch.Category != nil {
		if *patch.Category == "" {
			return nil, common.NewValidationError("category must not be empty")
		}
		product.Category = *patch.Category
	}
	if patch.CostPrice != nil {
		if patch.CostPrice.IsNegative() {
			return nil, common.NewValidationError("cost price must not be negative")
		}
		product.CostPrice = *patch.CostPrice
	}
	if patch.SellingPrice != nil {
		product.SellingPrice = *patch.SellingPrice
	}
	if product.SellingPrice.LessThan(product.CostPrice) {
		return nil, common.NewValidationError("selling price must be greater than or equal to cost price")
	}

	product.ModifiedBy = actor
	if err := uc.repo.Update(ctx, tx, product); err != nil {
		return nil, err
	}

	if patch.StockQty != nil {
		if _, err := uc.SetStock(ctx, tx, product.ID, *patch.StockQty, actor, nil, "Stock updated manually"); err != nil {
			return nil, err
		}
		product.StockQty = *patch.StockQty
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return product, nil
}

// DeleteProduct removes a product, logging the final write-off. The log
// row survives via its snapshot fields once the FK is nulled.
func (uc *UseCase) DeleteProduct(ctx context.Context, id int64, actor *int64) error {
	tx, err := uc.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	product, err := uc.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}

	if product.StockQty > 0 {
		entry := &StockChangeLog{
			ProductID:       &product.ID,
			ProductName:     product.Name,
			ProductSKU:      product.SKU,
			ProductCategory: product.Category,
			PreviousQty:     product.StockQty,
			NewQty:          0,
			ChangeReason:    "Product deleted",
			CreatedBy:       actor,
		}
		if err := uc.repo.InsertLog(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := uc.repo.Delete(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit product deletion: %w", err)
	}
	return nil
}

func (uc *UseCase) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return uc.repo.GetByID(ctx, id)
}

// GetProducts resolves a batch of product ids; missing ids are simply
// absent from the map.
func (uc *UseCase) GetProducts(ctx context.Context, ids []int64) (map[int64]*Product, error) {
	return uc.repo.GetByIDs(ctx, ids)
}

func (uc *UseCase) ListProducts(ctx context.Context, filter Filter) ([]Product, error) {
	return uc.repo.List(ctx, filter)
}

func (uc *UseCase) ListStockLogs(ctx context.Context, filter LogFilter) ([]StockChangeLog, error) {
	return uc.repo.ListLogs(ctx, filter)
}
