package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mostafa20220/mini-erp/services/common"
)

// Filter narrows product listings. Zero values mean "no constraint".
type Filter struct {
	Category    string
	StockStatus string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
}

// LogFilter narrows stock change log listings.
type LogFilter struct {
	ProductID  *int64
	CustomerID *int64
}

// Repository defines the storage operations for products and their
// stock change logs.
type Repository interface {
	Create(ctx context.Context, tx common.Tx, product *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*Product, error)
	List(ctx context.Context, filter Filter) ([]Product, error)
	Update(ctx context.Context, tx common.Tx, product *Product) error
	Delete(ctx context.Context, tx common.Tx, id int64) error

	// GetForUpdate acquires the row lock serializing stock mutations.
	GetForUpdate(ctx context.Context, tx common.Tx, id int64) (*Product, error)
	UpdateStock(ctx context.Context, tx common.Tx, id int64, newQty int, modifiedBy *int64) error
	InsertLog(ctx context.Context, tx common.Tx, entry *StockChangeLog) error
	ListLogs(ctx context.Context, filter LogFilter) ([]StockChangeLog, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{db: db}
}

const productColumns = `id, sku, name, category, cost_price, selling_price, stock_qty,
	created_at, modified_at, created_by, modified_by`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &p.CostPrice, &p.SellingPrice, &p.StockQty,
		&p.CreatedAt, &p.ModifiedAt, &p.CreatedBy, &p.ModifiedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, tx common.Tx, product *Product) error {
	err := common.Unwrap(tx).QueryRow(ctx, `
		INSERT INTO products (sku, name, category, cost_price, selling_price, stock_qty, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, modified_at
	`, product.SKU, product.Name, product.Category, product.CostPrice, product.SellingPrice,
		product.StockQty, product.CreatedBy, product.ModifiedBy,
	).Scan(&product.ID, &product.CreatedAt, &product.ModifiedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	product, err := scanProduct(r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewNotFoundError("product %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return product, nil
}

func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]*Product, len(ids))
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result[product.ID] = product
	}
	return result, rows.Err()
}

func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []any{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND LOWER(category) = LOWER($%d)", len(args))
	}
	switch filter.StockStatus {
	case StockStatusOutOfStock:
		query += " AND stock_qty = 0"
	case StockStatusLowStock:
		args = append(args, LowStockThreshold)
		query += fmt.Sprintf(" AND stock_qty > 0 AND stock_qty <= $%d", len(args))
	case StockStatusInStock:
		query += " AND stock_qty > 0"
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		query += fmt.Sprintf(" AND selling_price >= $%d", len(args))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		query += fmt.Sprintf(" AND selling_price <= $%d", len(args))
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, *product)
	}
	return result, rows.Err()
}

// Update writes the non-stock columns. stock_qty is owned by the ledger.
func (r *PostgresRepository) Update(ctx context.Context, tx common.Tx, product *Product) error {
	_, err := common.Unwrap(tx).Exec(ctx, `
		UPDATE products
		SET name = $1, category = $2, cost_price = $3, selling_price = $4,
		    modified_by = $5, modified_at = NOW()
		WHERE id = $6
	`, product.Name, product.Category, product.CostPrice, product.SellingPrice,
		product.ModifiedBy, product.ID)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", product.ID, err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, tx common.Tx, id int64) error {
	tag, err := common.Unwrap(tx).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("product %d not found", id)
	}
	return nil
}

// GetForUpdate locks the product row until the transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, tx common.Tx, id int64) (*Product, error) {
	product, err := scanProduct(common.Unwrap(tx).QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewNotFoundError("product %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock product %d: %w", id, err)
	}
	return product, nil
}

func (r *PostgresRepository) UpdateStock(ctx context.Context, tx common.Tx, id int64, newQty int, modifiedBy *int64) error {
	_, err := common.Unwrap(tx).Exec(ctx, `
		UPDATE products
		SET stock_qty = $1, modified_by = $2, modified_at = NOW()
		WHERE id = $3
	`, newQty, modifiedBy, id)
	if err != nil {
		return fmt.Errorf("failed to update stock for product %d: %w", id, err)
	}
	return nil
}

func (r *PostgresRepository) InsertLog(ctx context.Context, tx common.Tx, entry *StockChangeLog) error {
	err := common.Unwrap(tx).QueryRow(ctx, `
		INSERT INTO stock_change_logs
			(product_id, product_name, product_sku, product_category, customer_id,
			 previous_qty, new_qty, change_reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, entry.ProductID, entry.ProductName, entry.ProductSKU, entry.ProductCategory,
		entry.CustomerID, entry.PreviousQty, entry.NewQty, entry.ChangeReason, entry.CreatedBy,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert stock change log: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListLogs(ctx context.Context, filter LogFilter) ([]StockChangeLog, error) {
	query := `
		SELECT id, product_id, product_name, product_sku, product_category, customer_id,
		       previous_qty, new_qty, change_reason, created_by, created_at
		FROM stock_change_logs WHERE 1=1`
	args := []any{}

	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		query += fmt.Sprintf(" AND product_id = $%d", len(args))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock change logs: %w", err)
	}
	defer rows.Close()

	var result []StockChangeLog
	for rows.Next() {
		var entry StockChangeLog
		if err := rows.Scan(
			&entry.ID, &entry.ProductID, &entry.ProductName, &entry.ProductSKU,
			&entry.ProductCategory, &entry.CustomerID, &entry.PreviousQty, &entry.NewQty,
			&entry.ChangeReason, &entry.CreatedBy, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stock change log: %w", err)
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
