package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mostafa20220/mini-erp/services/common"
)

// Filter narrows order listings. Nil/zero values mean "no constraint".
type Filter struct {
	CustomerID *int64
	Status     string
	DateFrom   *time.Time
	DateTo     *time.Time
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
}

// DashboardSummary is the aggregate view for the sales dashboard.
type DashboardSummary struct {
	TodayConfirmedCount int64           `json:"today_confirmed_count"`
	TodayConfirmedTotal decimal.Decimal `json:"today_confirmed_total"`
	PendingCount        int64           `json:"pending_count"`
	ConfirmedCount      int64           `json:"confirmed_count"`
	CancelledCount      int64           `json:"cancelled_count"`
}

// Repository defines the storage operations for orders.
type Repository interface {
	// Create inserts the order header and all its items.
	Create(ctx context.Context, tx common.Tx, order *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	// GetByIDForUpdate loads the order with its items and locks the
	// header row for the duration of the transaction.
	GetByIDForUpdate(ctx context.Context, tx common.Tx, id int64) (*Order, error)
	List(ctx context.Context, filter Filter) ([]Order, error)
	UpdateStatus(ctx context.Context, tx common.Tx, id int64, status string, modifiedBy *int64) error
	Delete(ctx context.Context, tx common.Tx, id int64) error
	LastNumberForPrefix(ctx context.Context, tx common.Tx, prefix string) (string, error)
	Dashboard(ctx context.Context) (*DashboardSummary, error)
}

// IsNumberConflict reports whether err is a unique violation on the
// order number, i.e. a concurrent creator won the same sequence slot.
func IsNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == "23505" &&
		pgErr.ConstraintName == "orders_order_number_key"
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{db: db}
}

const orderColumns = `id, order_number, customer_id, order_date, status, total_amount,
	created_at, modified_at, created_by, modified_by`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.OrderDate, &o.Status, &o.TotalAmount,
		&o.CreatedAt, &o.ModifiedAt, &o.CreatedBy, &o.ModifiedBy,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresRepository) Create(ctx context.Context, tx common.Tx, order *Order) error {
	pgTx := common.Unwrap(tx)

	err := pgTx.QueryRow(ctx, `
		INSERT INTO orders (order_number, customer_id, status, total_amount, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, order_date, created_at, modified_at
	`, order.OrderNumber, order.CustomerID, order.Status, order.TotalAmount,
		order.CreatedBy, order.ModifiedBy,
	).Scan(&order.ID, &order.OrderDate, &order.CreatedAt, &order.ModifiedAt)
	if err != nil {
		if IsNumberConflict(err) {
			return err
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := pgTx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, product_sku, quantity, price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, item.OrderID, item.ProductID, item.ProductName, item.ProductSKU,
			item.Quantity, item.Price, item.TotalPrice,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewNotFoundError("order %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}

	items, err := r.loadItems(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, tx common.Tx, id int64) (*Order, error) {
	pgTx := common.Unwrap(tx)

	order, err := scanOrder(pgTx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewNotFoundError("order %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock order %d: %w", id, err)
	}

	items, err := r.loadItems(ctx, pgTx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PostgresRepository) loadItems(ctx context.Context, q querier, orderID int64) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, product_name, product_sku, quantity, price, total_price
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.ProductSKU,
			&item.Quantity, &item.Price, &item.TotalPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND order_date >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += fmt.Sprintf(" AND order_date <= $%d", len(args))
	}
	if filter.MinAmount != nil {
		args = append(args, *filter.MinAmount)
		query += fmt.Sprintf(" AND total_amount >= $%d", len(args))
	}
	if filter.MaxAmount != nil {
		args = append(args, *filter.MaxAmount)
		query += fmt.Sprintf(" AND total_amount <= $%d", len(args))
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var result []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *order)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, tx common.Tx, id int64, status string, modifiedBy *int64) error {
	_, err := common.Unwrap(tx).Exec(ctx, `
		UPDATE orders
		SET status = $1, modified_by = $2, modified_at = NOW()
		WHERE id = $3
	`, status, modifiedBy, id)
	if err != nil {
		return fmt.Errorf("failed to update order %d status: %w", id, err)
	}
	return nil
}

// Delete removes the order; items go with it via the FK cascade.
func (r *PostgresRepository) Delete(ctx context.Context, tx common.Tx, id int64) error {
	tag, err := common.Unwrap(tx).Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("order %d not found", id)
	}
	return nil
}

func (r *PostgresRepository) LastNumberForPrefix(ctx context.Context, tx common.Tx, prefix string) (string, error) {
	var number string
	err := common.Unwrap(tx).QueryRow(ctx, `
		SELECT order_number FROM orders
		WHERE order_number LIKE $1 || '%'
		ORDER BY order_number DESC
		LIMIT 1
	`, prefix).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return number, nil
}

func (r *PostgresRepository) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	var summary DashboardSummary
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'CONFIRMED' AND order_date = CURRENT_DATE),
			COALESCE(SUM(total_amount) FILTER (WHERE status = 'CONFIRMED' AND order_date = CURRENT_DATE), 0),
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'CONFIRMED'),
			COUNT(*) FILTER (WHERE status = 'CANCELLED')
		FROM orders
	`).Scan(
		&summary.TodayConfirmedCount, &summary.TodayConfirmedTotal,
		&summary.PendingCount, &summary.ConfirmedCount, &summary.CancelledCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard summary: %w", err)
	}
	return &summary, nil
}
