package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mostafa20220/mini-erp/services/common"
)

// Repository defines the storage operations for users.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, role string) ([]User, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (email, first_name, last_name, role, phone, customer_code, is_active, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, modified_at
	`, user.Email, user.FirstName, user.LastName, user.Role, user.Phone, user.CustomerCode,
		user.IsActive, user.CreatedBy, user.ModifiedBy,
	).Scan(&user.ID, &user.CreatedAt, &user.ModifiedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := r.db.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, role, phone, customer_code, is_active,
		       created_at, modified_at, created_by, modified_by
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Role,
		&user.Phone, &user.CustomerCode, &user.IsActive,
		&user.CreatedAt, &user.ModifiedAt, &user.CreatedBy, &user.ModifiedBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewNotFoundError("user %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

func (r *PostgresRepository) List(ctx context.Context, role string) ([]User, error) {
	query := `
		SELECT id, email, first_name, last_name, role, phone, customer_code, is_active,
		       created_at, modified_at, created_by, modified_by
		FROM users
	`
	args := []any{}
	if role != "" {
		query += " WHERE role = $1"
		args = append(args, role)
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		var user User
		if err := rows.Scan(
			&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Role,
			&user.Phone, &user.CustomerCode, &user.IsActive,
			&user.CreatedAt, &user.ModifiedAt, &user.CreatedBy, &user.ModifiedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
