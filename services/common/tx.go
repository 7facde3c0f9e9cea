package common

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx is the transaction handle use cases work with. Keeping it this narrow
// lets tests substitute a fake without pulling in pgx.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxBeginner starts a new unit of work.
type TxBeginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// PgxTx adapts a pgx transaction to the Tx interface.
type PgxTx struct {
	Tx pgx.Tx
}

func (t *PgxTx) Commit(ctx context.Context) error {
	return t.Tx.Commit(ctx)
}

func (t *PgxTx) Rollback(ctx context.Context) error {
	return t.Tx.Rollback(ctx)
}

// DB wraps a pgxpool.Pool as a TxBeginner.
type DB struct {
	Pool *pgxpool.Pool
}

func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{Pool: pool}
}

func (d *DB) Begin(ctx context.Context) (Tx, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PgxTx{Tx: tx}, nil
}

// Unwrap returns the underlying pgx transaction for repository queries.
func Unwrap(tx Tx) pgx.Tx {
	return tx.(*PgxTx).Tx
}
