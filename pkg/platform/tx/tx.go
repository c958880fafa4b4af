package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Runner executes fn as a single atomic unit. Implementations that wrap a
// database hand fn a context carrying the transaction, so stores join it
// via From.
type Runner interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// Passthrough runs fn directly with no transaction. Used with in-memory
// stores, which mutate under their own locks.
type Passthrough struct{}

func (Passthrough) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// SQLRunner opens a database transaction around fn and commits it when fn
// returns nil. Any error rolls the whole unit back.
type SQLRunner struct {
	DB *sql.DB
}

func (r SQLRunner) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	txn, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = txn.Rollback()
	}()

	if err := fn(WithTx(ctx, txn)); err != nil {
		return err
	}
	return txn.Commit()
}
