package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of *pgxpool.Pool and pgx.Tx the repositories use.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type runTxKey struct{}

// QuerierFromCtx returns the transaction opened by RunInTx when ctx carries
// one, and pool otherwise. A run row and its routed records are written
// through the same Querier so they commit together.
func QuerierFromCtx(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx, ok := ctx.Value(runTxKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// TxManager runs callbacks in a transaction carried through the context.
// Calls do not nest: RunInTx inside a callback opens a second, independent
// transaction.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// RunInTx executes fn in a Read Committed transaction. It commits when fn
// returns nil and rolls back on error or panic; panics are re-raised.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, runTxKey{}, tx)); err != nil {
		// Rollback must run even when ctx was canceled mid-batch.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return fmt.Errorf("rollback: %w (after: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
