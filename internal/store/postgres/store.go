// Package postgres implements the bankimport store interfaces over a pgx pool.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles the pool and implements bankimport.TxRunner. The individual
// store types share it so that calls made inside RunInTx pick up the
// transaction from the context.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Accounts() *AccountStore      { return &AccountStore{s} }
func (s *Store) Expenses() *ExpenseStore      { return &ExpenseStore{s} }
func (s *Store) History() *ImportHistoryStore { return &ImportHistoryStore{s} }
func (s *Store) Rules() *RuleStore            { return &RuleStore{s} }
func (s *Store) Categories() *CategoryStore   { return &CategoryStore{s} }

type txKey struct{}

// querier is satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// db returns the transaction bound to ctx if RunInTx put one there, otherwise
// the pool.
func (s *Store) db(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// RunInTx runs fn inside one transaction. Store calls made with the ctx
// passed to fn execute in that transaction. Rollback happens on error or
// panic; the connection is always returned to the pool.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // no-op after a successful commit

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
