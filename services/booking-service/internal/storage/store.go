// Package storage is the Postgres implementation of the booking store.
package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/schedule"
)

// querier is satisfied by both the pool and a transaction, so reads are written once.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	q querier
}

// Store reads through the pool and opens transactions for lifecycle mutations.
type Store struct {
	queries
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewStore(pool *db.Pool, outboxRepo *outbox.Repository) *Store {
	return &Store{queries: queries{q: pool}, pool: pool, outbox: outboxRepo}
}

func (s *Store) InTx(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		return fn(&txStore{queries: queries{q: tx}, tx: tx, outbox: s.outbox})
	})
}

// txStore is the lifecycle.Tx bound to one pgx transaction.
type txStore struct {
	queries
	tx     pgx.Tx
	outbox *outbox.Repository
}

// LockProviderDay takes a transaction-scoped advisory lock on (provider, date).
func (t *txStore) LockProviderDay(ctx context.Context, providerID string, date model.Date) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, providerID+"|"+date.String())
	return err
}

func (t *txStore) InsertEvent(ctx context.Context, evt outbox.Event) error {
	return t.outbox.Insert(ctx, t.tx, evt)
}

var (
	_ lifecycle.Store = (*Store)(nil)
	_ lifecycle.Tx    = (*txStore)(nil)
	_ schedule.Reader = (*Store)(nil)
)
