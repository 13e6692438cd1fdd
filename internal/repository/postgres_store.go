package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// NewPostgresStore builds a Store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool, q: pool}
}

func (s *postgresStore) Complaints() ComplaintRepository {
	return &complaintRepository{q: s.q}
}

func (s *postgresStore) History() HistoryRepository {
	return &historyRepository{q: s.q}
}

// WithinTx commits when fn succeeds and rolls back on error or panic.
// Nested calls join the outer transaction.
func (s *postgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}
	var tx pgx.Tx
	tx, err = s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = fmt.Errorf("rollback transaction: %v (original error: %w)", rbErr, err)
			}
		} else {
			if err = tx.Commit(ctx); err != nil {
				err = fmt.Errorf("commit transaction: %w", err)
			}
		}
	}()

	err = fn(ctx, &postgresStore{pool: s.pool, q: tx, inTx: true})
	return err
}
