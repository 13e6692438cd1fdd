// Package memory is a process-local Store used when no database is
// configured and by the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store keeps complaints and history in maps guarded by one mutex.
// WithinTx holds the mutex for the whole callback, so transactions are
// serialized and see each other's writes only after they return.
type Store struct {
	mu         sync.Mutex
	complaints map[string]*domain.Complaint
	history    map[string][]domain.HistoryEntry
	seq        int64
	now        func() time.Time
}

// New builds an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		complaints: make(map[string]*domain.Complaint),
		history:    make(map[string][]domain.HistoryEntry),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Complaints() repository.ComplaintRepository {
	return &complaintRepository{s: s}
}

func (s *Store) History() repository.HistoryRepository {
	return &historyRepository{s: s}
}

// WithinTx rolls back every write fn made when it returns an error or
// panics.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
		if err != nil {
			tx.rollback()
		}
	}()
	return fn(ctx, &txStore{s: s, tx: tx})
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// txn is an undo log. Entries run in reverse order on rollback.
type txn struct {
	undo []func()
}

func (t *txn) record(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

func (t *txn) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

type txStore struct {
	s  *Store
	tx *txn
}

func (t *txStore) Complaints() repository.ComplaintRepository {
	return &complaintRepository{s: t.s, tx: t.tx}
}

func (t *txStore) History() repository.HistoryRepository {
	return &historyRepository{s: t.s, tx: t.tx}
}

// WithinTx joins the surrounding transaction.
func (t *txStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return fn(ctx, t)
}

// lock takes the store mutex unless the caller already runs inside a
// transaction, which holds it.
func lock(s *Store, tx *txn) func() {
	if tx != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
