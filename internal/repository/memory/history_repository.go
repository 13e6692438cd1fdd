package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

type historyRepository struct {
	s  *Store
	tx *txn
}

func (r *historyRepository) Append(_ context.Context, entry *domain.HistoryEntry) error {
	defer lock(r.s, r.tx)()

	if _, ok := r.s.complaints[entry.ComplaintID]; !ok {
		return apperrors.NewNotFound("complaint", map[string]any{"complaint_id": entry.ComplaintID})
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	r.s.seq++
	entry.Sequence = r.s.seq
	entry.CreatedAt = r.s.timestamp()

	id := entry.ComplaintID
	before := len(r.s.history[id])
	r.s.history[id] = append(r.s.history[id], *entry)
	r.tx.record(func() {
		if before == 0 {
			delete(r.s.history, id)
			return
		}
		r.s.history[id] = r.s.history[id][:before]
	})
	return nil
}

// ListByComplaint returns entries in append order, which is also
// CreatedAt order since the clock never runs backwards here.
func (r *historyRepository) ListByComplaint(_ context.Context, complaintID string) ([]domain.HistoryEntry, error) {
	defer lock(r.s, r.tx)()

	entries := r.s.history[complaintID]
	out := make([]domain.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}
