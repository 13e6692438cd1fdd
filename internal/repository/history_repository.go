package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/domain"
)

type historyRepository struct {
	q querier
}

// Append inserts one ledger row. The ledger has no update or delete path;
// rows disappear only with their complaint.
func (r *historyRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	var from *string
	if entry.FromStatus != "" {
		v := string(entry.FromStatus)
		from = &v
	}
	const query = `
        INSERT INTO complaint_history (id, complaint_id, event, from_status, to_status, actor_id, actor_role, message)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING seq, created_at`
	return r.q.QueryRow(ctx, query,
		entry.ID,
		entry.ComplaintID,
		entry.Event,
		from,
		entry.ToStatus,
		entry.ActorID,
		entry.ActorRole,
		entry.Message,
	).Scan(&entry.Sequence, &entry.CreatedAt)
}

func (r *historyRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.HistoryEntry, error) {
	const query = `
        SELECT id, complaint_id, seq, event, COALESCE(from_status, ''), to_status, actor_id, actor_role, message, created_at
        FROM complaint_history WHERE complaint_id=$1 ORDER BY created_at ASC, seq ASC`
	rows, err := r.q.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.HistoryEntry{}
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ComplaintID,
			&entry.Sequence,
			&entry.Event,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.ActorID,
			&entry.ActorRole,
			&entry.Message,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
