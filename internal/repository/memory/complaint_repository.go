package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

type complaintRepository struct {
	s  *Store
	tx *txn
}

func (r *complaintRepository) Create(_ context.Context, complaint *domain.Complaint) error {
	defer lock(r.s, r.tx)()

	if complaint.ID == "" {
		complaint.ID = uuid.NewString()
	}
	if _, exists := r.s.complaints[complaint.ID]; exists {
		return apperrors.NewConflict("complaint already exists", map[string]any{"complaint_id": complaint.ID})
	}
	now := r.s.timestamp()
	complaint.Version = 1
	complaint.CreatedAt = now
	complaint.UpdatedAt = now

	id := complaint.ID
	r.s.complaints[id] = complaint.Clone()
	r.tx.record(func() { delete(r.s.complaints, id) })
	return nil
}

func (r *complaintRepository) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	defer lock(r.s, r.tx)()
	return r.get(id)
}

func (r *complaintRepository) get(id string) (*domain.Complaint, error) {
	stored, ok := r.s.complaints[id]
	if !ok {
		return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": id})
	}
	return stored.Clone(), nil
}

func (r *complaintRepository) CompareAndUpdate(_ context.Context, id string, expected domain.ComplaintStatus, mutate repository.Mutator) (*domain.Complaint, error) {
	defer lock(r.s, r.tx)()

	current, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if current.Status != expected {
		return nil, apperrors.NewConflict("complaint status changed concurrently", map[string]any{
			"complaint_id": id,
			"expected":     string(expected),
			"actual":       string(current.Status),
		})
	}
	next, err := repository.ApplyMutator(current, mutate)
	if err != nil {
		return nil, err
	}
	next.Version = current.Version + 1
	next.UpdatedAt = r.s.timestamp()

	previous := r.s.complaints[id]
	r.s.complaints[id] = next.Clone()
	r.tx.record(func() { r.s.complaints[id] = previous })
	return next, nil
}

func (r *complaintRepository) Delete(_ context.Context, id string) error {
	defer lock(r.s, r.tx)()

	previous, ok := r.s.complaints[id]
	if !ok {
		return apperrors.NewNotFound("complaint", map[string]any{"complaint_id": id})
	}
	entries := r.s.history[id]
	delete(r.s.complaints, id)
	delete(r.s.history, id)
	r.tx.record(func() {
		r.s.complaints[id] = previous
		if entries != nil {
			r.s.history[id] = entries
		}
	})
	return nil
}

func (r *complaintRepository) ListByAssignees(_ context.Context, filter repository.AssigneeFilter) ([]domain.Complaint, error) {
	defer lock(r.s, r.tx)()

	assignees := make(map[string]bool, len(filter.AssigneeIDs))
	for _, id := range filter.AssigneeIDs {
		assignees[id] = true
	}
	statuses := make(map[domain.ComplaintStatus]bool, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statuses[st] = true
	}

	var result []domain.Complaint
	for _, c := range r.s.complaints {
		if c.AssigneeID == nil {
			continue
		}
		if len(assignees) > 0 && !assignees[*c.AssigneeID] {
			continue
		}
		if len(statuses) > 0 && !statuses[c.Status] {
			continue
		}
		result = append(result, *c.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
