package repository

import (
	"context"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Mutator edits a private copy of a complaint inside CompareAndUpdate.
// Identity fields (ID, ProjectID, ClientID, CreatedAt, Version) are
// restored after it runs.
type Mutator func(c *domain.Complaint) error

// AssigneeFilter selects assigned complaints for workload scans.
type AssigneeFilter struct {
	AssigneeIDs []string
	Statuses    []domain.ComplaintStatus
}

// ComplaintRepository is the complaint entity store.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	// CompareAndUpdate applies mutate only if the stored status still equals
	// expected, in one conditional write. It fails with a CONFLICT
	// DomainError otherwise.
	CompareAndUpdate(ctx context.Context, id string, expected domain.ComplaintStatus, mutate Mutator) (*domain.Complaint, error)
	Delete(ctx context.Context, id string) error
	// ListByAssignees returns assigned complaints oldest first. An empty
	// AssigneeIDs matches every assignee.
	ListByAssignees(ctx context.Context, filter AssigneeFilter) ([]domain.Complaint, error)
}

// HistoryRepository is the append-only history ledger.
type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.HistoryEntry) error
	// ListByComplaint orders by CreatedAt then insertion order.
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.HistoryEntry, error)
}

// Store groups the repositories that must change together.
type Store interface {
	Complaints() ComplaintRepository
	History() HistoryRepository
	// WithinTx runs fn against a transactional view. Nothing fn wrote is
	// visible if it returns an error.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// ActiveStatuses are the statuses that count toward staff workload.
func ActiveStatuses(includeResolved bool) []domain.ComplaintStatus {
	statuses := []domain.ComplaintStatus{domain.StatusPending, domain.StatusInProgress}
	if includeResolved {
		statuses = append(statuses, domain.StatusResolved)
	}
	return statuses
}

func restoreIdentity(dst, src *domain.Complaint) {
	dst.ID = src.ID
	dst.ProjectID = src.ProjectID
	dst.ClientID = src.ClientID
	dst.CreatedAt = src.CreatedAt
	dst.Version = src.Version
}

// ApplyMutator runs mutate on a copy of current and returns the copy with
// identity fields preserved. Store implementations share it.
func ApplyMutator(current *domain.Complaint, mutate Mutator) (*domain.Complaint, error) {
	next := current.Clone()
	if mutate != nil {
		if err := mutate(next); err != nil {
			return nil, err
		}
	}
	restoreIdentity(next, current)
	return next, nil
}
