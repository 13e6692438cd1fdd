package service

import (
	"context"
	"sort"

	"github.com/spec-kit/complaint-service/internal/directory"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// WorkloadService derives per-staff load from the complaint store. It
// keeps no state; every call rescans.
type WorkloadService struct {
	store         repository.Store
	directory     directory.Directory
	countResolved bool
}

// NewWorkloadService constructs the service. countResolved adds RESOLVED
// complaints to the active set.
func NewWorkloadService(store repository.Store, dir directory.Directory, countResolved bool) *WorkloadService {
	return &WorkloadService{store: store, directory: dir, countResolved: countResolved}
}

// GetWorkload returns one snapshot per staff member ordered by staff id.
// With a project id only staff eligible for that project are listed.
func (s *WorkloadService) GetWorkload(ctx context.Context, actor domain.Actor, projectID string) ([]domain.WorkloadSnapshot, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("workload is visible to staff only")
	}
	staffIDs, err := s.staffScope(ctx, projectID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	snapshots, err := s.Snapshot(ctx, s.store.Complaints(), staffIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return snapshots, nil
}

func (s *WorkloadService) staffScope(ctx context.Context, projectID string) ([]string, error) {
	if projectID != "" {
		return s.directory.ListEligibleStaff(ctx, projectID)
	}
	members, err := s.directory.ListStaff(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Snapshot scans complaints through repo, which may be a transactional
// view, and computes the load of staffIDs.
func (s *WorkloadService) Snapshot(ctx context.Context, repo repository.ComplaintRepository, staffIDs []string) ([]domain.WorkloadSnapshot, error) {
	if len(staffIDs) == 0 {
		return []domain.WorkloadSnapshot{}, nil
	}
	active, err := repo.ListByAssignees(ctx, repository.AssigneeFilter{
		AssigneeIDs: staffIDs,
		Statuses:    repository.ActiveStatuses(s.countResolved),
	})
	if err != nil {
		return nil, err
	}
	return computeWorkload(staffIDs, active), nil
}

// computeWorkload is the pure part of the index: group active complaints
// by assignee and scale counts against the busiest member.
func computeWorkload(staffIDs []string, active []domain.Complaint) []domain.WorkloadSnapshot {
	byStaff := make(map[string]*domain.WorkloadSnapshot, len(staffIDs))
	out := make([]domain.WorkloadSnapshot, 0, len(staffIDs))
	for _, id := range staffIDs {
		if _, seen := byStaff[id]; seen {
			continue
		}
		byStaff[id] = &domain.WorkloadSnapshot{StaffID: id}
	}
	for i := range active {
		snap, ok := byStaff[active[i].Assignee()]
		if !ok {
			continue
		}
		snap.ActiveComplaintCount++
		snap.WeightedLoad += active[i].Priority.Weight()
	}

	peak := 1
	for _, snap := range byStaff {
		if snap.ActiveComplaintCount > peak {
			peak = snap.ActiveComplaintCount
		}
	}
	for _, snap := range byStaff {
		snap.WorkloadPercentage = float64(snap.ActiveComplaintCount) / float64(peak) * 100
		out = append(out, *snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StaffID < out[j].StaffID })
	return out
}
