package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/directory"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// Strategy decides how auto-assignment ranks candidates.
type Strategy string

const (
	// StrategyCount ranks by active complaint count.
	StrategyCount Strategy = "count"
	// StrategyWeighted ranks by priority-weighted load, then count.
	StrategyWeighted Strategy = "weighted"
)

// Selection modes reported in events and metrics.
const (
	SelectionExplicit = "explicit"
	SelectionAuto     = "auto"
	SelectionRouted   = "routed"
)

// AssignmentService chooses assignees and rebalances load.
type AssignmentService struct {
	store      repository.Store
	directory  directory.Directory
	workload   *WorkloadService
	dispatcher events.Dispatcher
	strategy   Strategy
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Store      repository.Store
	Directory  directory.Directory
	Workload   *WorkloadService
	Dispatcher events.Dispatcher
	Strategy   Strategy
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	strategy := deps.Strategy
	if strategy == "" {
		strategy = StrategyCount
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		store:      deps.Store,
		directory:  deps.Directory,
		workload:   deps.Workload,
		dispatcher: deps.Dispatcher,
		strategy:   strategy,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// Choose returns the assignee for complaint. An explicit id is validated,
// never replaced. Without one, a pre-routed assignee that is still
// eligible is kept, otherwise the least-loaded eligible member is
// selected. repo lets the caller scan load inside its transaction.
func (s *AssignmentService) Choose(ctx context.Context, repo repository.ComplaintRepository, complaint *domain.Complaint, explicitID string) (string, string, error) {
	if explicitID != "" {
		if err := s.ValidateExplicit(ctx, explicitID, complaint.ProjectID); err != nil {
			return "", "", err
		}
		return explicitID, SelectionExplicit, nil
	}
	if routed := complaint.Assignee(); routed != "" {
		ok, err := s.directory.IsEligible(ctx, routed, complaint.ProjectID)
		if err != nil {
			return "", "", apperrors.MapError(err)
		}
		if ok {
			return routed, SelectionRouted, nil
		}
	}
	id, err := s.SelectLeastLoaded(ctx, repo, complaint.ProjectID)
	if err != nil {
		return "", "", err
	}
	return id, SelectionAuto, nil
}

// ValidateExplicit checks that staffID exists, is an active SUPPORT or
// ADMIN member and belongs to the project.
func (s *AssignmentService) ValidateExplicit(ctx context.Context, staffID, projectID string) error {
	member, err := s.directory.GetStaff(ctx, staffID)
	if err != nil {
		return apperrors.MapError(err)
	}
	details := map[string]any{"staff_id": staffID, "project_id": projectID}
	if !member.Active {
		return apperrors.NewInvalidAssignee("assignee is inactive", details)
	}
	if !member.Role.IsStaff() {
		return apperrors.NewInvalidAssignee("assignee must have SUPPORT or ADMIN role", details)
	}
	ok, err := s.directory.IsEligible(ctx, staffID, projectID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !ok {
		return apperrors.NewInvalidAssignee("assignee is not eligible for project", details)
	}
	return nil
}

// RequireProject fails with NOT_FOUND when the directory has no active
// project projectID.
func (s *AssignmentService) RequireProject(ctx context.Context, projectID string) error {
	ok, err := s.directory.ProjectExists(ctx, projectID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !ok {
		return apperrors.NewNotFound("project", map[string]any{"project_id": projectID})
	}
	return nil
}

// SelectLeastLoaded ranks the project's eligible staff by the configured
// strategy. Ties go to the lexicographically smallest staff id.
func (s *AssignmentService) SelectLeastLoaded(ctx context.Context, repo repository.ComplaintRepository, projectID string) (string, error) {
	eligible, err := s.directory.ListEligibleStaff(ctx, projectID)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if len(eligible) == 0 {
		return "", apperrors.NewNoEligibleStaff(map[string]any{"project_id": projectID})
	}
	snapshots, err := s.workload.Snapshot(ctx, repo, eligible)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	return rank(snapshots, s.strategy)[0].StaffID, nil
}

func rank(snapshots []domain.WorkloadSnapshot, strategy Strategy) []domain.WorkloadSnapshot {
	out := append([]domain.WorkloadSnapshot(nil), snapshots...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if strategy == StrategyWeighted && a.WeightedLoad != b.WeightedLoad {
			return a.WeightedLoad < b.WeightedLoad
		}
		if a.ActiveComplaintCount != b.ActiveComplaintCount {
			return a.ActiveComplaintCount < b.ActiveComplaintCount
		}
		return a.StaffID < b.StaffID
	})
	return out
}

// BalanceWorkload moves the oldest PENDING complaints off staff whose load
// exceeds the mean by more than one. One snapshot is taken up front and
// updated locally as moves land. Each move is its own compare-and-update
// against PENDING with the original assignee; a complaint that changed
// meanwhile is skipped. IN_PROGRESS work is never moved.
func (s *AssignmentService) BalanceWorkload(ctx context.Context, actor domain.Actor) (*domain.BalanceReport, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("workload balancing requires ADMIN")
	}

	staff, err := s.directory.ListStaff(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	report := &domain.BalanceReport{Moved: []domain.Reassignment{}, Before: []domain.WorkloadSnapshot{}}
	if len(staff) == 0 {
		return report, nil
	}
	staffIDs := make([]string, 0, len(staff))
	for _, m := range staff {
		staffIDs = append(staffIDs, m.ID)
	}

	repo := s.store.Complaints()
	active, err := repo.ListByAssignees(ctx, repository.AssigneeFilter{
		AssigneeIDs: staffIDs,
		Statuses:    repository.ActiveStatuses(s.workload.countResolved),
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	snapshots := computeWorkload(staffIDs, active)
	report.Before = snapshots

	counts := make(map[string]int, len(snapshots))
	total := 0
	for _, snap := range snapshots {
		counts[snap.StaffID] = snap.ActiveComplaintCount
		total += snap.ActiveComplaintCount
	}
	report.Mean = float64(total) / float64(len(snapshots))

	pendingBySource := map[string][]domain.Complaint{}
	for _, c := range active {
		if c.Status == domain.StatusPending {
			pendingBySource[c.Assignee()] = append(pendingBySource[c.Assignee()], c)
		}
	}
	eligibleByProject := map[string][]string{}

	for _, source := range staffIDs {
		for _, complaint := range pendingBySource[source] {
			if float64(counts[source]) <= report.Mean+1 {
				break
			}
			candidates, ok := eligibleByProject[complaint.ProjectID]
			if !ok {
				candidates, err = s.directory.ListEligibleStaff(ctx, complaint.ProjectID)
				if err != nil {
					return nil, apperrors.MapError(err)
				}
				eligibleByProject[complaint.ProjectID] = candidates
			}
			target := leastLoaded(candidates, counts, source)
			if target == "" || counts[target] >= counts[source]-1 {
				continue
			}

			moved, err := s.reassign(ctx, complaint.ID, source, target)
			if errors.Is(err, apperrors.ErrConflict) {
				report.Skipped++
				s.logger.Info("balance skipped complaint changed concurrently",
					zap.String("complaint_id", complaint.ID))
				continue
			}
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			counts[source]--
			counts[target]++
			report.Moved = append(report.Moved, domain.Reassignment{
				ComplaintID: complaint.ID,
				FromStaffID: source,
				ToStaffID:   target,
			})
			s.publish(ctx, events.New(events.EventComplaintReassigned, moved, domain.StatusPending, actor, moved.UpdatedAt,
				events.ComplaintReassignedPayload{PreviousAssigneeID: source, NewAssigneeID: target}))
		}
	}

	s.metrics.RecordBalance(len(report.Moved), report.Skipped)
	s.logger.Info("workload balanced",
		zap.Float64("mean", report.Mean),
		zap.Int("moved", len(report.Moved)),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

// leastLoaded picks the candidate with the lowest local count, excluding
// exclude. Candidates unknown to counts are not assignable staff.
func leastLoaded(candidates []string, counts map[string]int, exclude string) string {
	best := ""
	for _, id := range candidates {
		if id == exclude {
			continue
		}
		count, ok := counts[id]
		if !ok {
			continue
		}
		if best == "" || count < counts[best] || (count == counts[best] && id < best) {
			best = id
		}
	}
	return best
}

func (s *AssignmentService) reassign(ctx context.Context, complaintID, from, to string) (*domain.Complaint, error) {
	var moved *domain.Complaint
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		updated, err := tx.Complaints().CompareAndUpdate(ctx, complaintID, domain.StatusPending, func(c *domain.Complaint) error {
			if !c.IsAssignedTo(from) {
				return apperrors.NewConflict("complaint reassigned concurrently", map[string]any{
					"complaint_id": complaintID,
					"expected":     from,
				})
			}
			c.AssigneeID = &to
			return nil
		})
		if err != nil {
			return err
		}
		moved = updated
		return nil
	})
	return moved, err
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
	emit(ctx, s.dispatcher, s.logger, s.metrics, event)
}
