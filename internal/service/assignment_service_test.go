package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/directory"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

func TestAutoAssignTieBreakIsLexicographic(t *testing.T) {
	dir := directory.NewStatic().
		PutStaff(domain.StaffMember{ID: "staff-b", Role: domain.RoleSupport, Active: true}).
		PutStaff(domain.StaffMember{ID: "staff-a", Role: domain.RoleSupport, Active: true}).
		AddMember("p1", "staff-b", "staff-a")
	f := newFixture(fixtureOptions{dir: dir})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		picked, err := f.assignment.SelectLeastLoaded(ctx, f.store.Complaints(), "p1")
		require.NoError(t, err)
		assert.Equal(t, "staff-a", picked)
	}

	f.seed("p1", "staff-a", domain.StatusPending, domain.PriorityLow)
	picked, err := f.assignment.SelectLeastLoaded(ctx, f.store.Complaints(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "staff-b", picked)
}

func TestWeightedStrategyPrefersLighterPriorityLoad(t *testing.T) {
	countFixture := newFixture(fixtureOptions{strategy: StrategyCount})
	weightedFixture := newFixture(fixtureOptions{strategy: StrategyWeighted})
	ctx := context.Background()

	for _, f := range []*fixture{countFixture, weightedFixture} {
		f.seed("p1", "s1", domain.StatusInProgress, domain.PriorityCritical)
		f.seed("p1", "s2", domain.StatusPending, domain.PriorityLow)
		f.seed("p1", "s2", domain.StatusPending, domain.PriorityLow)
	}

	picked, err := countFixture.assignment.SelectLeastLoaded(ctx, countFixture.store.Complaints(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "s1", picked)

	picked, err = weightedFixture.assignment.SelectLeastLoaded(ctx, weightedFixture.store.Complaints(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "s2", picked)
}

func balanceDirectory() *directory.Static {
	return directory.NewStatic().
		PutStaff(domain.StaffMember{ID: "a", Role: domain.RoleSupport, Active: true}).
		PutStaff(domain.StaffMember{ID: "b", Role: domain.RoleSupport, Active: true}).
		PutStaff(domain.StaffMember{ID: "c", Role: domain.RoleSupport, Active: true}).
		AddMember("p1", "a", "b", "c")
}

func TestBalanceWorkloadMovesOldestPending(t *testing.T) {
	f := newFixture(fixtureOptions{dir: balanceDirectory()})
	ctx := context.Background()

	var pending []*domain.Complaint
	for i := 0; i < 5; i++ {
		pending = append(pending, f.seed("p1", "a", domain.StatusPending, domain.PriorityMedium))
	}
	f.seed("p1", "c", domain.StatusInProgress, domain.PriorityMedium)

	report, err := f.assignment.BalanceWorkload(ctx, admin)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, report.Mean, 0.0001)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.Moved, 2)
	assert.Equal(t, domain.Reassignment{ComplaintID: pending[0].ID, FromStaffID: "a", ToStaffID: "b"}, report.Moved[0])
	assert.Equal(t, domain.Reassignment{ComplaintID: pending[1].ID, FromStaffID: "a", ToStaffID: "b"}, report.Moved[1])

	before := map[string]int{}
	for _, snap := range report.Before {
		before[snap.StaffID] = snap.ActiveComplaintCount
	}
	assert.Equal(t, map[string]int{"a": 5, "b": 0, "c": 1}, before)

	snapshots, err := f.workload.GetWorkload(ctx, admin, "")
	require.NoError(t, err)
	counts := map[string]int{}
	for _, snap := range snapshots {
		counts[snap.StaffID] = snap.ActiveComplaintCount
	}
	assert.Equal(t, map[string]int{"a": 3, "b": 2, "c": 1}, counts)

	moved, err := f.store.Complaints().GetByID(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, moved.Status)
	assert.Equal(t, "b", moved.Assignee())

	reassigned := f.recorder.OfType(events.EventComplaintReassigned)
	require.Len(t, reassigned, 2)
	assert.Equal(t, domain.StatusPending, reassigned[0].FromStatus)
	assert.Equal(t, domain.StatusPending, reassigned[0].ToStatus)
	assert.Equal(t, "a", reassigned[0].Payload.(events.ComplaintReassignedPayload).PreviousAssigneeID)

	entries, err := f.store.History().ListByComplaint(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBalanceWorkloadNeverTouchesInProgress(t *testing.T) {
	dir := directory.NewStatic().
		PutStaff(domain.StaffMember{ID: "a", Role: domain.RoleSupport, Active: true}).
		PutStaff(domain.StaffMember{ID: "b", Role: domain.RoleSupport, Active: true}).
		AddMember("p1", "a", "b")
	f := newFixture(fixtureOptions{dir: dir})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.seed("p1", "a", domain.StatusInProgress, domain.PriorityHigh)
	}

	report, err := f.assignment.BalanceWorkload(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, report.Moved)
	assert.Equal(t, 0, report.Skipped)

	all, err := f.store.Complaints().ListByAssignees(ctx, repositoryFilterAll())
	require.NoError(t, err)
	for _, c := range all {
		assert.Equal(t, "a", c.Assignee())
		assert.Equal(t, domain.StatusInProgress, c.Status)
	}
	assert.Empty(t, f.recorder.Events())
}

func TestBalanceWorkloadOnlyMovesToProjectMembers(t *testing.T) {
	dir := balanceDirectory().
		PutStaff(domain.StaffMember{ID: "d", Role: domain.RoleSupport, Active: true}).
		AddMember("p2", "a")
	f := newFixture(fixtureOptions{dir: dir})
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		f.seed("p2", "a", domain.StatusPending, domain.PriorityLow)
	}

	report, err := f.assignment.BalanceWorkload(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, report.Moved)
}

// racingDirectory starts work on the first pending complaint the moment
// balancing looks up candidates, as a concurrent assign would.
type racingDirectory struct {
	*directory.Static
	once   bool
	ctx    context.Context
	target string
	f      *fixture
}

func (r *racingDirectory) ListEligibleStaff(ctx context.Context, projectID string) ([]string, error) {
	if !r.once {
		r.once = true
		if _, err := r.f.complaints.AssignComplaint(r.ctx, support1, r.target, AssignInput{ExpectedStatus: domain.StatusPending, AssigneeID: "a"}); err != nil {
			return nil, err
		}
	}
	return r.Static.ListEligibleStaff(ctx, projectID)
}

func TestBalanceWorkloadSkipsConcurrentlyChangedComplaints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(fixtureOptions{dir: balanceDirectory()})
	var pending []*domain.Complaint
	for i := 0; i < 6; i++ {
		pending = append(pending, f.seed("p1", "a", domain.StatusPending, domain.PriorityMedium))
	}

	racing := &racingDirectory{Static: f.dir, ctx: ctx, target: pending[0].ID, f: f}
	racer := NewAssignmentService(AssignmentDependencies{
		Store:      f.store,
		Directory:  racing,
		Workload:   f.workload,
		Dispatcher: f.recorder,
	})

	report, err := racer.BalanceWorkload(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	require.NotEmpty(t, report.Moved)
	assert.Equal(t, pending[1].ID, report.Moved[0].ComplaintID)

	started, err := f.store.Complaints().GetByID(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, started.Status)
	assert.Equal(t, "a", started.Assignee())
}

func TestBalanceWorkloadRequiresAdmin(t *testing.T) {
	f := newFixture(fixtureOptions{})
	_, err := f.assignment.BalanceWorkload(context.Background(), support1)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
