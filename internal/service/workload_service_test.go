package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

func TestWorkloadCountsOnlyActiveAssigned(t *testing.T) {
	f := newFixture(fixtureOptions{})
	ctx := context.Background()

	f.seed("p1", "s1", domain.StatusPending, domain.PriorityLow)
	f.seed("p1", "s1", domain.StatusInProgress, domain.PriorityCritical)
	f.seed("p1", "s1", domain.StatusClosed, domain.PriorityHigh)
	f.seed("p1", "s1", domain.StatusResolved, domain.PriorityHigh)
	f.seed("p1", "s2", domain.StatusPending, domain.PriorityMedium)
	f.seed("p1", "", domain.StatusPending, domain.PriorityMedium)

	snapshots, err := f.workload.GetWorkload(ctx, support1, "p1")
	require.NoError(t, err)
	assert.Equal(t, []domain.WorkloadSnapshot{
		{StaffID: "s1", ActiveComplaintCount: 2, WeightedLoad: 5, WorkloadPercentage: 100},
		{StaffID: "s2", ActiveComplaintCount: 1, WeightedLoad: 2, WorkloadPercentage: 50},
	}, snapshots)
}

func TestWorkloadIsIdempotent(t *testing.T) {
	f := newFixture(fixtureOptions{})
	ctx := context.Background()
	f.seed("p1", "s2", domain.StatusPending, domain.PriorityLow)

	first, err := f.workload.GetWorkload(ctx, admin, "")
	require.NoError(t, err)
	second, err := f.workload.GetWorkload(ctx, admin, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
}

func TestWorkloadEmptyStaffHasZeroPercentage(t *testing.T) {
	f := newFixture(fixtureOptions{})
	snapshots, err := f.workload.GetWorkload(context.Background(), admin, "p2")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 0.0, snapshots[0].WorkloadPercentage)
}

func TestWorkloadCountResolvedWhenConfigured(t *testing.T) {
	f := newFixture(fixtureOptions{})
	f.seed("p1", "s1", domain.StatusResolved, domain.PriorityLow)
	withResolved := NewWorkloadService(f.store, f.dir, true)

	snapshots, err := withResolved.GetWorkload(context.Background(), admin, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, snapshots[0].ActiveComplaintCount)
}

func TestWorkloadHiddenFromClients(t *testing.T) {
	f := newFixture(fixtureOptions{})
	_, err := f.workload.GetWorkload(context.Background(), client, "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestComputeWorkloadIgnoresUnknownAssignees(t *testing.T) {
	active := []domain.Complaint{
		{AssigneeID: strPtr("ghost"), Status: domain.StatusPending, Priority: domain.PriorityLow},
		{AssigneeID: strPtr("s1"), Status: domain.StatusPending, Priority: domain.PriorityLow},
	}
	out := computeWorkload([]string{"s1", "s1"}, active)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].ActiveComplaintCount)
}
