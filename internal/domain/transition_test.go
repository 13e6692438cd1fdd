package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupTransitionOnlyListedEdges(t *testing.T) {
	listed := map[ComplaintStatus]map[Event]ComplaintStatus{
		StatusPending:    {EventAssign: StatusInProgress, EventWithdraw: StatusWithdrawn},
		StatusInProgress: {EventResolve: StatusResolved},
		StatusResolved:   {EventApprove: StatusClosed, EventReject: StatusInProgress},
	}
	for _, from := range AllStatuses {
		for _, ev := range AllEvents {
			tr, ok := LookupTransition(from, ev)
			want, expected := listed[from][ev]
			assert.Equal(t, expected, ok, "%s/%s", from, ev)
			if expected {
				assert.Equal(t, want, tr.To)
			}
		}
	}
}

func TestTerminalStatesHaveNoRegularEdges(t *testing.T) {
	for _, s := range []ComplaintStatus{StatusClosed, StatusWithdrawn} {
		assert.True(t, s.IsTerminal())
		c := &Complaint{ClientID: "c1", Status: s}
		assert.Empty(t, AllowedEventsFor(c, Actor{ID: "c1", Role: RoleClient}))
		assert.Equal(t, []Event{EventForce}, AllowedEventsFor(c, Actor{ID: "a1", Role: RoleAdmin}))
	}
}

func TestReachable(t *testing.T) {
	assert.True(t, Reachable(StatusPending, StatusClosed))
	assert.True(t, Reachable(StatusResolved, StatusInProgress))
	assert.True(t, Reachable(StatusInProgress, StatusInProgress))
	assert.False(t, Reachable(StatusInProgress, StatusPending))
	assert.False(t, Reachable(StatusInProgress, StatusWithdrawn))
	assert.False(t, Reachable(StatusClosed, StatusPending))
	assert.True(t, Reachable(StatusPending, StatusWithdrawn))
	assert.False(t, Reachable(StatusWithdrawn, StatusClosed))
}

func TestAllowsChecksGuards(t *testing.T) {
	assignee := "s1"
	c := &Complaint{ClientID: "c1", Status: StatusResolved, AssigneeID: &assignee}

	approve, _ := LookupTransition(StatusResolved, EventApprove)
	assert.True(t, approve.Allows(Actor{ID: "c1", Role: RoleClient}, c))
	assert.False(t, approve.Allows(Actor{ID: "c2", Role: RoleClient}, c))
	assert.False(t, approve.Allows(Actor{ID: "s1", Role: RoleSupport}, c))

	c.Status = StatusInProgress
	resolve, _ := LookupTransition(StatusInProgress, EventResolve)
	assert.True(t, resolve.Allows(Actor{ID: "s1", Role: RoleSupport}, c))
	assert.False(t, resolve.Allows(Actor{ID: "s2", Role: RoleSupport}, c))

	assert.Equal(t, []Event{EventResolve}, AllowedEventsFor(c, Actor{ID: "s1", Role: RoleSupport}))
	assert.Equal(t, []Event{EventForce}, AllowedEventsFor(c, Actor{ID: "a1", Role: RoleAdmin}))
}

func TestTargetOf(t *testing.T) {
	assert.Equal(t, StatusPending, TargetOf(EventCreate))
	assert.Equal(t, StatusInProgress, TargetOf(EventReject))
	assert.Equal(t, ComplaintStatus(""), TargetOf(EventForce))
}
