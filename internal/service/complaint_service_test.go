package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

type ComplaintServiceSuite struct {
	suite.Suite
	ctx context.Context
	f   *fixture
}

func TestComplaintServiceSuite(t *testing.T) {
	suite.Run(t, new(ComplaintServiceSuite))
}

func (s *ComplaintServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.f = newFixture(fixtureOptions{})
}

func (s *ComplaintServiceSuite) create() *domain.Complaint {
	c, err := s.f.complaints.CreateComplaint(s.ctx, client, CreateComplaintInput{
		ProjectID:   "p1",
		Title:       "login page broken",
		Description: "500 on submit",
		Priority:    domain.PriorityHigh,
	})
	s.Require().NoError(err)
	return c
}

func (s *ComplaintServiceSuite) history(id string) []domain.HistoryEntry {
	entries, err := s.f.complaints.GetHistory(s.ctx, admin, id)
	s.Require().NoError(err)
	return entries
}

func (s *ComplaintServiceSuite) status(id string) domain.ComplaintStatus {
	c, err := s.f.store.Complaints().GetByID(s.ctx, id)
	s.Require().NoError(err)
	return c.Status
}

func (s *ComplaintServiceSuite) TestHappyPath() {
	c := s.create()
	s.Equal(domain.StatusPending, c.Status)
	s.Nil(c.AssigneeID)

	assigned, err := s.f.complaints.AssignComplaint(s.ctx, support1, c.ID, AssignInput{ExpectedStatus: domain.StatusPending})
	s.Require().NoError(err)
	s.Equal(domain.StatusInProgress, assigned.Status)
	s.Equal("s1", assigned.Assignee())

	resolved, err := s.f.complaints.ResolveComplaint(s.ctx, support1, c.ID, ResolveInput{ExpectedStatus: domain.StatusInProgress, Comment: "fixed the bug"})
	s.Require().NoError(err)
	s.Equal(domain.StatusResolved, resolved.Status)
	s.Require().NotNil(resolved.ResolutionComment)
	s.Equal("fixed the bug", *resolved.ResolutionComment)

	closed, err := s.f.complaints.RespondToResolution(s.ctx, client, c.ID, RespondInput{ExpectedStatus: domain.StatusResolved, Action: ActionApprove})
	s.Require().NoError(err)
	s.Equal(domain.StatusClosed, closed.Status)
	s.Equal("s1", closed.Assignee())

	entries := s.history(c.ID)
	s.Require().Len(entries, 4)
	s.Equal(domain.EventCreate, entries[0].Event)
	s.Equal(domain.ComplaintStatus(""), entries[0].FromStatus)
	s.Equal(domain.StatusPending, entries[1].FromStatus)
	s.Equal(domain.StatusInProgress, entries[1].ToStatus)
	s.Equal("fixed the bug", entries[2].Message)
	s.Equal(domain.StatusClosed, entries[3].ToStatus)
	for i := 1; i < len(entries); i++ {
		s.True(entries[i-1].CreatedAt.Before(entries[i].CreatedAt))
	}

	var types []events.EventType
	for _, e := range s.f.recorder.Events() {
		types = append(types, e.Type)
	}
	s.Equal([]events.EventType{
		events.EventComplaintCreated,
		events.EventComplaintAssigned,
		events.EventComplaintResolved,
		events.EventComplaintClosed,
	}, types)
	last := s.f.recorder.Events()[3]
	s.Equal(c.ID, last.ComplaintID)
	s.Equal(domain.StatusResolved, last.FromStatus)
	s.Equal(client.ID, last.Actor.ID)
}

func (s *ComplaintServiceSuite) TestRejectionLoopKeepsCommentUntilNextResolve() {
	c := s.create()
	_, err := s.f.complaints.AssignComplaint(s.ctx, support1, c.ID, AssignInput{ExpectedStatus: domain.StatusPending, AssigneeID: "s2"})
	s.Require().NoError(err)
	_, err = s.f.complaints.ResolveComplaint(s.ctx, support2, c.ID, ResolveInput{ExpectedStatus: domain.StatusInProgress, Comment: "fix A"})
	s.Require().NoError(err)

	reopened, err := s.f.complaints.RespondToResolution(s.ctx, client, c.ID, RespondInput{ExpectedStatus: domain.StatusResolved, Action: ActionReject, Feedback: "didn't work"})
	s.Require().NoError(err)
	s.Equal(domain.StatusInProgress, reopened.Status)
	s.Equal("s2", reopened.Assignee())
	s.Require().NotNil(reopened.ResolutionComment)
	s.Equal("fix A", *reopened.ResolutionComment)

	entries := s.history(c.ID)
	s.Require().Len(entries, 4)
	s.Equal(domain.EventReject, entries[3].Event)
	s.Equal("didn't work", entries[3].Message)
	s.Len(s.f.recorder.OfType(events.EventComplaintReopened), 1)

	again, err := s.f.complaints.ResolveComplaint(s.ctx, support2, c.ID, ResolveInput{ExpectedStatus: domain.StatusInProgress, Comment: "fix B"})
	s.Require().NoError(err)
	s.Equal("fix B", *again.ResolutionComment)
	s.Len(s.history(c.ID), 5)
}

func (s *ComplaintServiceSuite) TestRejectWithoutFeedbackRecordsDefaultMessage() {
	c := s.f.seed("p1", "s1", domain.StatusResolved, domain.PriorityLow)
	_, err := s.f.complaints.RespondToResolution(s.ctx, client, c.ID, RespondInput{ExpectedStatus: domain.StatusResolved, Action: "reject"})
	s.Require().NoError(err)
	entries := s.history(c.ID)
	s.Require().Len(entries, 1)
	s.Equal("resolution rejected by client", entries[0].Message)
}

func (s *ComplaintServiceSuite) TestNoIllegalEdges() {
	type command struct {
		event domain.Event
		run   func(id string, seen domain.ComplaintStatus) error
	}
	commands := []command{
		{domain.EventAssign, func(id string, seen domain.ComplaintStatus) error {
			_, err := s.f.complaints.AssignComplaint(s.ctx, support1, id, AssignInput{ExpectedStatus: seen})
			return err
		}},
		{domain.EventWithdraw, func(id string, seen domain.ComplaintStatus) error {
			_, err := s.f.complaints.WithdrawComplaint(s.ctx, client, id, WithdrawInput{ExpectedStatus: seen, Reason: "nvm"})
			return err
		}},
		{domain.EventResolve, func(id string, seen domain.ComplaintStatus) error {
			_, err := s.f.complaints.ResolveComplaint(s.ctx, support1, id, ResolveInput{ExpectedStatus: seen, Comment: "done"})
			return err
		}},
		{domain.EventApprove, func(id string, seen domain.ComplaintStatus) error {
			_, err := s.f.complaints.RespondToResolution(s.ctx, client, id, RespondInput{ExpectedStatus: seen, Action: ActionApprove})
			return err
		}},
		{domain.EventReject, func(id string, seen domain.ComplaintStatus) error {
			_, err := s.f.complaints.RespondToResolution(s.ctx, client, id, RespondInput{ExpectedStatus: seen, Action: ActionReject})
			return err
		}},
	}

	for _, status := range domain.AllStatuses {
		for _, cmd := range commands {
			if _, listed := domain.LookupTransition(status, cmd.event); listed {
				continue
			}
			assignee := "s1"
			if status == domain.StatusPending {
				assignee = ""
			}
			c := s.f.seed("p1", assignee, status, domain.PriorityMedium)

			err := cmd.run(c.ID, status)
			s.Require().Error(err, "%s from %s", cmd.event, status)
			s.ErrorIs(err, apperrors.ErrIllegalTransition, "%s from %s", cmd.event, status)
			s.Equal(status, s.status(c.ID))
			s.Empty(s.history(c.ID))

			var de *apperrors.DomainError
			s.Require().True(errors.As(err, &de))
			s.Equal(string(status), de.Details["current"])
			s.Equal(string(domain.TargetOf(cmd.event)), de.Details["target"])
		}
	}
}

func (s *ComplaintServiceSuite) TestRoleAndGuardViolationsAreIllegal() {
	c := s.create()

	_, err := s.f.complaints.WithdrawComplaint(s.ctx, support1, c.ID, WithdrawInput{ExpectedStatus: domain.StatusPending})
	s.ErrorIs(err, apperrors.ErrIllegalTransition)
	_, err = s.f.complaints.WithdrawComplaint(s.ctx, otherClient, c.ID, WithdrawInput{ExpectedStatus: domain.StatusPending})
	s.ErrorIs(err, apperrors.ErrIllegalTransition)
	_, err = s.f.complaints.AssignComplaint(s.ctx, client, c.ID, AssignInput{ExpectedStatus: domain.StatusPending})
	s.ErrorIs(err, apperrors.ErrIllegalTransition)

	var de *apperrors.DomainError
	s.Require().True(errors.As(err, &de))
	s.Equal([]string{"WITHDRAW"}, de.Details["allowed"])

	_, err = s.f.complaints.AssignComplaint(s.ctx, support1, c.ID, AssignInput{ExpectedStatus: domain.StatusPending, AssigneeID: "s1"})
	s.Require().NoError(err)
	_, err = s.f.complaints.ResolveComplaint(s.ctx, support2, c.ID, ResolveInput{ExpectedStatus: domain.StatusInProgress, Comment: "not mine"})
	s.ErrorIs(err, apperrors.ErrIllegalTransition)
	s.Equal(domain.StatusInProgress, s.status(c.ID))

	_, err = s.f.complaints.CreateComplaint(s.ctx, support1, CreateComplaintInput{ProjectID: "p1", Title: "x"})
	s.ErrorIs(err, apperrors.ErrIllegalTransition)
}

func (s *ComplaintServiceSuite) TestConcurrentTransitionsExactlyOneWins() {
	for i := 0; i < 25; i++ {
		c := s.create()
		start := make(chan struct{})
		var wg sync.WaitGroup
		errs := make([]error, 2)

		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, errs[0] = s.f.complaints.AssignComplaint(s.ctx, support1, c.ID, AssignInput{ExpectedStatus: domain.StatusPending})
		}()
		go func() {
			defer wg.Done()
			<-start
			_, errs[1] = s.f.complaints.WithdrawComplaint(s.ctx, client, c.ID, WithdrawInput{ExpectedStatus: domain.StatusPending})
		}()
		close(start)
		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
				continue
			}
			s.ErrorIs(err, apperrors.ErrConflict)
		}
		s.Equal(1, successes)

		final := s.status(c.ID)
		if errs[0] == nil {
			s.Equal(domain.StatusInProgress, final)
		} else {
			s.Equal(domain.StatusWithdrawn, final)
		}
		s.Len(s.history(c.ID), 2)
	}
}

func (s *ComplaintServiceSuite) TestStaleExpectedStatusConflictsBeforeLegality() {
	c := s.f.seed("p1", "s1", domain.StatusInProgress, domain.PriorityLow)
	_, err := s.f.complaints.WithdrawComplaint(s.ctx, client, c.ID, WithdrawInput{ExpectedStatus: domain.StatusPending})
	s.ErrorIs(err, apperrors.ErrConflict)
	s.Equal(domain.StatusInProgress, s.status(c.ID))
}

func (s *ComplaintServiceSuite) TestExpectedStatusRequired() {
	c := s.create()
	_, err := s.f.complaints.AssignComplaint(s.ctx, support1, c.ID, AssignInput{})
	s.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.f.complaints.WithdrawComplaint(s.ctx, client, c.ID, WithdrawInput{ExpectedStatus: "OPEN"})
	s.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.f.complaints.ForceStatus(s.ctx, admin, c.ID, ForceInput{Target: domain.StatusClosed, Reason: "r", Bypass: true})
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Equal(domain.StatusPending, s.status(c.ID))
	s.Len(s.history(c.ID), 1)
}

func (s *ComplaintServiceSuite) TestOverrideAfterClientRejectConflicts() {
	c := s.f.seed("p1", "s1", domain.StatusResolved, domain.PriorityMedium)

	_, err := s.f.complaints.RespondToResolution(s.ctx, client, c.ID, RespondInput{ExpectedStatus: domain.StatusResolved, Action: ActionReject})
	s.Require().NoError(err)

	_, err = s.f.complaints.ForceStatus(s.ctx, admin, c.ID, ForceInput{
		ExpectedStatus: domain.StatusResolved,
		Target:         domain.StatusClosed,
		Reason:         "client unreachable",
	})
	s.ErrorIs(err, apperrors.ErrConflict)

	var de *apperrors.DomainError
	s.Require().True(errors.As(err, &de))
	s.Equal(string(domain.StatusInProgress), de.Details["actual"])
	s.Equal(domain.StatusInProgress, s.status(c.ID))
	s.Len(s.history(c.ID), 1)
	s.Empty(s.f.recorder.OfType(events.EventStatusForced))
}

func (s *ComplaintServiceSuite) TestResolveRequiresComment() {
	c := s.f.seed("p1", "s1", domain.StatusInProgress, domain.PriorityLow)
	_, err := s.f.complaints.ResolveComplaint(s.ctx, support1, c.ID, ResolveInput{ExpectedStatus: domain.StatusInProgress, Comment: "   "})
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Equal(domain.StatusInProgress, s.status(c.ID))
}

func (s *ComplaintServiceSuite) TestHistoryFailureRollsBackTransition() {
	c := s.create()
	broken := errors.New("ledger unavailable")
	failing := &failingHistoryStore{Store: s.f.store, err: broken}
	svc := NewComplaintService(ComplaintDependencies{
		Store:      failing,
		Assignment: s.f.assignment,
		Dispatcher: s.f.recorder,
	})

	_, err := svc.AssignComplaint(s.ctx, support1, c.ID, AssignInput{ExpectedStatus: domain.StatusPending})
	s.Require().Error(err)
	s.ErrorIs(err, broken)

	stored, err := s.f.store.Complaints().GetByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, stored.Status)
	s.Nil(stored.AssigneeID)
	s.Equal(int64(1), stored.Version)
	s.Len(s.history(c.ID), 1)
	s.Empty(s.f.recorder.OfType(events.EventComplaintAssigned))
}

func (s *ComplaintServiceSuite) TestEmissionFailureDoesNotFailTransition() {
	c := s.create()
	s.f.recorder.Err = errors.New("notifier down")

	updated, err := s.f.complaints.WithdrawComplaint(s.ctx, client, c.ID, WithdrawInput{ExpectedStatus: domain.StatusPending})
	s.Require().NoError(err)
	s.Equal(domain.StatusWithdrawn, updated.Status)
	s.Len(s.f.recorder.OfType(events.EventComplaintWithdrawn), 1)
	s.Equal("withdrawn by client", s.history(c.ID)[1].Message)
}

func (s *ComplaintServiceSuite) TestExplicitAssigneeValidation() {
	cases := []struct {
		assignee string
		want     error
	}{
		{"ghost", apperrors.ErrNotFound},
		{"s9", apperrors.ErrInvalidAssignee},
		{"x1", apperrors.ErrInvalidAssignee},
		{"s3", apperrors.ErrInvalidAssignee},
		{"a1", apperrors.ErrInvalidAssignee},
	}
	for _, tc := range cases {
		c := s.create()
		_, err := s.f.complaints.AssignComplaint(s.ctx, admin, c.ID, AssignInput{ExpectedStatus: domain.StatusPending, AssigneeID: tc.assignee})
		s.ErrorIs(err, tc.want, tc.assignee)
		s.Equal(domain.StatusPending, s.status(c.ID))
		s.Len(s.history(c.ID), 1)
	}

	c := s.create()
	updated, err := s.f.complaints.AssignComplaint(s.ctx, admin, c.ID, AssignInput{ExpectedStatus: domain.StatusPending, AssigneeID: "s2"})
	s.Require().NoError(err)
	s.Equal("s2", updated.Assignee())
	payload, ok := s.f.recorder.OfType(events.EventComplaintAssigned)[0].Payload.(events.ComplaintAssignedPayload)
	s.Require().True(ok)
	s.Equal(SelectionExplicit, payload.Selection)
}

func (s *ComplaintServiceSuite) TestAssignWithoutEligibleStaff() {
	c, err := s.f.complaints.CreateComplaint(s.ctx, client, CreateComplaintInput{ProjectID: "empty", Title: "nobody home"})
	s.Require().NoError(err)
	_, err = s.f.complaints.AssignComplaint(s.ctx, support1, c.ID, AssignInput{ExpectedStatus: domain.StatusPending})
	s.ErrorIs(err, apperrors.ErrNoEligibleStaff)
	s.Equal(domain.StatusPending, s.status(c.ID))
}

func (s *ComplaintServiceSuite) TestAssignUnknownComplaint() {
	_, err := s.f.complaints.AssignComplaint(s.ctx, support1, "missing", AssignInput{ExpectedStatus: domain.StatusPending})
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ComplaintServiceSuite) TestCreateForUnknownProject() {
	_, err := s.f.complaints.CreateComplaint(s.ctx, client, CreateComplaintInput{ProjectID: "nowhere", Title: "lost"})
	s.ErrorIs(err, apperrors.ErrNotFound)

	var de *apperrors.DomainError
	s.Require().True(errors.As(err, &de))
	s.Equal("nowhere", de.Details["project_id"])
	s.Empty(s.f.recorder.Events())

	all, err := s.f.store.Complaints().ListByAssignees(s.ctx, repositoryFilterAll())
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *ComplaintServiceSuite) TestActorRequired() {
	_, err := s.f.complaints.CreateComplaint(s.ctx, domain.Actor{}, CreateComplaintInput{ProjectID: "p1", Title: "x"})
	s.ErrorIs(err, apperrors.ErrUnauthorized)
	_, err = s.f.complaints.CreateComplaint(s.ctx, client, CreateComplaintInput{ProjectID: "p1"})
	s.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.f.complaints.CreateComplaint(s.ctx, client, CreateComplaintInput{ProjectID: "p1", Title: "x", Priority: "URGENT"})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *ComplaintServiceSuite) TestForceStatusRules() {
	c := s.create()

	_, err := s.f.complaints.ForceStatus(s.ctx, admin, c.ID, ForceInput{Target: domain.StatusClosed})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.f.complaints.ForceStatus(s.ctx, support1, c.ID, ForceInput{ExpectedStatus: domain.StatusPending, Target: domain.StatusClosed, Reason: "r"})
	s.ErrorIs(err, apperrors.ErrIllegalTransition)

	_, err = s.f.complaints.ForceStatus(s.ctx, admin, c.ID, ForceInput{ExpectedStatus: domain.StatusPending, Target: domain.StatusPending, Reason: "r", Bypass: true})
	s.ErrorIs(err, apperrors.ErrIllegalTransition)

	resolved, err := s.f.complaints.ForceStatus(s.ctx, admin, c.ID, ForceInput{ExpectedStatus: domain.StatusPending, Target: domain.StatusResolved, Reason: "duplicate of #12"})
	s.Require().NoError(err)
	s.Equal(domain.StatusResolved, resolved.Status)
	s.Equal("s1", resolved.Assignee())
	s.Equal("duplicate of #12", *resolved.ResolutionComment)

	_, err = s.f.complaints.ForceStatus(s.ctx, admin, c.ID, ForceInput{ExpectedStatus: domain.StatusResolved, Target: domain.StatusPending, Reason: "restart"})
	s.ErrorIs(err, apperrors.ErrIllegalTransition)

	closed, err := s.f.complaints.ForceStatus(s.ctx, admin, c.ID, ForceInput{ExpectedStatus: domain.StatusResolved, Target: domain.StatusClosed, Reason: "client unreachable"})
	s.Require().NoError(err)
	s.Equal(domain.StatusClosed, closed.Status)

	_, err = s.f.complaints.ForceStatus(s.ctx, admin, c.ID, ForceInput{ExpectedStatus: domain.StatusClosed, Target: domain.StatusInProgress, Reason: "reopen"})
	s.ErrorIs(err, apperrors.ErrIllegalTransition)

	reopened, err := s.f.complaints.ForceStatus(s.ctx, admin, c.ID, ForceInput{ExpectedStatus: domain.StatusClosed, Target: domain.StatusInProgress, Reason: "reopen", Bypass: true})
	s.Require().NoError(err)
	s.Equal(domain.StatusInProgress, reopened.Status)
	s.Equal("s1", reopened.Assignee())
	s.Equal("duplicate of #12", *reopened.ResolutionComment)

	entries := s.history(c.ID)
	s.Require().Len(entries, 4)
	s.Equal(domain.EventForce, entries[3].Event)
	s.Equal("reopen", entries[3].Message)
	s.Equal(domain.StatusClosed, entries[3].FromStatus)

	forced := s.f.recorder.OfType(events.EventStatusForced)
	s.Len(forced, 3)
	s.True(forced[2].Payload.(events.StatusForcedPayload).Bypass)
}

func (s *ComplaintServiceSuite) TestForceWithExplicitAssignee() {
	c := s.create()
	_, err := s.f.complaints.ForceStatus(s.ctx, admin, c.ID, ForceInput{ExpectedStatus: domain.StatusPending, Target: domain.StatusInProgress, Reason: "escalated", AssigneeID: "s3"})
	s.ErrorIs(err, apperrors.ErrInvalidAssignee)

	updated, err := s.f.complaints.ForceStatus(s.ctx, admin, c.ID, ForceInput{ExpectedStatus: domain.StatusPending, Target: domain.StatusInProgress, Reason: "escalated", AssigneeID: "s2"})
	s.Require().NoError(err)
	s.Equal("s2", updated.Assignee())
}

func (s *ComplaintServiceSuite) TestDeleteComplaint() {
	c := s.create()
	s.ErrorIs(s.f.complaints.DeleteComplaint(s.ctx, support1, c.ID), apperrors.ErrForbidden)
	s.Require().NoError(s.f.complaints.DeleteComplaint(s.ctx, admin, c.ID))

	_, err := s.f.complaints.GetComplaint(s.ctx, admin, c.ID)
	s.ErrorIs(err, apperrors.ErrNotFound)
	entries, err := s.f.store.History().ListByComplaint(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(entries)
	s.ErrorIs(s.f.complaints.DeleteComplaint(s.ctx, admin, c.ID), apperrors.ErrNotFound)
}

func (s *ComplaintServiceSuite) TestReadAccessAndAllowedEvents() {
	c := s.create()

	_, err := s.f.complaints.GetComplaint(s.ctx, otherClient, c.ID)
	s.ErrorIs(err, apperrors.ErrForbidden)
	_, err = s.f.complaints.GetHistory(s.ctx, otherClient, c.ID)
	s.ErrorIs(err, apperrors.ErrForbidden)

	allowed, err := s.f.complaints.ListAllowedEvents(s.ctx, client, c.ID)
	s.Require().NoError(err)
	s.Equal([]domain.Event{domain.EventWithdraw}, allowed)

	allowed, err = s.f.complaints.ListAllowedEvents(s.ctx, admin, c.ID)
	s.Require().NoError(err)
	s.Equal([]domain.Event{domain.EventAssign, domain.EventForce}, allowed)
}

func (s *ComplaintServiceSuite) TestAutoRouteOnCreate() {
	f := newFixture(fixtureOptions{autoRoute: true})
	f.seed("p1", "s1", domain.StatusInProgress, domain.PriorityLow)

	c, err := f.complaints.CreateComplaint(s.ctx, client, CreateComplaintInput{ProjectID: "p1", Title: "routed"})
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, c.Status)
	s.Equal("s2", c.Assignee())

	assigned, err := f.complaints.AssignComplaint(s.ctx, support1, c.ID, AssignInput{ExpectedStatus: domain.StatusPending})
	s.Require().NoError(err)
	s.Equal("s2", assigned.Assignee())
	payload := f.recorder.OfType(events.EventComplaintAssigned)[0].Payload.(events.ComplaintAssignedPayload)
	s.Equal(SelectionRouted, payload.Selection)

	orphan, err := f.complaints.CreateComplaint(s.ctx, client, CreateComplaintInput{ProjectID: "empty", Title: "no staff"})
	s.Require().NoError(err)
	s.Nil(orphan.AssigneeID)
}

func (s *ComplaintServiceSuite) TestRoutedAssigneeReplacedWhenNoLongerEligible() {
	f := newFixture(fixtureOptions{autoRoute: true})
	c, err := f.complaints.CreateComplaint(s.ctx, client, CreateComplaintInput{ProjectID: "p1", Title: "routed"})
	s.Require().NoError(err)
	s.Equal("s1", c.Assignee())

	f.dir.RemoveMember("p1", "s1")
	assigned, err := f.complaints.AssignComplaint(s.ctx, support2, c.ID, AssignInput{ExpectedStatus: domain.StatusPending})
	s.Require().NoError(err)
	s.Equal("s2", assigned.Assignee())
}

func (s *ComplaintServiceSuite) TestActiveComplaintsAlwaysHaveAssignee() {
	for i := 0; i < 4; i++ {
		c := s.create()
		_, err := s.f.complaints.AssignComplaint(s.ctx, support1, c.ID, AssignInput{ExpectedStatus: domain.StatusPending})
		s.Require().NoError(err)
	}
	all, err := s.f.store.Complaints().ListByAssignees(s.ctx, repositoryFilterAll())
	s.Require().NoError(err)
	s.Len(all, 4)
	for _, c := range all {
		if c.Status.RequiresAssignee() {
			s.NotNil(c.AssigneeID)
		}
	}
}
