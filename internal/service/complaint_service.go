package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// ComplaintService drives the complaint lifecycle. Each command reads the
// complaint, checks the transition table, writes the new state with a
// compare-and-update and appends one history entry in a single
// transaction, then emits the event.
type ComplaintService struct {
	store      repository.Store
	assignment *AssignmentService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	autoRoute  bool
}

// ComplaintDependencies bundles collaborators for the lifecycle service.
type ComplaintDependencies struct {
	Store             repository.Store
	Assignment        *AssignmentService
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
	Metrics           *observability.Metrics
	AutoRouteOnCreate bool
}

// CreateComplaintInput describes complaint creation payload.
type CreateComplaintInput struct {
	ProjectID   string
	Title       string
	Description string
	Priority    domain.ComplaintPriority
}

// AssignInput starts work on a PENDING complaint.
type AssignInput struct {
	ExpectedStatus domain.ComplaintStatus
	AssigneeID     string
}

// ResolveInput closes out the work with a comment.
type ResolveInput struct {
	ExpectedStatus domain.ComplaintStatus
	Comment        string
}

// ResponseAction is the client's verdict on a resolution.
type ResponseAction string

const (
	ActionApprove ResponseAction = "APPROVE"
	ActionReject  ResponseAction = "REJECT"
)

// RespondInput carries the client's verdict.
type RespondInput struct {
	ExpectedStatus domain.ComplaintStatus
	Action         ResponseAction
	Feedback       string
}

// WithdrawInput cancels a PENDING complaint.
type WithdrawInput struct {
	ExpectedStatus domain.ComplaintStatus
	Reason         string
}

// ForceInput is the admin override. Without Bypass the target must be
// reachable from the current status through regular edges.
type ForceInput struct {
	ExpectedStatus domain.ComplaintStatus
	Target         domain.ComplaintStatus
	Reason         string
	Bypass         bool
	AssigneeID     string
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		store:      deps.Store,
		assignment: deps.Assignment,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		autoRoute:  deps.AutoRouteOnCreate,
	}
}

// CreateComplaint files a new PENDING complaint owned by actor.
func (s *ComplaintService) CreateComplaint(ctx context.Context, actor domain.Actor, input CreateComplaintInput) (*domain.Complaint, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	complaint := &domain.Complaint{
		ProjectID:   strings.TrimSpace(input.ProjectID),
		ClientID:    actor.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.StatusPending,
		Priority:    input.Priority,
	}
	if complaint.Priority == "" {
		complaint.Priority = domain.PriorityMedium
	}
	if complaint.ProjectID == "" || complaint.Title == "" {
		return nil, apperrors.NewValidationError("project_id and title required", nil)
	}
	if !complaint.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": complaint.Priority})
	}
	create, _ := domain.LookupTransition("", domain.EventCreate)
	if !create.Allows(actor, complaint) {
		s.metrics.RecordTransition(string(domain.EventCreate), apperrors.CodeIllegalTransition)
		return nil, apperrors.NewIllegalTransition("", string(domain.StatusPending), string(domain.EventCreate), []string{})
	}
	if err := s.assignment.RequireProject(ctx, complaint.ProjectID); err != nil {
		s.metrics.RecordTransition(string(domain.EventCreate), outcomeOf(err))
		return nil, err
	}
	eventType, _ := events.TypeFor(domain.EventCreate)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		message := "complaint created"
		if s.autoRoute {
			routed, err := s.assignment.SelectLeastLoaded(ctx, tx.Complaints(), complaint.ProjectID)
			switch {
			case errors.Is(err, apperrors.ErrNoEligibleStaff):
				s.logger.Info("no eligible staff to route complaint", zap.String("project_id", complaint.ProjectID))
			case err != nil:
				return err
			default:
				complaint.AssigneeID = &routed
				message = fmt.Sprintf("complaint created and routed to %s", routed)
			}
		}
		if err := tx.Complaints().Create(ctx, complaint); err != nil {
			return err
		}
		return tx.History().Append(ctx, &domain.HistoryEntry{
			ComplaintID: complaint.ID,
			Event:       domain.EventCreate,
			ToStatus:    complaint.Status,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			Message:     message,
		})
	})
	s.metrics.RecordTransition(string(domain.EventCreate), outcomeOf(err))
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	emit(ctx, s.dispatcher, s.logger, s.metrics, events.New(eventType, complaint, "", actor, complaint.CreatedAt,
		events.ComplaintCreatedPayload{Title: complaint.Title, Priority: complaint.Priority, AssigneeID: complaint.AssigneeID}))
	s.logger.Info("complaint created",
		zap.String("complaint_id", complaint.ID),
		zap.String("project_id", complaint.ProjectID),
		zap.String("client_id", complaint.ClientID))
	return complaint, nil
}

// AssignComplaint moves a PENDING complaint to IN_PROGRESS through the
// assignment engine.
func (s *ComplaintService) AssignComplaint(ctx context.Context, actor domain.Actor, complaintID string, input AssignInput) (*domain.Complaint, error) {
	return s.execute(ctx, actor, complaintID, input.ExpectedStatus, domain.EventAssign,
		func(ctx context.Context, tx repository.Store, current *domain.Complaint) (*plan, error) {
			t, err := checkTransition(current, domain.EventAssign, actor)
			if err != nil {
				return nil, err
			}
			assignee, selection, err := s.assignment.Choose(ctx, tx.Complaints(), current, strings.TrimSpace(input.AssigneeID))
			if err != nil {
				return nil, err
			}
			return &plan{
				mutate: func(c *domain.Complaint) error {
					c.Status = t.To
					c.AssigneeID = &assignee
					return nil
				},
				message:   fmt.Sprintf("assigned to %s", assignee),
				payload:   events.ComplaintAssignedPayload{AssigneeID: assignee, Selection: selection},
				selection: selection,
			}, nil
		})
}

// ResolveComplaint records the assignee's resolution.
func (s *ComplaintService) ResolveComplaint(ctx context.Context, actor domain.Actor, complaintID string, input ResolveInput) (*domain.Complaint, error) {
	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, apperrors.NewValidationError("resolution comment required", nil)
	}
	return s.execute(ctx, actor, complaintID, input.ExpectedStatus, domain.EventResolve,
		func(_ context.Context, _ repository.Store, current *domain.Complaint) (*plan, error) {
			t, err := checkTransition(current, domain.EventResolve, actor)
			if err != nil {
				return nil, err
			}
			return &plan{
				mutate: func(c *domain.Complaint) error {
					c.Status = t.To
					c.ResolutionComment = &comment
					return nil
				},
				message:   comment,
				payload:   events.ComplaintResolvedPayload{ResolutionComment: comment},
			}, nil
		})
}

// RespondToResolution approves (CLOSED) or rejects (back to IN_PROGRESS)
// a resolution. A rejection keeps the previous resolution comment until
// the next resolve overwrites it.
func (s *ComplaintService) RespondToResolution(ctx context.Context, actor domain.Actor, complaintID string, input RespondInput) (*domain.Complaint, error) {
	feedback := strings.TrimSpace(input.Feedback)
	var event domain.Event
	switch ResponseAction(strings.ToUpper(string(input.Action))) {
	case ActionApprove:
		event = domain.EventApprove
	case ActionReject:
		event = domain.EventReject
	default:
		return nil, apperrors.NewValidationError("action must be APPROVE or REJECT", map[string]any{"action": input.Action})
	}

	return s.execute(ctx, actor, complaintID, input.ExpectedStatus, event,
		func(_ context.Context, _ repository.Store, current *domain.Complaint) (*plan, error) {
			t, err := checkTransition(current, event, actor)
			if err != nil {
				return nil, err
			}
			p := &plan{
				mutate: func(c *domain.Complaint) error {
					c.Status = t.To
					return nil
				},
			}
			if event == domain.EventApprove {
				p.message = withDefault(feedback, "resolution approved by client")
				return p, nil
			}
			p.message = withDefault(feedback, "resolution rejected by client")
			p.payload = events.ComplaintReopenedPayload{Feedback: feedback}
			return p, nil
		})
}

// WithdrawComplaint lets the owner cancel a complaint nobody started.
func (s *ComplaintService) WithdrawComplaint(ctx context.Context, actor domain.Actor, complaintID string, input WithdrawInput) (*domain.Complaint, error) {
	reason := strings.TrimSpace(input.Reason)
	return s.execute(ctx, actor, complaintID, input.ExpectedStatus, domain.EventWithdraw,
		func(_ context.Context, _ repository.Store, current *domain.Complaint) (*plan, error) {
			t, err := checkTransition(current, domain.EventWithdraw, actor)
			if err != nil {
				return nil, err
			}
			return &plan{
				mutate: func(c *domain.Complaint) error {
					c.Status = t.To
					return nil
				},
				message:   withDefault(reason, "withdrawn by client"),
				payload:   events.ComplaintWithdrawnPayload{Reason: reason},
			}, nil
		})
}

// ForceStatus is the ADMIN override. It works from any status, terminal
// ones included, but never to the current status.
func (s *ComplaintService) ForceStatus(ctx context.Context, actor domain.Actor, complaintID string, input ForceInput) (*domain.Complaint, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason required for status override", nil)
	}
	target := domain.ComplaintStatus(strings.ToUpper(string(input.Target)))
	if !target.Valid() {
		return nil, apperrors.NewValidationError("invalid target status", map[string]any{"target": input.Target})
	}
	explicit := strings.TrimSpace(input.AssigneeID)

	return s.execute(ctx, actor, complaintID, input.ExpectedStatus, domain.EventForce,
		func(ctx context.Context, tx repository.Store, current *domain.Complaint) (*plan, error) {
			if actor.Role != domain.RoleAdmin || target == current.Status || (!input.Bypass && !domain.Reachable(current.Status, target)) {
				return nil, apperrors.NewIllegalTransition(string(current.Status), string(target), string(domain.EventForce),
					eventNames(domain.AllowedEventsFor(current, actor)))
			}

			assignee := current.Assignee()
			selection := ""
			switch {
			case explicit != "":
				if err := s.assignment.ValidateExplicit(ctx, explicit, current.ProjectID); err != nil {
					return nil, err
				}
				assignee, selection = explicit, SelectionExplicit
			case target.RequiresAssignee() && assignee == "":
				picked, err := s.assignment.SelectLeastLoaded(ctx, tx.Complaints(), current.ProjectID)
				if err != nil {
					return nil, err
				}
				assignee, selection = picked, SelectionAuto
			}

			payload := events.StatusForcedPayload{Reason: reason, Bypass: input.Bypass}
			if selection != "" {
				payload.AssigneeID = &assignee
			}
			return &plan{
				mutate: func(c *domain.Complaint) error {
					c.Status = target
					if assignee != "" {
						c.AssigneeID = &assignee
					}
					if target == domain.StatusResolved {
						c.ResolutionComment = &reason
					}
					return nil
				},
				message:   reason,
				payload:   payload,
				selection: selection,
			}, nil
		})
}

// DeleteComplaint removes a complaint and its history. ADMIN only.
func (s *ComplaintService) DeleteComplaint(ctx context.Context, actor domain.Actor, complaintID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("only ADMIN may delete complaints")
	}
	if err := s.store.Complaints().Delete(ctx, complaintID); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("complaint deleted", zap.String("complaint_id", complaintID), zap.String("actor_id", actor.ID))
	return nil
}

// GetComplaint returns a complaint the actor may see. Clients only see
// their own.
func (s *ComplaintService) GetComplaint(ctx context.Context, actor domain.Actor, complaintID string) (*domain.Complaint, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	complaint, err := s.store.Complaints().GetByID(ctx, complaintID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if actor.Role == domain.RoleClient && complaint.ClientID != actor.ID {
		return nil, apperrors.NewForbidden("complaint belongs to another client")
	}
	return complaint, nil
}

// ListAllowedEvents reports what actor may fire on the complaint now.
func (s *ComplaintService) ListAllowedEvents(ctx context.Context, actor domain.Actor, complaintID string) ([]domain.Event, error) {
	complaint, err := s.GetComplaint(ctx, actor, complaintID)
	if err != nil {
		return nil, err
	}
	return domain.AllowedEventsFor(complaint, actor), nil
}

// GetHistory returns the complaint's timeline oldest first.
func (s *ComplaintService) GetHistory(ctx context.Context, actor domain.Actor, complaintID string) ([]domain.HistoryEntry, error) {
	if _, err := s.GetComplaint(ctx, actor, complaintID); err != nil {
		return nil, err
	}
	entries, err := s.store.History().ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// plan is what a command decided inside the transaction.
type plan struct {
	mutate    repository.Mutator
	message   string
	payload   any
	selection string
}

type decider func(ctx context.Context, tx repository.Store, current *domain.Complaint) (*plan, error)

func (s *ComplaintService) execute(ctx context.Context, actor domain.Actor, complaintID string, expected domain.ComplaintStatus, event domain.Event, decide decider) (*domain.Complaint, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if expected == "" {
		return nil, apperrors.NewValidationError("expected_status required", map[string]any{"event": string(event)})
	}
	if !expected.Valid() {
		return nil, apperrors.NewValidationError("invalid expected_status", map[string]any{"expected_status": expected})
	}
	eventType, ok := events.TypeFor(event)
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Errorf("no event type for %s", event))
	}

	var (
		from    domain.ComplaintStatus
		updated *domain.Complaint
		p       *plan
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := tx.Complaints().GetByID(ctx, complaintID)
		if err != nil {
			return err
		}
		if current.Status != expected {
			return apperrors.NewConflict("complaint status changed since it was read", map[string]any{
				"complaint_id": complaintID,
				"expected":     string(expected),
				"actual":       string(current.Status),
			})
		}
		p, err = decide(ctx, tx, current)
		if err != nil {
			return err
		}
		updated, err = tx.Complaints().CompareAndUpdate(ctx, complaintID, current.Status, checked(p.mutate))
		if err != nil {
			return err
		}
		from = current.Status
		return tx.History().Append(ctx, &domain.HistoryEntry{
			ComplaintID: complaintID,
			Event:       event,
			FromStatus:  from,
			ToStatus:    updated.Status,
			ActorID:     actor.ID,
			ActorRole:   actor.Role,
			Message:     p.message,
		})
	})
	s.metrics.RecordTransition(string(event), outcomeOf(err))
	if err != nil {
		s.logger.Debug("transition rejected",
			zap.String("complaint_id", complaintID),
			zap.String("event", string(event)),
			zap.Error(err))
		return nil, apperrors.MapError(err)
	}
	if p.selection != "" {
		s.metrics.RecordAssignment(p.selection)
	}

	emit(ctx, s.dispatcher, s.logger, s.metrics, events.New(eventType, updated, from, actor, updated.UpdatedAt, p.payload))
	s.logger.Info("complaint transitioned",
		zap.String("complaint_id", complaintID),
		zap.String("event", string(event)),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)),
		zap.String("actor_id", actor.ID))
	return updated, nil
}

func checkTransition(current *domain.Complaint, event domain.Event, actor domain.Actor) (domain.Transition, error) {
	t, ok := domain.LookupTransition(current.Status, event)
	if !ok || !t.Allows(actor, current) {
		return domain.Transition{}, apperrors.NewIllegalTransition(
			string(current.Status),
			string(domain.TargetOf(event)),
			string(event),
			eventNames(domain.AllowedEventsFor(current, actor)))
	}
	return t, nil
}

// checked refuses any write that would leave an active complaint without
// an assignee.
func checked(mutate repository.Mutator) repository.Mutator {
	return func(c *domain.Complaint) error {
		if err := mutate(c); err != nil {
			return err
		}
		if c.Status.RequiresAssignee() && c.AssigneeID == nil {
			return apperrors.NewInternalError(fmt.Errorf("complaint %s would enter %s without assignee", c.ID, c.Status))
		}
		return nil
	}
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
