package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated    EventType = "CREATED"
	EventComplaintAssigned   EventType = "ASSIGNED"
	EventComplaintWithdrawn  EventType = "WITHDRAWN"
	EventComplaintResolved   EventType = "RESOLVED"
	EventComplaintClosed     EventType = "CLOSED"
	EventComplaintReopened   EventType = "REOPENED"
	EventStatusForced        EventType = "STATUS_FORCED"
	EventComplaintReassigned EventType = "REASSIGNED"
)

// AllTypes lists every event type the service emits.
var AllTypes = []EventType{
	EventComplaintCreated,
	EventComplaintAssigned,
	EventComplaintWithdrawn,
	EventComplaintResolved,
	EventComplaintClosed,
	EventComplaintReopened,
	EventStatusForced,
	EventComplaintReassigned,
}

var typeByCommand = map[domain.Event]EventType{
	domain.EventCreate:   EventComplaintCreated,
	domain.EventAssign:   EventComplaintAssigned,
	domain.EventWithdraw: EventComplaintWithdrawn,
	domain.EventResolve:  EventComplaintResolved,
	domain.EventApprove:  EventComplaintClosed,
	domain.EventReject:   EventComplaintReopened,
	domain.EventForce:    EventStatusForced,
}

// TypeFor maps a lifecycle command to the event it emits.
func TypeFor(command domain.Event) (EventType, bool) {
	t, ok := typeByCommand[command]
	return t, ok
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string           `json:"id"`
	Role domain.ActorRole `json:"role"`
}

// Event represents a domain event emitted after a committed change.
type Event struct {
	ID          string                 `json:"id"`
	Type        EventType              `json:"type"`
	ComplaintID string                 `json:"complaint_id"`
	ProjectID   string                 `json:"project_id"`
	FromStatus  domain.ComplaintStatus `json:"from_status,omitempty"`
	ToStatus    domain.ComplaintStatus `json:"to_status"`
	Actor       Actor                  `json:"actor"`
	Timestamp   time.Time              `json:"timestamp"`
	Payload     interface{}            `json:"payload,omitempty"`
}

// New builds an event for complaint c with a fresh id.
func New(eventType EventType, c *domain.Complaint, from domain.ComplaintStatus, actor domain.Actor, at time.Time, payload interface{}) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		ComplaintID: c.ID,
		ProjectID:   c.ProjectID,
		FromStatus:  from,
		ToStatus:    c.Status,
		Actor:       Actor{ID: actor.ID, Role: actor.Role},
		Timestamp:   at,
		Payload:     payload,
	}
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	Title      string                   `json:"title"`
	Priority   domain.ComplaintPriority `json:"priority"`
	AssigneeID *string                  `json:"assignee_id,omitempty"`
}

// ComplaintAssignedPayload payload. Selection is explicit, auto or routed.
type ComplaintAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
	Selection  string `json:"selection"`
}

// ComplaintResolvedPayload payload.
type ComplaintResolvedPayload struct {
	ResolutionComment string `json:"resolution_comment"`
}

// ComplaintReopenedPayload payload.
type ComplaintReopenedPayload struct {
	Feedback string `json:"feedback,omitempty"`
}

// ComplaintWithdrawnPayload payload.
type ComplaintWithdrawnPayload struct {
	Reason string `json:"reason,omitempty"`
}

// StatusForcedPayload payload.
type StatusForcedPayload struct {
	Reason     string  `json:"reason"`
	Bypass     bool    `json:"bypass"`
	AssigneeID *string `json:"assignee_id,omitempty"`
}

// ComplaintReassignedPayload payload.
type ComplaintReassignedPayload struct {
	PreviousAssigneeID string `json:"previous_assignee_id"`
	NewAssigneeID      string `json:"new_assignee_id"`
}
