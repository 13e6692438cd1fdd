package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "PENDING"
	StatusInProgress ComplaintStatus = "IN_PROGRESS"
	StatusResolved   ComplaintStatus = "RESOLVED"
	StatusClosed     ComplaintStatus = "CLOSED"
	StatusWithdrawn  ComplaintStatus = "WITHDRAWN"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []ComplaintStatus{
	StatusPending,
	StatusInProgress,
	StatusResolved,
	StatusClosed,
	StatusWithdrawn,
}

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed, StatusWithdrawn:
		return true
	}
	return false
}

// IsTerminal reports whether no regular transition leaves s.
func (s ComplaintStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusWithdrawn
}

// RequiresAssignee reports whether a complaint in s must carry an assignee.
func (s ComplaintStatus) RequiresAssignee() bool {
	return s == StatusInProgress || s == StatusResolved
}

// ComplaintPriority enumerates urgency levels.
type ComplaintPriority string

const (
	PriorityLow      ComplaintPriority = "LOW"
	PriorityMedium   ComplaintPriority = "MEDIUM"
	PriorityHigh     ComplaintPriority = "HIGH"
	PriorityCritical ComplaintPriority = "CRITICAL"
)

// Valid reports whether p is a known priority.
func (p ComplaintPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Weight is the load contribution of a complaint with priority p.
func (p ComplaintPriority) Weight() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 0
	}
}

// Complaint is the aggregate root for a client-reported issue.
type Complaint struct {
	ID                string
	ProjectID         string
	ClientID          string
	Title             string
	Description       string
	Status            ComplaintStatus
	Priority          ComplaintPriority
	AssigneeID        *string
	ResolutionComment *string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Clone returns a deep copy so callers never share pointer fields.
func (c *Complaint) Clone() *Complaint {
	if c == nil {
		return nil
	}
	cp := *c
	if c.AssigneeID != nil {
		v := *c.AssigneeID
		cp.AssigneeID = &v
	}
	if c.ResolutionComment != nil {
		v := *c.ResolutionComment
		cp.ResolutionComment = &v
	}
	return &cp
}

// IsAssignedTo reports whether staffID currently owns the complaint.
func (c *Complaint) IsAssignedTo(staffID string) bool {
	return c.AssigneeID != nil && *c.AssigneeID == staffID
}

// Assignee returns the assignee id or an empty string.
func (c *Complaint) Assignee() string {
	if c.AssigneeID == nil {
		return ""
	}
	return *c.AssigneeID
}
