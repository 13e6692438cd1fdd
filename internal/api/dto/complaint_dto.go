package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	ProjectID   string                   `json:"project_id" validate:"required,max=64"`
	Title       string                   `json:"title" validate:"required,max=200"`
	Description string                   `json:"description"`
	Priority    domain.ComplaintPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
}

// AssignComplaintRequest payload. An empty assignee lets the engine pick.
type AssignComplaintRequest struct {
	ExpectedStatus domain.ComplaintStatus `json:"expected_status" validate:"required,complaint_status"`
	AssigneeID     string                 `json:"assignee_id" validate:"omitempty,max=64"`
}

// ResolveComplaintRequest payload.
type ResolveComplaintRequest struct {
	ExpectedStatus domain.ComplaintStatus `json:"expected_status" validate:"required,complaint_status"`
	Comment        string                 `json:"comment" validate:"required"`
}

// RespondComplaintRequest payload.
type RespondComplaintRequest struct {
	ExpectedStatus domain.ComplaintStatus `json:"expected_status" validate:"required,complaint_status"`
	Action         string                 `json:"action" validate:"required,oneof=APPROVE REJECT"`
	Feedback       string                 `json:"feedback"`
}

// WithdrawComplaintRequest payload.
type WithdrawComplaintRequest struct {
	ExpectedStatus domain.ComplaintStatus `json:"expected_status" validate:"required,complaint_status"`
	Reason         string                 `json:"reason"`
}

// ForceStatusRequest payload for the admin override.
type ForceStatusRequest struct {
	ExpectedStatus domain.ComplaintStatus `json:"expected_status" validate:"required,complaint_status"`
	Target         domain.ComplaintStatus `json:"target" validate:"required,complaint_status"`
	Reason         string                 `json:"reason" validate:"required"`
	Bypass         bool                   `json:"bypass"`
	AssigneeID     string                 `json:"assignee_id" validate:"omitempty,max=64"`
}

// ComplaintResponse is the public view of a complaint.
type ComplaintResponse struct {
	ID                string                   `json:"id"`
	ProjectID         string                   `json:"project_id"`
	ClientID          string                   `json:"client_id"`
	Title             string                   `json:"title"`
	Description       string                   `json:"description"`
	Status            domain.ComplaintStatus   `json:"status"`
	Priority          domain.ComplaintPriority `json:"priority"`
	AssigneeID        *string                  `json:"assignee_id"`
	ResolutionComment *string                  `json:"resolution_comment"`
	Version           int64                    `json:"version"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

// HistoryEntryResponse represents one ledger row.
type HistoryEntryResponse struct {
	ID         string                 `json:"id"`
	Sequence   int64                  `json:"sequence"`
	Event      domain.Event           `json:"event"`
	FromStatus domain.ComplaintStatus `json:"from_status"`
	ToStatus   domain.ComplaintStatus `json:"to_status"`
	ActorID    string                 `json:"actor_id"`
	ActorRole  domain.ActorRole       `json:"actor_role"`
	Message    string                 `json:"message"`
	CreatedAt  time.Time              `json:"created_at"`
}

// WorkloadResponse is one staff member's load.
type WorkloadResponse struct {
	StaffID              string  `json:"staff_id"`
	ActiveComplaintCount int     `json:"active_complaint_count"`
	WeightedLoad         int     `json:"weighted_load"`
	WorkloadPercentage   float64 `json:"workload_percentage"`
}

// ReassignmentResponse describes one balanced complaint.
type ReassignmentResponse struct {
	ComplaintID string `json:"complaint_id"`
	FromStaffID string `json:"from_staff_id"`
	ToStaffID   string `json:"to_staff_id"`
}

// BalanceReportResponse summarizes a balancing run. Before is the
// workload the run started from.
type BalanceReportResponse struct {
	Mean    float64                `json:"mean"`
	Before  []WorkloadResponse     `json:"before"`
	Moved   []ReassignmentResponse `json:"moved"`
	Skipped int                    `json:"skipped"`
}

// NewComplaintResponse maps the aggregate.
func NewComplaintResponse(c *domain.Complaint) ComplaintResponse {
	return ComplaintResponse{
		ID:                c.ID,
		ProjectID:         c.ProjectID,
		ClientID:          c.ClientID,
		Title:             c.Title,
		Description:       c.Description,
		Status:            c.Status,
		Priority:          c.Priority,
		AssigneeID:        c.AssigneeID,
		ResolutionComment: c.ResolutionComment,
		Version:           c.Version,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// NewHistoryResponse maps ledger entries in order.
func NewHistoryResponse(entries []domain.HistoryEntry) []HistoryEntryResponse {
	items := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryEntryResponse{
			ID:         e.ID,
			Sequence:   e.Sequence,
			Event:      e.Event,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			ActorID:    e.ActorID,
			ActorRole:  e.ActorRole,
			Message:    e.Message,
			CreatedAt:  e.CreatedAt,
		})
	}
	return items
}

// NewWorkloadResponse maps snapshots.
func NewWorkloadResponse(snapshots []domain.WorkloadSnapshot) []WorkloadResponse {
	items := make([]WorkloadResponse, 0, len(snapshots))
	for _, s := range snapshots {
		items = append(items, WorkloadResponse{
			StaffID:              s.StaffID,
			ActiveComplaintCount: s.ActiveComplaintCount,
			WeightedLoad:         s.WeightedLoad,
			WorkloadPercentage:   s.WorkloadPercentage,
		})
	}
	return items
}

// NewBalanceReportResponse maps a balancing report.
func NewBalanceReportResponse(r *domain.BalanceReport) BalanceReportResponse {
	resp := BalanceReportResponse{Before: []WorkloadResponse{}, Moved: []ReassignmentResponse{}}
	if r == nil {
		return resp
	}
	resp.Mean = r.Mean
	resp.Before = NewWorkloadResponse(r.Before)
	resp.Skipped = r.Skipped
	for _, m := range r.Moved {
		resp.Moved = append(resp.Moved, ReassignmentResponse{ComplaintID: m.ComplaintID, FromStaffID: m.FromStaffID, ToStaffID: m.ToStaffID})
	}
	return resp
}
