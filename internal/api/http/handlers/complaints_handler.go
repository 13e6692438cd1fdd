package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
)

// ComplaintsHandler exposes the complaint lifecycle.
type ComplaintsHandler struct {
	service *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{service: complaintService}
}

// CreateComplaint POST /complaints.
func (h *ComplaintsHandler) CreateComplaint(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateComplaintRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	complaint, err := h.service.CreateComplaint(c.UserContext(), actor, service.CreateComplaintInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// GetComplaint GET /complaints/:id.
func (h *ComplaintsHandler) GetComplaint(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	complaint, err := h.service.GetComplaint(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// ListAllowedEvents GET /complaints/:id/events.
func (h *ComplaintsHandler) ListAllowedEvents(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	allowed, err := h.service.ListAllowedEvents(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	if allowed == nil {
		allowed = []domain.Event{}
	}
	return c.JSON(fiber.Map{"data": allowed})
}

// AssignComplaint POST /complaints/:id/assign.
func (h *ComplaintsHandler) AssignComplaint(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AssignComplaintRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	complaint, err := h.service.AssignComplaint(c.UserContext(), actor, c.Params("id"), service.AssignInput{
		ExpectedStatus: req.ExpectedStatus,
		AssigneeID:     req.AssigneeID,
	})
	return respond(c, complaint, err)
}

// ResolveComplaint POST /complaints/:id/resolve.
func (h *ComplaintsHandler) ResolveComplaint(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ResolveComplaintRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	complaint, err := h.service.ResolveComplaint(c.UserContext(), actor, c.Params("id"), service.ResolveInput{
		ExpectedStatus: req.ExpectedStatus,
		Comment:        req.Comment,
	})
	return respond(c, complaint, err)
}

// RespondToResolution POST /complaints/:id/respond.
func (h *ComplaintsHandler) RespondToResolution(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.RespondComplaintRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	complaint, err := h.service.RespondToResolution(c.UserContext(), actor, c.Params("id"), service.RespondInput{
		ExpectedStatus: req.ExpectedStatus,
		Action:         service.ResponseAction(req.Action),
		Feedback:       req.Feedback,
	})
	return respond(c, complaint, err)
}

// WithdrawComplaint POST /complaints/:id/withdraw.
func (h *ComplaintsHandler) WithdrawComplaint(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.WithdrawComplaintRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	complaint, err := h.service.WithdrawComplaint(c.UserContext(), actor, c.Params("id"), service.WithdrawInput{
		ExpectedStatus: req.ExpectedStatus,
		Reason:         req.Reason,
	})
	return respond(c, complaint, err)
}

// ForceStatus POST /complaints/:id/force.
func (h *ComplaintsHandler) ForceStatus(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ForceStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	complaint, err := h.service.ForceStatus(c.UserContext(), actor, c.Params("id"), service.ForceInput{
		ExpectedStatus: req.ExpectedStatus,
		Target:         req.Target,
		Reason:         req.Reason,
		Bypass:         req.Bypass,
		AssigneeID:     req.AssigneeID,
	})
	return respond(c, complaint, err)
}

// DeleteComplaint DELETE /complaints/:id.
func (h *ComplaintsHandler) DeleteComplaint(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteComplaint(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetHistory GET /complaints/:id/history.
func (h *ComplaintsHandler) GetHistory(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	entries, err := h.service.GetHistory(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponse(entries)})
}

func respond(c *fiber.Ctx, complaint *domain.Complaint, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}
