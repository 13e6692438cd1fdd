package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/service"
)

// WorkloadHandler exposes staff load and balancing.
type WorkloadHandler struct {
	workload   *service.WorkloadService
	assignment *service.AssignmentService
}

// NewWorkloadHandler constructs handler.
func NewWorkloadHandler(workload *service.WorkloadService, assignment *service.AssignmentService) *WorkloadHandler {
	return &WorkloadHandler{workload: workload, assignment: assignment}
}

// GetWorkload GET /workload?project_id=.
func (h *WorkloadHandler) GetWorkload(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	snapshots, err := h.workload.GetWorkload(c.UserContext(), actor, c.Query("project_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkloadResponse(snapshots)})
}

// BalanceWorkload POST /workload/balance.
func (h *WorkloadHandler) BalanceWorkload(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	report, err := h.assignment.BalanceWorkload(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBalanceReportResponse(report)})
}
