package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Complaints     *handlers.ComplaintsHandler
	Workload       *handlers.WorkloadHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes. Lifecycle routes carry no role guard:
// the transition table decides and reports the allowed events.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	complaints := app.Group("/complaints", cfg.AuthMiddleware.Handle)
	complaints.Post("/", cfg.Complaints.CreateComplaint)
	complaints.Get("/:id", cfg.Complaints.GetComplaint)
	complaints.Get("/:id/events", cfg.Complaints.ListAllowedEvents)
	complaints.Get("/:id/history", cfg.Complaints.GetHistory)
	complaints.Post("/:id/assign", cfg.Complaints.AssignComplaint)
	complaints.Post("/:id/resolve", cfg.Complaints.ResolveComplaint)
	complaints.Post("/:id/respond", cfg.Complaints.RespondToResolution)
	complaints.Post("/:id/withdraw", cfg.Complaints.WithdrawComplaint)
	complaints.Post("/:id/force", cfg.Complaints.ForceStatus)
	complaints.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Complaints.DeleteComplaint)

	workload := app.Group("/workload", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	workload.Get("/", cfg.Workload.GetWorkload)
	workload.Post("/balance", auth.RequireRole(domain.RoleAdmin), cfg.Workload.BalanceWorkload)
}
