// Package appointments provides the appointments domain module.
package appointments

import (
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/appointments/handler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/appointments/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/appointments/service"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	apphttp "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/http"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/scheduler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the appointments domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new appointments module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, eventBus events.Bus, leads service.LeadReference, members service.MemberDirectory, reminders scheduler.ReminderScheduler, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, members, eventBus, reminders, log)

	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "appointments"
}

// RegisterRoutes registers the module's routes under /api/v1/appointments
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/appointments"))
}

var _ apphttp.Module = (*Module)(nil)
