// Package tasks provides the follow-up task module.
package tasks

import (
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	apphttp "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/http"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/scheduler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/tasks/handler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/tasks/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/tasks/service"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	Service *service.Service
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, eventBus events.Bus, leads service.LeadReference, members service.MemberDirectory, due scheduler.TaskDueScheduler, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), leads, members, eventBus, due, log)
	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

func (m *Module) Name() string {
	return "tasks"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/tasks"))
}

var _ apphttp.Module = (*Module)(nil)
