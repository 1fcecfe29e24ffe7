// Package team provides the team-member bounded context.
package team

import (
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	apphttp "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/http"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/team/handler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/team/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/team/service"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator) *Module {
	svc := service.New(repository.New(pool), bus)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "team"
}

// Service exposes member lookups to adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/team"))
}

var _ apphttp.Module = (*Module)(nil)
