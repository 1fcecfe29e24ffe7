// Package leads provides the lead management bounded context module.
package leads

import (
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	apphttp "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/http"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/handler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/management"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	management *management.Service
}

func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, members management.MemberDirectory, log *logger.Logger) *Module {
	mgmt := management.New(repository.New(pool), eventBus, members, log)
	return &Module{
		handler:    handler.New(mgmt, val),
		management: mgmt,
	}
}

func (m *Module) Name() string {
	return "leads"
}

// ManagementService exposes lead operations to the import, webhook, export and
// assistant modules.
func (m *Module) ManagementService() *management.Service {
	return m.management
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

var _ apphttp.Module = (*Module)(nil)
