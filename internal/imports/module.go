// Package imports loads leads from CSV and XLSX spreadsheets.
package imports

import (
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters/storage"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	apphttp "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/http"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/imports/handler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/imports/service"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"
)

type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule wires the import endpoints. archiver may be nil.
func NewModule(leads service.LeadImporter, members service.MemberLister, archiver storage.Archiver, bucket string, val *validator.Validator, eventBus events.Bus, log *logger.Logger) *Module {
	svc := service.New(leads, members, archiver, bucket, eventBus, log)
	return &Module{handler: handler.New(svc, val), Service: svc}
}

func (m *Module) Name() string {
	return "imports"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/imports"))
}

var _ apphttp.Module = (*Module)(nil)
