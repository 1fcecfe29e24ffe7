package exports

import (
	apphttp "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/http"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"
)

type Module struct {
	handler *Handler
}

func NewModule(leads LeadLister, members MemberLister, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{handler: NewHandler(NewService(leads, members, log), val, log)}
}

func (m *Module) Name() string {
	return "exports"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/exports")
	group.GET("/leads.csv", m.handler.ExportLeadsCSV)
	group.GET("/leads.xlsx", m.handler.ExportLeadsXLSX)
}

var _ apphttp.Module = (*Module)(nil)
