package webhook

import (
	apphttp "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/http"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *Handler
	service *Service
}

func NewModule(pool *pgxpool.Pool, leads LeadCapturer, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(NewRepository(pool), leads, log)
	return &Module{handler: NewHandler(svc, val), service: svc}
}

func (m *Module) Name() string { return "webhook" }

func (m *Module) Service() *Service { return m.service }

// RegisterRoutes mounts key management under /admin and the public capture
// endpoint under /webhook.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	keys := ctx.Admin.Group("/webhook/keys")
	keys.POST("", m.handler.HandleCreateAPIKey)
	keys.GET("", m.handler.HandleListAPIKeys)
	keys.DELETE("/:keyId", m.handler.HandleRevokeAPIKey)

	public := ctx.V1.Group("/webhook")
	public.Use(APIKeyAuth(m.service))
	public.POST("/leads", m.handler.HandleSubmitLead)
}

var _ apphttp.Module = (*Module)(nil)
