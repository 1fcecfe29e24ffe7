// Package auth provides the authentication bounded context module.
package auth

import (
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth/handler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth/service"
	apphttp "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/http"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/config"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, log *logger.Logger, val *validator.Validator) *Module {
	svc := service.New(repository.New(pool), cfg, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "auth"
}

func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterRoutes(authGroup)

	ctx.Protected.GET("/users/me", m.handler.GetMe)
	ctx.Protected.POST("/users/me/password", m.handler.ChangePassword)
}

var _ apphttp.Module = (*Module)(nil)
