// Package assistant exposes the AI chat, transcription and voice endpoints.
package assistant

import (
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters/storage"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/assistant/handler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/assistant/prompts"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/assistant/service"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/assistant/voice"
	apphttp "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/http"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/config"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"golang.org/x/time/rate"
)

// Per-user request budget across all assistant routes.
const (
	requestsPerMinute = 20
	requestBurst      = 5
)

type Module struct {
	handler *handler.Handler
	limiter *httpkit.KeyedRateLimiter
}

// NewModule wires the assistant. Without an API key the routes stay mounted
// and answer 503.
func NewModule(cfg config.AssistantConfig, pipeline service.PipelineSummary, archiver storage.Archiver, bucket string, val *validator.Validator, log *logger.Logger) (*Module, error) {
	m := &Module{limiter: httpkit.NewUserRateLimiter(rate.Limit(float64(requestsPerMinute)/60), requestBurst, log)}
	if !cfg.IsAssistantEnabled() {
		m.handler = handler.New(nil, nil, val, log)
		return m, nil
	}

	catalog, err := prompts.Load()
	if err != nil {
		return nil, err
	}
	client := service.NewOpenAIClient(cfg.GetOpenAIAPIKey(), cfg.GetOpenAIBaseURL())
	svc := service.New(client, catalog, pipeline, archiver, bucket, cfg.GetAssistantChatModel(), log)
	relay := voice.NewRelay(voice.Config{
		UpstreamURL: cfg.GetAssistantRealtimeURL(),
		Model:       cfg.GetAssistantRealtimeModel(),
		APIKey:      cfg.GetOpenAIAPIKey(),
	}, log)
	m.handler = handler.New(svc, relay, val, log)
	return m, nil
}

func (m *Module) Name() string {
	return "assistant"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/assistant", m.limiter.RateLimit()))
}

var _ apphttp.Module = (*Module)(nil)
