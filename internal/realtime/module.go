package realtime

import (
	"context"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	apphttp "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/http"
)

type Module struct {
	hub *Hub
}

// NewModule mounts hub and forwards every RowChanged event from bus to it.
func NewModule(hub *Hub, bus events.Bus) *Module {
	bus.Subscribe(events.RowChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		change, ok := e.(events.RowChanged)
		if !ok {
			return nil
		}
		return hub.BroadcastChange(ctx, ChangeFromEvent(change))
	}))
	return &Module{hub: hub}
}

func (m *Module) Name() string {
	return "realtime"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	rg := ctx.Protected.Group("/realtime")
	rg.GET("/stream", m.hub.Stream)
	rg.GET("/stats", m.hub.StatsHandler)
}

var _ apphttp.Module = (*Module)(nil)
