// Package events holds the CRM domain events and re-exports the platform bus
// so modules only import one events package.
package events

import (
	platformevents "github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
)

type (
	Bus         = platformevents.Bus
	Event       = platformevents.Event
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	BaseEvent   = platformevents.BaseEvent
	InMemoryBus = platformevents.InMemoryBus
)

func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
