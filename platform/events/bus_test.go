package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishSyncCollectsErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var calls int32

	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	if err == nil {
		t.Fatal("expected joined error from failing handler")
	}
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
}

func TestPublishRunsHandlersAfterCancel(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var seen int32

	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error {
		if ctx.Err() == nil {
			atomic.AddInt32(&seen, 1)
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()

	if atomic.LoadInt32(&seen) != 1 {
		t.Fatal("expected handler to receive a live context")
	}
}

func TestPublishRecoversPanics(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, e Event) error {
		panic("handler bug")
	}))

	bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()
}

type tenantEvent struct {
	BaseEvent
	org string
}

func (tenantEvent) EventName() string { return "test.tenant" }
func (e tenantEvent) Tenant() string { return e.org }

func TestLogFieldsTagsTenant(t *testing.T) {
	fields := logFields(tenantEvent{org: "org-1"}, "error", "boom")
	want := []any{"event", "test.tenant", "organizationId", "org-1", "error", "boom"}
	if len(fields) != len(want) {
		t.Fatalf("expected %v, got %v", want, fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("field %d: expected %v, got %v", i, want[i], fields[i])
		}
	}

	if got := logFields(pingEvent{}); len(got) != 2 {
		t.Fatalf("unscoped event should only carry its name, got %v", got)
	}
}
