package realtime

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/config"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel carries messages from worker processes to the API hub.
const DefaultChannel = "crm:realtime"

const (
	kindChange       = "change"
	kindNotification = "notification"
)

type envelope struct {
	Kind         string        `json:"kind"`
	Change       *Change       `json:"change,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// NewRedisClient opens the Redis connection shared with the scheduler queue.
func NewRedisClient(cfg config.SchedulerConfig) (*redis.Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

// Publisher forwards messages to a hub in another process.
type Publisher struct {
	client  *redis.Client
	channel string
}

func NewPublisher(client *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

func (p *Publisher) BroadcastChange(ctx context.Context, change Change) error {
	return p.publish(ctx, envelope{Kind: kindChange, Change: &change})
}

func (p *Publisher) Notify(ctx context.Context, n Notification) error {
	return p.publish(ctx, envelope{Kind: kindNotification, Notification: &n})
}

func (p *Publisher) publish(ctx context.Context, env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// Relay feeds messages published on the channel into a local hub.
type Relay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *logger.Logger
}

func NewRelay(client *redis.Client, channel string, hub *Hub, log *logger.Logger) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Relay{client: client, channel: channel, hub: hub, log: log}
}

// Run subscribes and dispatches until ctx is cancelled. It returns once the
// subscription is confirmed or failed; dispatching continues in the background.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.dispatch(ctx, msg.Payload)
			}
		}
	}()
	return nil
}

func (r *Relay) dispatch(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.log.Warn("realtime relay: bad payload", "error", err)
		return
	}
	switch {
	case env.Kind == kindChange && env.Change != nil:
		_ = r.hub.BroadcastChange(ctx, *env.Change)
	case env.Kind == kindNotification && env.Notification != nil:
		_ = r.hub.Notify(ctx, *env.Notification)
	default:
		r.log.Warn("realtime relay: unknown message", "kind", env.Kind)
	}
}
