// Package voice relays a browser WebSocket to the upstream realtime speech
// endpoint so the API key never leaves the server.
package voice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"

	"github.com/gorilla/websocket"
)

const (
	PingInterval    = 30 * time.Second
	MaxMessageBytes = 1 << 20
	writeWait       = 10 * time.Second
	pongWait        = PingInterval + 15*time.Second
)

type Config struct {
	UpstreamURL string
	Model       string
	APIKey      string
}

type Relay struct {
	cfg          Config
	upgrader     websocket.Upgrader
	dialer       *websocket.Dialer
	pingInterval time.Duration
	log          *logger.Logger
}

func NewRelay(cfg Config, log *logger.Logger) *Relay {
	if log == nil {
		log = logger.Nop()
	}
	return &Relay{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// CORS is enforced by the router; the browser also sends a JWT.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		dialer:       &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		pingInterval: PingInterval,
		log:          log,
	}
}

func (r *Relay) upstreamURL() (string, error) {
	u, err := url.Parse(r.cfg.UpstreamURL)
	if err != nil {
		return "", fmt.Errorf("parse upstream url: %w", err)
	}
	if r.cfg.Model != "" {
		q := u.Query()
		q.Set("model", r.cfg.Model)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Serve dials upstream first so a failed dial becomes a normal HTTP error,
// then upgrades the client and pumps frames both ways until either side closes.
func (r *Relay) Serve(w http.ResponseWriter, req *http.Request) error {
	target, err := r.upstreamURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	upstream, resp, err := r.dialer.DialContext(req.Context(), target, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial upstream: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial upstream: %w", err)
	}

	client, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		_ = upstream.Close()
		// Upgrade already wrote the HTTP error.
		return nil
	}

	r.pipe(client, upstream)
	return nil
}

// pipe blocks until one side fails, then closes both.
func (r *Relay) pipe(client, upstream *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	closeBoth := func() {
		once.Do(func() {
			cancel()
			deadline := time.Now().Add(writeWait)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = client.WriteControl(websocket.CloseMessage, msg, deadline)
			_ = upstream.WriteControl(websocket.CloseMessage, msg, deadline)
			_ = client.Close()
			_ = upstream.Close()
		})
	}
	defer closeBoth()

	clientW := &lockedWriter{conn: client}
	upstreamW := &lockedWriter{conn: upstream}

	for _, conn := range []*websocket.Conn{client, upstream} {
		conn.SetReadLimit(MaxMessageBytes)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		c := conn
		c.SetPongHandler(func(string) error {
			return c.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		defer closeBoth()
		r.copy(client, upstreamW, "client")
	}()
	go func() {
		defer wg.Done()
		defer closeBoth()
		r.copy(upstream, clientW, "upstream")
	}()
	go func() {
		defer wg.Done()
		r.keepAlive(ctx, closeBoth, clientW, upstreamW)
	}()
	wg.Wait()
}

func (r *Relay) copy(src *websocket.Conn, dst *lockedWriter, name string) {
	for {
		kind, data, err := src.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, websocket.ErrCloseSent) {
				r.log.Debug("voice relay read ended", "side", name, "error", err)
			}
			return
		}
		_ = src.SetReadDeadline(time.Now().Add(pongWait))
		if err := dst.write(kind, data); err != nil {
			return
		}
	}
}

func (r *Relay) keepAlive(ctx context.Context, stop func(), conns ...*lockedWriter) {
	ticker := time.NewTicker(r.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, c := range conns {
				if err := c.ping(); err != nil {
					stop()
					return
				}
			}
		}
	}
}

// lockedWriter serializes writes; gorilla connections allow one writer at a time.
type lockedWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *lockedWriter) write(kind int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(kind, data)
}

func (w *lockedWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}
