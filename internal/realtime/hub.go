// Package realtime streams record changes and user notifications to browsers
// over Server-Sent Events.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"

	"github.com/google/uuid"
)

const (
	clientBuffer     = 32
	defaultHeartbeat = 25 * time.Second
)

// SSE event names.
const (
	EventConnected    = "connected"
	EventChange       = "change"
	EventNotification = "notification"
)

// Change is a committed insert, update or delete. The assignee fields decide
// which associates receive it and are not sent to clients.
type Change struct {
	OrganizationID     uuid.UUID   `json:"organizationId"`
	Table              string      `json:"table"`
	Type               string      `json:"type"`
	ID                 uuid.UUID   `json:"id"`
	Record             interface{} `json:"record,omitempty"`
	AssignedTo         *uuid.UUID  `json:"assignedTo,omitempty"`
	PreviousAssignedTo *uuid.UUID  `json:"previousAssignedTo,omitempty"`
}

// ChangeFromEvent converts a bus event.
func ChangeFromEvent(e events.RowChanged) Change {
	return Change{
		OrganizationID:     e.OrganizationID,
		Table:              e.Table,
		Type:               e.Op,
		ID:                 e.RecordID,
		Record:             e.Record,
		AssignedTo:         e.AssignedTo,
		PreviousAssignedTo: e.PreviousAssignedTo,
	}
}

// payloadFor returns what cl may see of the change. An associate who just
// lost the record gets a DELETE without the record.
func (c Change) payloadFor(cl *client) (changePayload, bool) {
	full := changePayload{Table: c.Table, Type: c.Type, ID: c.ID, Record: c.Record}
	switch {
	case cl.seesAll || c.Table == events.TableTeamMembers:
		return full, true
	case c.AssignedTo != nil && *c.AssignedTo == cl.memberID:
		return full, true
	case c.PreviousAssignedTo != nil && *c.PreviousAssignedTo == cl.memberID:
		return changePayload{Table: c.Table, Type: events.OpDelete, ID: c.ID}, true
	}
	return changePayload{}, false
}

type changePayload struct {
	Table  string      `json:"table"`
	Type   string      `json:"type"`
	ID     uuid.UUID   `json:"id"`
	Record interface{} `json:"record,omitempty"`
}

// Notification is a message for one team member.
type Notification struct {
	OrganizationID uuid.UUID              `json:"organizationId"`
	MemberID       uuid.UUID              `json:"memberId"`
	Kind           string                 `json:"kind"`
	Title          string                 `json:"title"`
	Body           string                 `json:"body,omitempty"`
	Link           string                 `json:"link,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// Message is one frame queued for a client.
type Message struct {
	Event string
	Data  interface{}
}

type client struct {
	orgID    uuid.UUID
	memberID uuid.UUID
	seesAll  bool
	events   chan Message
}

// Stats describes the connections of one organization.
type Stats struct {
	Connections   int   `json:"connections"`
	Members       int   `json:"members"`
	TotalClients  int   `json:"totalClients"`
	DroppedEvents int64 `json:"droppedEvents"`
}

// Hub fans messages out to the connected clients of each organization.
type Hub struct {
	mu        sync.RWMutex
	clients   map[uuid.UUID]map[*client]struct{}
	closed    bool
	dropped   atomic.Int64
	heartbeat time.Duration
	log       *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients:   make(map[uuid.UUID]map[*client]struct{}),
		heartbeat: defaultHeartbeat,
		log:       log,
	}
}

func (h *Hub) register(orgID, memberID uuid.UUID, seesAll bool) (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}

	c := &client{orgID: orgID, memberID: memberID, seesAll: seesAll, events: make(chan Message, clientBuffer)}
	set, ok := h.clients[orgID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[orgID] = set
	}
	set[c] = struct{}{}
	return c, true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.orgID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.orgID)
	}
	close(c.events)
}

// deliver queues msg without blocking. A full buffer drops the message.
func (h *Hub) deliver(c *client, msg Message) {
	select {
	case c.events <- msg:
	default:
		h.dropped.Add(1)
		h.log.Warn("realtime buffer full, dropping event", "memberId", c.memberID, "event", msg.Event)
	}
}

// BroadcastChange sends change to the organization. Associates only get
// changes to records they own or just stopped owning.
func (h *Hub) BroadcastChange(_ context.Context, change Change) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[change.OrganizationID] {
		if payload, ok := change.payloadFor(c); ok {
			h.deliver(c, Message{Event: EventChange, Data: payload})
		}
	}
	return nil
}

// Notify sends n to every connection of its member.
func (h *Hub) Notify(_ context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	msg := Message{Event: EventNotification, Data: n}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[n.OrganizationID] {
		if c.memberID == n.MemberID {
			h.deliver(c, msg)
		}
	}
	return nil
}

// Stats reports the connections of orgID and hub-wide totals.
func (h *Hub) Stats(orgID uuid.UUID) Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make(map[uuid.UUID]struct{})
	for c := range h.clients[orgID] {
		members[c.memberID] = struct{}{}
	}
	total := 0
	for _, set := range h.clients {
		total += len(set)
	}
	return Stats{
		Connections:   len(h.clients[orgID]),
		Members:       len(members),
		TotalClients:  total,
		DroppedEvents: h.dropped.Load(),
	}
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for orgID, set := range h.clients {
		for c := range set {
			close(c.events)
		}
		delete(h.clients, orgID)
	}
}
