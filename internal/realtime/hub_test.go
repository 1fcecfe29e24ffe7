package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func drain(c *client) []Message {
	var out []Message
	for {
		select {
		case m := <-c.events:
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestBroadcastChangeFiltersAssociates(t *testing.T) {
	hub := NewHub(nil)
	org := uuid.New()
	other := uuid.New()
	manager, _ := hub.register(org, uuid.New(), true)
	ownerID := uuid.New()
	owner, _ := hub.register(org, ownerID, false)
	formerID := uuid.New()
	former, _ := hub.register(org, formerID, false)
	bystander, _ := hub.register(org, uuid.New(), false)
	outsider, _ := hub.register(other, uuid.New(), true)

	ctx := context.Background()
	_ = hub.BroadcastChange(ctx, Change{
		OrganizationID:     org,
		Table:              events.TableLeads,
		Type:               events.OpUpdate,
		ID:                 uuid.New(),
		Record:             map[string]string{"fullName": "Ann Lee"},
		AssignedTo:         &ownerID,
		PreviousAssignedTo: &formerID,
	})
	_ = hub.BroadcastChange(ctx, Change{
		OrganizationID: org,
		Table:          events.TableTeamMembers,
		Type:           events.OpInsert,
		ID:             uuid.New(),
	})

	tests := []struct {
		name string
		c    *client
		want int
	}{
		{"manager sees both", manager, 2},
		{"owner sees both", owner, 2},
		{"previous owner sees both", former, 2},
		{"unrelated associate sees team change only", bystander, 1},
		{"other organization sees nothing", outsider, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(drain(tt.c)); got != tt.want {
				t.Fatalf("expected %d messages, got %d", tt.want, got)
			}
		})
	}
}

func TestReassignedLeadIsWithdrawnFromFormerOwner(t *testing.T) {
	hub := NewHub(nil)
	org := uuid.New()
	ownerID, formerID := uuid.New(), uuid.New()
	owner, _ := hub.register(org, ownerID, false)
	former, _ := hub.register(org, formerID, false)

	leadID := uuid.New()
	_ = hub.BroadcastChange(context.Background(), Change{
		OrganizationID:     org,
		Table:              events.TableLeads,
		Type:               events.OpUpdate,
		ID:                 leadID,
		Record:             map[string]string{"fullName": "Ann Lee"},
		AssignedTo:         &ownerID,
		PreviousAssignedTo: &formerID,
	})

	got := drain(former)
	if len(got) != 1 {
		t.Fatalf("expected one message for the former owner, got %d", len(got))
	}
	p := got[0].Data.(changePayload)
	if p.Type != events.OpDelete || p.ID != leadID || p.Record != nil {
		t.Fatalf("former owner should only see a delete, got %+v", p)
	}

	got = drain(owner)
	if len(got) != 1 {
		t.Fatalf("expected one message for the owner, got %d", len(got))
	}
	if p := got[0].Data.(changePayload); p.Type != events.OpUpdate || p.Record == nil {
		t.Fatalf("owner should see the full update, got %+v", p)
	}
}

func TestNotifyTargetsMember(t *testing.T) {
	hub := NewHub(nil)
	org := uuid.New()
	memberID := uuid.New()
	first, _ := hub.register(org, memberID, false)
	second, _ := hub.register(org, memberID, false)
	admin, _ := hub.register(org, uuid.New(), true)

	_ = hub.Notify(context.Background(), Notification{OrganizationID: org, MemberID: memberID, Kind: "task_due", Title: "Call back"})

	if len(drain(first)) != 1 || len(drain(second)) != 1 {
		t.Fatal("expected every connection of the member to be notified")
	}
	if len(drain(admin)) != 0 {
		t.Fatal("notification leaked to another member")
	}
}

func TestFullBufferDropsEvents(t *testing.T) {
	hub := NewHub(nil)
	org := uuid.New()
	c, _ := hub.register(org, uuid.New(), true)

	for i := 0; i < clientBuffer+5; i++ {
		_ = hub.BroadcastChange(context.Background(), Change{OrganizationID: org, Table: events.TableTasks, Type: events.OpInsert, ID: uuid.New()})
	}

	if got := len(drain(c)); got != clientBuffer {
		t.Fatalf("expected %d buffered, got %d", clientBuffer, got)
	}
	stats := hub.Stats(org)
	if stats.DroppedEvents != 5 || stats.Connections != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestCloseRefusesNewClients(t *testing.T) {
	hub := NewHub(nil)
	org := uuid.New()
	c, _ := hub.register(org, uuid.New(), true)

	hub.Close()
	if _, ok := <-c.events; ok {
		t.Fatal("expected channel closed")
	}
	hub.unregister(c)
	if _, ok := hub.register(org, uuid.New(), true); ok {
		t.Fatal("expected register to fail after close")
	}
}

func withActor(orgID, memberID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Set(httpkit.ContextTenantIDKey, orgID)
		c.Set(httpkit.ContextMemberIDKey, memberID)
		c.Set(httpkit.ContextRolesKey, []string{role})
		c.Next()
	}
}

func TestStreamWritesFramesAndHeartbeats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	hub.heartbeat = 50 * time.Millisecond
	org, memberID := uuid.New(), uuid.New()

	r := gin.New()
	r.GET("/stream", withActor(org, memberID, access.RoleSalesAssociate), hub.Stream)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readUntil := func(prefix string) string {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if strings.HasPrefix(line, prefix) {
				return line
			}
		}
	}

	readUntil("event:connected")
	readUntil(": heartbeat")

	_ = hub.BroadcastChange(context.Background(), Change{
		OrganizationID: org,
		Table:          events.TableTasks,
		Type:           events.OpInsert,
		ID:             uuid.New(),
		AssignedTo:     &memberID,
	})
	readUntil("event:change")
	data := readUntil("data:")
	if !strings.Contains(data, `"table":"tasks"`) || strings.Contains(data, "assignedTo") {
		t.Fatalf("unexpected change frame %q", data)
	}
}

func TestStatsRequiresAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	org := uuid.New()

	for _, tc := range []struct {
		role string
		want int
	}{
		{access.RoleAdmin, http.StatusOK},
		{access.RoleSalesManager, http.StatusForbidden},
	} {
		r := gin.New()
		r.GET("/stats", withActor(org, uuid.New(), tc.role), hub.StatsHandler)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.role, tc.want, w.Code)
		}
	}
}
