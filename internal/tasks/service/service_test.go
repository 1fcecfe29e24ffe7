package service

import (
	"context"
	"testing"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/scheduler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/tasks/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/tasks/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/google/uuid"
)

type memStore struct {
	tasks map[uuid.UUID]repository.Task
}

func (m *memStore) Create(_ context.Context, t *repository.Task) error {
	m.tasks[t.ID] = *t
	return nil
}

func (m *memStore) GetByID(_ context.Context, id, org uuid.UUID) (*repository.Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.OrganizationID != org {
		return nil, apperr.NotFound("task not found")
	}
	return &t, nil
}

func (m *memStore) Update(_ context.Context, t *repository.Task) error {
	m.tasks[t.ID] = *t
	return nil
}

func (m *memStore) Delete(_ context.Context, id, _ uuid.UUID) error {
	delete(m.tasks, id)
	return nil
}

func (m *memStore) List(_ context.Context, p repository.ListParams) (*repository.ListResult, error) {
	items := []repository.Task{}
	for _, t := range m.tasks {
		if p.AssignedTo != nil && t.AssignedTo != *p.AssignedTo {
			continue
		}
		if p.OverdueAt != nil && !t.IsOverdue(*p.OverdueAt) {
			continue
		}
		items = append(items, t)
	}
	return &repository.ListResult{Items: items, Total: len(items), Page: p.Page, PageSize: p.PageSize}, nil
}

type openLeads struct{}

func (openLeads) EnsureVisible(context.Context, access.Actor, uuid.UUID) error { return nil }

type everyoneActive struct{}

func (everyoneActive) IsActiveMember(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

type dueRecorder struct {
	payloads []scheduler.TaskDuePayload
}

func (d *dueRecorder) ScheduleTaskDue(_ context.Context, p scheduler.TaskDuePayload, _ time.Time) error {
	d.payloads = append(d.payloads, p)
	return nil
}

type nopBus struct{ published int }

func (b *nopBus) Publish(context.Context, events.Event) { b.published++ }

func (b *nopBus) PublishSync(context.Context, events.Event) error {
	b.published++
	return nil
}

func (b *nopBus) Subscribe(string, events.Handler) {}

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type harness struct {
	svc       *Service
	store     *memStore
	due       *dueRecorder
	bus       *nopBus
	manager   access.Actor
	associate access.Actor
	peer      access.Actor
}

func newHarness() harness {
	org := uuid.New()
	h := harness{
		store:     &memStore{tasks: map[uuid.UUID]repository.Task{}},
		due:       &dueRecorder{},
		bus:       &nopBus{},
		manager:   access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleSalesManager},
		associate: access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleSalesAssociate},
		peer:      access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleSalesAssociate},
	}
	h.svc = New(h.store, openLeads{}, everyoneActive{}, h.bus, h.due, nil)
	h.svc.now = func() time.Time { return now }
	return h
}

func TestCreateDefaultsAndSchedulesDue(t *testing.T) {
	h := newHarness()
	due := now.Add(24 * time.Hour)

	task, err := h.svc.Create(context.Background(), h.associate, transport.CreateTaskRequest{
		Title: " Call back ",
		DueAt: &due,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.AssignedTo != h.associate.MemberID || task.Priority != transport.TaskPriorityMedium || task.Status != transport.TaskStatusOpen {
		t.Fatalf("unexpected defaults: %+v", task)
	}
	if task.Title != "Call back" {
		t.Fatalf("title not sanitized: %q", task.Title)
	}
	if len(h.due.payloads) != 1 || !h.due.payloads[0].DueAt.Equal(due) {
		t.Fatalf("expected one due notification, got %+v", h.due.payloads)
	}
	if h.bus.published != 1 {
		t.Fatalf("expected row change event, got %d", h.bus.published)
	}
}

func TestAssociateCannotAssignToOthers(t *testing.T) {
	h := newHarness()
	peer := h.peer.MemberID

	_, err := h.svc.Create(context.Background(), h.associate, transport.CreateTaskRequest{Title: "x", AssignedTo: &peer})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	task, err := h.svc.Create(context.Background(), h.manager, transport.CreateTaskRequest{Title: "x", AssignedTo: &peer})
	if err != nil {
		t.Fatalf("manager assign: %v", err)
	}
	if task.AssignedTo != peer {
		t.Fatalf("expected task assigned to peer")
	}
}

func TestCompleteAndReopen(t *testing.T) {
	h := newHarness()
	task, err := h.svc.Create(context.Background(), h.associate, transport.CreateTaskRequest{Title: "Send quote"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done, err := h.svc.Complete(context.Background(), h.associate, task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != transport.TaskStatusDone || done.CompletedAt == nil {
		t.Fatalf("complete did not stamp: %+v", done)
	}

	open, err := h.svc.Reopen(context.Background(), h.associate, task.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if open.Status != transport.TaskStatusOpen || open.CompletedAt != nil {
		t.Fatalf("reopen did not clear: %+v", open)
	}
}

func TestVisibilityAndDeleteRules(t *testing.T) {
	h := newHarness()
	assignee := h.associate.MemberID
	task, err := h.svc.Create(context.Background(), h.manager, transport.CreateTaskRequest{Title: "Follow up", AssignedTo: &assignee})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := h.svc.GetByID(context.Background(), h.peer, task.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("peer should not see task, got %v", err)
	}
	if err := h.svc.Delete(context.Background(), h.associate, task.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("assignee who is not creator cannot delete, got %v", err)
	}
	if err := h.svc.Delete(context.Background(), h.manager, task.ID); err != nil {
		t.Fatalf("manager delete: %v", err)
	}
}

func TestListOverdueForAssociate(t *testing.T) {
	h := newHarness()
	past := now.Add(-time.Hour)
	ctx := context.Background()

	if _, err := h.svc.Create(ctx, h.associate, transport.CreateTaskRequest{Title: "late", DueAt: &past}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.svc.Create(ctx, h.associate, transport.CreateTaskRequest{Title: "undated"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.svc.Create(ctx, h.peer, transport.CreateTaskRequest{Title: "peer late", DueAt: &past}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := h.svc.List(ctx, h.associate, transport.ListTasksRequest{Overdue: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 1 || list.Items[0].Title != "late" || !list.Items[0].Overdue {
		t.Fatalf("unexpected overdue list: %+v", list.Items)
	}
	if list.PageSize != defaultPageSize {
		t.Fatalf("expected default page size, got %d", list.PageSize)
	}
	if len(h.due.payloads) != 0 {
		t.Fatalf("past due dates must not be scheduled")
	}
}
