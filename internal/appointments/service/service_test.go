package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/appointments/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/appointments/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/scheduler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/google/uuid"
)

type fakeStore struct {
	appts map[uuid.UUID]*repository.Appointment
}

func newFakeStore() *fakeStore {
	return &fakeStore{appts: map[uuid.UUID]*repository.Appointment{}}
}

func (f *fakeStore) Create(_ context.Context, appt *repository.Appointment) error {
	cp := *appt
	f.appts[appt.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id, org uuid.UUID) (*repository.Appointment, error) {
	appt, ok := f.appts[id]
	if !ok || appt.OrganizationID != org {
		return nil, apperr.NotFound("appointment not found")
	}
	cp := *appt
	return &cp, nil
}

func (f *fakeStore) Update(_ context.Context, appt *repository.Appointment) error {
	cp := *appt
	f.appts[appt.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id, _ uuid.UUID, status string) error {
	f.appts[id].Status = status
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id, _ uuid.UUID) error {
	delete(f.appts, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, p repository.ListParams) (*repository.ListResult, error) {
	items := []repository.Appointment{}
	for _, appt := range f.appts {
		if p.AssignedTo != nil && appt.AssignedTo != *p.AssignedTo {
			continue
		}
		items = append(items, *appt)
	}
	return &repository.ListResult{Items: items, Total: len(items), Page: p.Page, PageSize: p.PageSize, TotalPages: 1}, nil
}

func (f *fakeStore) ListForDateRange(_ context.Context, org, assignedTo uuid.UUID, start, end time.Time) ([]repository.Appointment, error) {
	out := []repository.Appointment{}
	for _, appt := range f.appts {
		if appt.OrganizationID != org || appt.AssignedTo != assignedTo || appt.Status != "scheduled" {
			continue
		}
		if appt.StartTime.Before(end) && appt.EndTime.After(start) {
			out = append(out, *appt)
		}
	}
	return out, nil
}

func (f *fakeStore) GetLeadInfoBatch(context.Context, []uuid.UUID, uuid.UUID) (map[uuid.UUID]*repository.LeadInfo, error) {
	return map[uuid.UUID]*repository.LeadInfo{}, nil
}

type allowLeads struct{}

func (allowLeads) EnsureVisible(context.Context, access.Actor, uuid.UUID) error { return nil }

type activeMembers struct{}

func (activeMembers) IsActiveMember(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls []time.Time
}

func (r *recordingScheduler) ScheduleAppointmentReminder(_ context.Context, _ scheduler.AppointmentReminderPayload, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, at)
	return nil
}

type countingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *countingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *countingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *countingBus) Subscribe(string, events.Handler) {}

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestService() (*Service, *fakeStore, *recordingScheduler, *countingBus) {
	store := newFakeStore()
	sched := &recordingScheduler{}
	bus := &countingBus{}
	svc := New(store, allowLeads{}, activeMembers{}, bus, sched, nil)
	svc.now = func() time.Time { return baseTime }
	return svc, store, sched, bus
}

func slot(startHour, endHour int) transport.CreateAppointmentRequest {
	return transport.CreateAppointmentRequest{
		Title:     "Demo call",
		StartTime: baseTime.Add(time.Duration(startHour) * time.Hour),
		EndTime:   baseTime.Add(time.Duration(endHour) * time.Hour),
	}
}

func TestCreateRejectsEndBeforeStart(t *testing.T) {
	svc, _, _, _ := newTestService()
	actor := access.Actor{OrgID: uuid.New(), MemberID: uuid.New(), Role: access.RoleSalesAssociate}

	_, err := svc.Create(context.Background(), actor, slot(3, 2))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateDetectsOverlapPerAssignee(t *testing.T) {
	svc, _, _, _ := newTestService()
	org := uuid.New()
	alice := access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleSalesAssociate}
	bob := access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleSalesAssociate}

	if _, err := svc.Create(context.Background(), alice, slot(2, 4)); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(context.Background(), alice, slot(3, 5))
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := svc.Create(context.Background(), alice, slot(4, 5)); err != nil {
		t.Fatalf("adjacent slot should be free: %v", err)
	}
	if _, err := svc.Create(context.Background(), bob, slot(2, 4)); err != nil {
		t.Fatalf("other assignee should not conflict: %v", err)
	}
}

func TestCreateSchedulesReminderOnlyWhenAhead(t *testing.T) {
	svc, _, sched, bus := newTestService()
	actor := access.Actor{OrgID: uuid.New(), MemberID: uuid.New(), Role: access.RoleSalesManager}

	if _, err := svc.Create(context.Background(), actor, slot(2, 3)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sched.calls) != 1 || !sched.calls[0].Equal(baseTime.Add(90*time.Minute)) {
		t.Fatalf("expected reminder 30m before start, got %v", sched.calls)
	}

	soon := transport.CreateAppointmentRequest{
		Title:     "Soon",
		StartTime: baseTime.Add(10 * time.Minute),
		EndTime:   baseTime.Add(40 * time.Minute),
	}
	if _, err := svc.Create(context.Background(), actor, soon); err != nil {
		t.Fatalf("create soon: %v", err)
	}
	if len(sched.calls) != 1 {
		t.Fatalf("reminder in the past must not be scheduled, got %d calls", len(sched.calls))
	}
	if len(bus.events) != 2 {
		t.Fatalf("expected 2 row events, got %d", len(bus.events))
	}
}

func TestAssociatesCannotScheduleOthers(t *testing.T) {
	svc, _, _, _ := newTestService()
	actor := access.Actor{OrgID: uuid.New(), MemberID: uuid.New(), Role: access.RoleSalesAssociate}
	other := uuid.New()

	req := slot(2, 3)
	req.AssignedTo = &other
	_, err := svc.Create(context.Background(), actor, req)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateExcludesSelfFromOverlapAndReschedules(t *testing.T) {
	svc, _, sched, _ := newTestService()
	actor := access.Actor{OrgID: uuid.New(), MemberID: uuid.New(), Role: access.RoleSalesAssociate}

	created, err := svc.Create(context.Background(), actor, slot(2, 4))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newEnd := baseTime.Add(5 * time.Hour)
	newStart := baseTime.Add(3 * time.Hour)
	updated, err := svc.Update(context.Background(), actor, created.ID, transport.UpdateAppointmentRequest{
		StartTime: &newStart,
		EndTime:   &newEnd,
	})
	if err != nil {
		t.Fatalf("moving over its own slot should succeed: %v", err)
	}
	if !updated.StartTime.Equal(newStart) {
		t.Fatalf("start not updated: %v", updated.StartTime)
	}
	if len(sched.calls) != 2 {
		t.Fatalf("expected reminder rescheduled, got %d calls", len(sched.calls))
	}
}

func TestUpdateReminderMinutesReschedules(t *testing.T) {
	svc, _, sched, _ := newTestService()
	actor := access.Actor{OrgID: uuid.New(), MemberID: uuid.New(), Role: access.RoleSalesAssociate}

	created, err := svc.Create(context.Background(), actor, slot(4, 5))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	minutes := 120
	if _, err := svc.Update(context.Background(), actor, created.ID, transport.UpdateAppointmentRequest{ReminderMinutes: &minutes}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(sched.calls) != 2 || !sched.calls[1].Equal(baseTime.Add(2*time.Hour)) {
		t.Fatalf("expected reminder moved to 2h before start, got %v", sched.calls)
	}
}

func TestAssociateCannotSeeOthersAppointments(t *testing.T) {
	svc, _, _, _ := newTestService()
	org := uuid.New()
	owner := access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleSalesAssociate}
	stranger := access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleSalesAssociate}
	manager := access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleSalesManager}

	created, err := svc.Create(context.Background(), owner, slot(2, 3))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetByID(context.Background(), stranger, created.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for stranger, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), manager, created.ID); err != nil {
		t.Fatalf("manager should see appointment: %v", err)
	}

	list, err := svc.List(context.Background(), stranger, transport.ListAppointmentsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 0 {
		t.Fatalf("stranger should see no appointments, got %d", list.Total)
	}
}

func TestParseRangeBound(t *testing.T) {
	upper, err := parseRangeBound("2026-03-02", true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !upper.Equal(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("plain upper bound should cover the day, got %v", upper)
	}
	if _, err := parseRangeBound("yesterday", false); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}
