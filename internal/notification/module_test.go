package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/email"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/realtime"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/google/uuid"
)

type testNotificationConfig struct{}

func (testNotificationConfig) GetAppBaseURL() string { return "https://crm.example.com/" }

type testSender struct {
	email.NoopSender
	leadAssigned []string
	reminders    []email.AppointmentReminderData
	taskDue      int
	fail         bool
}

func (s *testSender) SendLeadAssigned(_ context.Context, to string, _ email.LeadAssignedData) error {
	s.leadAssigned = append(s.leadAssigned, to)
	return nil
}

func (s *testSender) SendAppointmentReminder(_ context.Context, _ string, data email.AppointmentReminderData) error {
	if s.fail {
		return errors.New("smtp down")
	}
	s.reminders = append(s.reminders, data)
	return nil
}

func (s *testSender) SendTaskDue(context.Context, string, email.TaskDueData) error {
	s.taskDue++
	return nil
}

type testPusher struct {
	sent []realtime.Notification
}

func (p *testPusher) Notify(_ context.Context, n realtime.Notification) error {
	p.sent = append(p.sent, n)
	return nil
}

type testMembers map[uuid.UUID]adapters.MemberContact

func (m testMembers) Contact(_ context.Context, _, memberID uuid.UUID) (adapters.MemberContact, error) {
	c, ok := m[memberID]
	if !ok {
		return adapters.MemberContact{}, apperr.NotFound("team member not found")
	}
	return c, nil
}

var (
	orgID   = uuid.New()
	mia     = adapters.MemberContact{ID: uuid.New(), FullName: "Mia", Email: "mia@crm.test", IsActive: true}
	zoe     = adapters.MemberContact{ID: uuid.New(), FullName: "Zoe", Email: "zoe@crm.test", IsActive: true}
	retired = adapters.MemberContact{ID: uuid.New(), FullName: "Old", Email: "old@crm.test", IsActive: false}
)

func newTestModule(sender *testSender, push *testPusher) *Module {
	members := testMembers{mia.ID: mia, zoe.ID: zoe, retired.ID: retired}
	return New(sender, push, members, testNotificationConfig{}, nil)
}

func TestLeadAssignedNotifiesNewOwner(t *testing.T) {
	sender, push := &testSender{}, &testPusher{}
	m := newTestModule(sender, push)

	leadID := uuid.New()
	err := m.Handle(context.Background(), events.LeadAssigned{
		OrganizationID: orgID,
		LeadID:         leadID,
		LeadName:       "Acme",
		NewAssigneeID:  &mia.ID,
		AssignedByID:   zoe.ID,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.leadAssigned) != 1 || sender.leadAssigned[0] != mia.Email {
		t.Fatalf("unexpected emails %v", sender.leadAssigned)
	}
	if len(push.sent) != 1 || push.sent[0].MemberID != mia.ID || push.sent[0].Kind != KindLeadAssigned {
		t.Fatalf("unexpected push %+v", push.sent)
	}
	if want := "https://crm.example.com/leads/" + leadID.String(); push.sent[0].Link != want {
		t.Fatalf("expected link %q, got %q", want, push.sent[0].Link)
	}
}

func TestLeadAssignedSkipsSelfAssignmentAndUnassign(t *testing.T) {
	sender, push := &testSender{}, &testPusher{}
	m := newTestModule(sender, push)

	for _, e := range []events.LeadAssigned{
		{OrganizationID: orgID, LeadID: uuid.New(), NewAssigneeID: &mia.ID, AssignedByID: mia.ID},
		{OrganizationID: orgID, LeadID: uuid.New(), PreviousAssigneeID: &mia.ID, AssignedByID: zoe.ID},
		{OrganizationID: orgID, LeadID: uuid.New(), NewAssigneeID: &retired.ID, AssignedByID: zoe.ID},
	} {
		if err := m.Handle(context.Background(), e); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if len(sender.leadAssigned) != 0 || len(push.sent) != 0 {
		t.Fatalf("expected no notifications, got %d emails and %d pushes", len(sender.leadAssigned), len(push.sent))
	}
}

func TestReminderPushesEvenWhenEmailFails(t *testing.T) {
	sender, push := &testSender{fail: true}, &testPusher{}
	m := newTestModule(sender, push)

	start := time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC)
	err := m.Handle(context.Background(), events.AppointmentReminderDue{
		OrganizationID: orgID,
		AppointmentID:  uuid.New(),
		AssignedTo:     mia.ID,
		Title:          "Demo",
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(push.sent) != 1 || push.sent[0].Body != "Starts Mon 4 May 14:00 UTC" {
		t.Fatalf("unexpected push %+v", push.sent)
	}
}

func TestTaskDueAndImportFinished(t *testing.T) {
	sender, push := &testSender{}, &testPusher{}
	m := newTestModule(sender, push)

	ctx := context.Background()
	if err := m.Handle(ctx, events.TaskDue{OrganizationID: orgID, TaskID: uuid.New(), AssignedTo: zoe.ID, Title: "Send quote", DueAt: time.Now()}); err != nil {
		t.Fatalf("task due: %v", err)
	}
	if err := m.Handle(ctx, events.LeadsImported{OrganizationID: orgID, ActorID: mia.ID, FileName: "leads.csv", Created: 3}); err != nil {
		t.Fatalf("imported: %v", err)
	}

	if sender.taskDue != 1 {
		t.Fatalf("expected one task email, got %d", sender.taskDue)
	}
	if len(push.sent) != 2 || push.sent[0].Kind != KindTaskDue || push.sent[1].Kind != KindImportFinished {
		t.Fatalf("unexpected pushes %+v", push.sent)
	}
	if push.sent[1].Title != "Imported 3 leads from leads.csv" {
		t.Fatalf("unexpected title %q", push.sent[1].Title)
	}
}
