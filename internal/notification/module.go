// Package notification turns domain events into emails and realtime
// notifications for the team member concerned. Domain modules publish events
// and never talk to mail or push transports themselves.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/email"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/realtime"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/config"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"

	"github.com/google/uuid"
)

// Notification kinds sent to the browser.
const (
	KindLeadAssigned        = "lead_assigned"
	KindAppointmentReminder = "appointment_reminder"
	KindTaskDue             = "task_due"
	KindImportFinished      = "import_finished"
)

const timeLayout = "Mon 2 Jan 15:04 MST"

// Pusher delivers a realtime notification, either to the local hub or
// through the Redis relay.
type Pusher interface {
	Notify(ctx context.Context, n realtime.Notification) error
}

type MemberDirectory interface {
	Contact(ctx context.Context, organizationID, memberID uuid.UUID) (adapters.MemberContact, error)
}

type Module struct {
	sender  email.Sender
	push    Pusher
	members MemberDirectory
	baseURL string
	log     *logger.Logger
	now     func() time.Time
}

func New(sender email.Sender, push Pusher, members MemberDirectory, cfg config.NotificationConfig, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Module{
		sender:  sender,
		push:    push,
		members: members,
		baseURL: strings.TrimRight(cfg.GetAppBaseURL(), "/"),
		log:     log,
		now:     time.Now,
	}
}

func (m *Module) Name() string { return "notification" }

func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.AppointmentReminderDue{}.EventName(), m)
	bus.Subscribe(events.TaskDue{}.EventName(), m)
	bus.Subscribe(events.LeadsImported{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the matching handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAssigned:
		return m.handleLeadAssigned(ctx, e)
	case events.AppointmentReminderDue:
		return m.handleAppointmentReminderDue(ctx, e)
	case events.TaskDue:
		return m.handleTaskDue(ctx, e)
	case events.LeadsImported:
		return m.handleLeadsImported(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) link(path string) string {
	if m.baseURL == "" {
		return ""
	}
	return m.baseURL + path
}

// recipient loads the member to notify. Inactive members get nothing.
func (m *Module) recipient(ctx context.Context, orgID, memberID uuid.UUID) (adapters.MemberContact, bool) {
	contact, err := m.members.Contact(ctx, orgID, memberID)
	if err != nil {
		m.log.Warn("notification recipient lookup failed", "error", err, "memberId", memberID)
		return adapters.MemberContact{}, false
	}
	return contact, contact.IsActive
}

func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) error {
	if e.NewAssigneeID == nil || *e.NewAssigneeID == e.AssignedByID {
		return nil
	}
	to, ok := m.recipient(ctx, e.OrganizationID, *e.NewAssigneeID)
	if !ok {
		return nil
	}

	assignedBy := ""
	if by, err := m.members.Contact(ctx, e.OrganizationID, e.AssignedByID); err == nil {
		assignedBy = by.FullName
	}
	url := m.link("/leads/" + e.LeadID.String())

	data := email.LeadAssignedData{MemberName: to.FullName, LeadName: e.LeadName, AssignedBy: assignedBy}
	data.Title = "New lead assigned"
	data.Heading = "A lead was assigned to you"
	if url != "" {
		data.WithLink("Open lead", url)
	}
	m.sendEmail(ctx, to, KindLeadAssigned, func(ctx context.Context) error {
		return m.sender.SendLeadAssigned(ctx, to.Email, data)
	})

	return m.pushTo(ctx, realtime.Notification{
		OrganizationID: e.OrganizationID,
		MemberID:       to.ID,
		Kind:           KindLeadAssigned,
		Title:          fmt.Sprintf("%s was assigned to you", e.LeadName),
		Link:           url,
		Data:           map[string]interface{}{"leadId": e.LeadID},
	})
}

func (m *Module) handleAppointmentReminderDue(ctx context.Context, e events.AppointmentReminderDue) error {
	to, ok := m.recipient(ctx, e.OrganizationID, e.AssignedTo)
	if !ok {
		return nil
	}
	when := e.StartTime.UTC().Format(timeLayout)
	url := m.link("/appointments/" + e.AppointmentID.String())

	data := email.AppointmentReminderData{MemberName: to.FullName, Title: e.Title, When: "on " + when, Location: e.Location}
	data.Title = "Appointment reminder"
	data.Heading = e.Title
	if url != "" {
		data.WithLink("View appointment", url)
	}
	m.sendEmail(ctx, to, KindAppointmentReminder, func(ctx context.Context) error {
		return m.sender.SendAppointmentReminder(ctx, to.Email, data)
	})

	payload := map[string]interface{}{
		"appointmentId": e.AppointmentID,
		"startTime":     e.StartTime,
		"endTime":       e.EndTime,
	}
	if e.LeadID != nil {
		payload["leadId"] = *e.LeadID
	}
	return m.pushTo(ctx, realtime.Notification{
		OrganizationID: e.OrganizationID,
		MemberID:       to.ID,
		Kind:           KindAppointmentReminder,
		Title:          e.Title,
		Body:           "Starts " + when,
		Link:           url,
		Data:           payload,
	})
}

func (m *Module) handleTaskDue(ctx context.Context, e events.TaskDue) error {
	to, ok := m.recipient(ctx, e.OrganizationID, e.AssignedTo)
	if !ok {
		return nil
	}
	due := e.DueAt.UTC().Format(timeLayout)
	url := m.link("/tasks/" + e.TaskID.String())

	data := email.TaskDueData{MemberName: to.FullName, Title: e.Title, DueAt: "on " + due}
	data.Title = "Task due"
	data.Heading = e.Title
	if url != "" {
		data.WithLink("Open task", url)
	}
	m.sendEmail(ctx, to, KindTaskDue, func(ctx context.Context) error {
		return m.sender.SendTaskDue(ctx, to.Email, data)
	})

	payload := map[string]interface{}{"taskId": e.TaskID, "dueAt": e.DueAt}
	if e.LeadID != nil {
		payload["leadId"] = *e.LeadID
	}
	return m.pushTo(ctx, realtime.Notification{
		OrganizationID: e.OrganizationID,
		MemberID:       to.ID,
		Kind:           KindTaskDue,
		Title:          e.Title,
		Body:           "Due " + due,
		Link:           url,
		Data:           payload,
	})
}

// handleLeadsImported only pushes; the importer is online when it finishes.
func (m *Module) handleLeadsImported(ctx context.Context, e events.LeadsImported) error {
	return m.pushTo(ctx, realtime.Notification{
		OrganizationID: e.OrganizationID,
		MemberID:       e.ActorID,
		Kind:           KindImportFinished,
		Title:          fmt.Sprintf("Imported %d leads from %s", e.Created, e.FileName),
		Body:           fmt.Sprintf("%d duplicates skipped, %d rows failed", e.SkippedDuplicates, e.Failed),
		Data: map[string]interface{}{
			"created":           e.Created,
			"skippedDuplicates": e.SkippedDuplicates,
			"failed":            e.Failed,
		},
	})
}

// sendEmail never fails the event: the realtime push still goes out when
// SMTP is down.
func (m *Module) sendEmail(ctx context.Context, to adapters.MemberContact, kind string, send func(context.Context) error) {
	if to.Email == "" {
		return
	}
	if err := send(ctx); err != nil {
		m.log.Error("notification email failed", "error", err, "kind", kind, "memberId", to.ID)
	}
}

func (m *Module) pushTo(ctx context.Context, n realtime.Notification) error {
	if m.push == nil {
		return nil
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now().UTC()
	}
	if err := m.push.Notify(ctx, n); err != nil {
		m.log.Warn("realtime notification failed", "error", err, "kind", n.Kind, "memberId", n.MemberID)
		return err
	}
	return nil
}
