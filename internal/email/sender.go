// Package email renders and delivers notification mail.
package email

import (
	"context"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/config"
)

// Message is one rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
	SendLeadAssigned(ctx context.Context, toEmail string, data LeadAssignedData) error
	SendAppointmentReminder(ctx context.Context, toEmail string, data AppointmentReminderData) error
	SendTaskDue(ctx context.Context, toEmail string, data TaskDueData) error
}

// NoopSender drops every message. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) Send(context.Context, Message) error { return nil }

func (NoopSender) SendLeadAssigned(context.Context, string, LeadAssignedData) error { return nil }

func (NoopSender) SendAppointmentReminder(context.Context, string, AppointmentReminderData) error {
	return nil
}

func (NoopSender) SendTaskDue(context.Context, string, TaskDueData) error { return nil }

// NewSender returns an SMTP sender, or NoopSender when email is disabled or
// no SMTP host is set.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
