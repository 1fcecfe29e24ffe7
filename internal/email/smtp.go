package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers rendered templates through an SMTP relay via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) buildMsg(m Message) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, m.HTML)
	return msg, nil
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	msg, err := s.buildMsg(m)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) SendLeadAssigned(ctx context.Context, toEmail string, data LeadAssignedData) error {
	return s.sendTemplate(ctx, toEmail, fmt.Sprintf(subjectLeadAssignedFmt, data.LeadName), "lead_assigned.html", data)
}

func (s *SMTPSender) SendAppointmentReminder(ctx context.Context, toEmail string, data AppointmentReminderData) error {
	return s.sendTemplate(ctx, toEmail, fmt.Sprintf(subjectAppointmentReminderFmt, data.Title), "appointment_reminder.html", data)
}

func (s *SMTPSender) SendTaskDue(ctx context.Context, toEmail string, data TaskDueData) error {
	return s.sendTemplate(ctx, toEmail, fmt.Sprintf(subjectTaskDueFmt, data.Title), "task_due.html", data)
}

func (s *SMTPSender) sendTemplate(ctx context.Context, toEmail, subject, name string, data any) error {
	content, err := Render(name, data)
	if err != nil {
		return err
	}
	return s.Send(ctx, Message{To: toEmail, Subject: subject, HTML: content})
}

var _ Sender = (*SMTPSender)(nil)
