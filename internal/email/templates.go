package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type LeadAssignedData struct {
	baseEmailData
	MemberName string
	LeadName   string
	AssignedBy string
}

type AppointmentReminderData struct {
	baseEmailData
	MemberName string
	Title      string
	When       string
	Location   string
}

type TaskDueData struct {
	baseEmailData
	MemberName string
	Title      string
	DueAt      string
}

// WithLink sets the call to action shown under the message.
func (d *baseEmailData) WithLink(label, url string) {
	d.CTALabel = label
	d.CTAURL = url
}

// Render executes templates/name inside the shared layout.
func Render(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
