package events

import (
	"time"

	"github.com/google/uuid"
)

// Change operations carried by RowChanged.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Tables announced on the realtime feed.
const (
	TableLeads        = "leads"
	TableTasks        = "tasks"
	TableAppointments = "appointments"
	TableTeamMembers  = "team_members"
)

// RowChanged is emitted after every committed insert, update or delete of a
// realtime-visible record. PreviousAssignedTo is set when the change moved the
// record away from an owner, so that owner can drop it.
type RowChanged struct {
	BaseEvent
	OrganizationID     uuid.UUID   `json:"organizationId"`
	Table              string      `json:"table"`
	Op                 string      `json:"type"`
	RecordID           uuid.UUID   `json:"id"`
	AssignedTo         *uuid.UUID  `json:"-"`
	PreviousAssignedTo *uuid.UUID  `json:"-"`
	Record             interface{} `json:"record,omitempty"`
}

func (e RowChanged) Tenant() string { return e.OrganizationID.String() }
func (e RowChanged) EventName() string { return "realtime.row_changed" }

// OwnedBy reports whether memberID owns, or just stopped owning, the record.
func (e RowChanged) OwnedBy(memberID uuid.UUID) bool {
	if e.AssignedTo != nil && *e.AssignedTo == memberID {
		return true
	}
	return e.PreviousAssignedTo != nil && *e.PreviousAssignedTo == memberID
}

// LeadAssigned is emitted when a lead's owner changes.
type LeadAssigned struct {
	BaseEvent
	OrganizationID     uuid.UUID  `json:"organizationId"`
	LeadID             uuid.UUID  `json:"leadId"`
	LeadName           string     `json:"leadName"`
	PreviousAssigneeID *uuid.UUID `json:"previousAssigneeId,omitempty"`
	NewAssigneeID      *uuid.UUID `json:"newAssigneeId,omitempty"`
	AssignedByID       uuid.UUID  `json:"assignedById"`
}

func (e LeadAssigned) Tenant() string { return e.OrganizationID.String() }
func (e LeadAssigned) EventName() string { return "leads.assigned" }

type LeadStatusChanged struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	LeadID         uuid.UUID `json:"leadId"`
	OldStatus      string    `json:"oldStatus"`
	NewStatus      string    `json:"newStatus"`
	ActorID        uuid.UUID `json:"actorId"`
}

func (e LeadStatusChanged) Tenant() string { return e.OrganizationID.String() }
func (e LeadStatusChanged) EventName() string { return "leads.status_changed" }

// LeadsImported summarizes a committed spreadsheet import.
type LeadsImported struct {
	BaseEvent
	OrganizationID    uuid.UUID `json:"organizationId"`
	ActorID           uuid.UUID `json:"actorId"`
	FileName          string    `json:"fileName"`
	Created           int       `json:"created"`
	SkippedDuplicates int       `json:"skippedDuplicates"`
	Failed            int       `json:"failed"`
}

func (e LeadsImported) Tenant() string { return e.OrganizationID.String() }
func (e LeadsImported) EventName() string { return "leads.imported" }

// AppointmentReminderDue is emitted by the scheduler worker.
type AppointmentReminderDue struct {
	BaseEvent
	OrganizationID uuid.UUID  `json:"organizationId"`
	AppointmentID  uuid.UUID  `json:"appointmentId"`
	AssignedTo     uuid.UUID  `json:"assignedTo"`
	LeadID         *uuid.UUID `json:"leadId,omitempty"`
	Title          string     `json:"title"`
	Location       string     `json:"location,omitempty"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        time.Time  `json:"endTime"`
}

func (e AppointmentReminderDue) Tenant() string { return e.OrganizationID.String() }
func (e AppointmentReminderDue) EventName() string { return "appointments.reminder_due" }

// TaskDue is emitted by the scheduler worker when an open task hits its due time.
type TaskDue struct {
	BaseEvent
	OrganizationID uuid.UUID  `json:"organizationId"`
	TaskID         uuid.UUID  `json:"taskId"`
	AssignedTo     uuid.UUID  `json:"assignedTo"`
	LeadID         *uuid.UUID `json:"leadId,omitempty"`
	Title          string     `json:"title"`
	DueAt          time.Time  `json:"dueAt"`
}

func (e TaskDue) Tenant() string { return e.OrganizationID.String() }
func (e TaskDue) EventName() string { return "tasks.due" }
