package transport

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus defines the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

const DefaultReminderMinutes = 30

// CreateAppointmentRequest is the request body for creating an appointment
type CreateAppointmentRequest struct {
	LeadID          *uuid.UUID `json:"leadId,omitempty"`
	AssignedTo      *uuid.UUID `json:"assignedTo,omitempty"`
	Title           string     `json:"title" validate:"required,notblank,max=200"`
	Description     string     `json:"description,omitempty" validate:"max=2000"`
	Location        string     `json:"location,omitempty" validate:"max=500"`
	StartTime       time.Time  `json:"startTime" validate:"required"`
	EndTime         time.Time  `json:"endTime" validate:"required"`
	ReminderMinutes *int       `json:"reminderMinutes,omitempty" validate:"omitempty,min=0,max=10080"`
}

// UpdateAppointmentRequest is the request body for updating an appointment
type UpdateAppointmentRequest struct {
	LeadID          *uuid.UUID `json:"leadId,omitempty"`
	AssignedTo      *uuid.UUID `json:"assignedTo,omitempty"`
	Title           *string    `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description     *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Location        *string    `json:"location,omitempty" validate:"omitempty,max=500"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	ReminderMinutes *int       `json:"reminderMinutes,omitempty" validate:"omitempty,min=0,max=10080"`
}

// UpdateAppointmentStatusRequest is the request body for updating appointment status
type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" validate:"required,oneof=scheduled completed cancelled no_show"`
}

// ListAppointmentsRequest is the query parameters for listing appointments.
// From and To bound the start time and accept RFC 3339 or a plain date.
type ListAppointmentsRequest struct {
	AssignedTo *uuid.UUID         `form:"assignedTo"`
	LeadID     *uuid.UUID         `form:"leadId"`
	Status     *AppointmentStatus `form:"status" validate:"omitempty,oneof=scheduled completed cancelled no_show"`
	From       string             `form:"from"`
	To         string             `form:"to"`
	Search     string             `form:"search" validate:"max=100"`
	SortBy     string             `form:"sortBy" validate:"omitempty,oneof=title status startTime endTime createdAt"`
	SortOrder  string             `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page       int                `form:"page" validate:"omitempty,min=1"`
	PageSize   int                `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// AppointmentResponse is the response body for an appointment
type AppointmentResponse struct {
	ID              uuid.UUID            `json:"id"`
	AssignedTo      uuid.UUID            `json:"assignedTo"`
	LeadID          *uuid.UUID           `json:"leadId,omitempty"`
	Title           string               `json:"title"`
	Description     *string              `json:"description,omitempty"`
	Location        *string              `json:"location,omitempty"`
	StartTime       time.Time            `json:"startTime"`
	EndTime         time.Time            `json:"endTime"`
	Status          AppointmentStatus    `json:"status"`
	ReminderMinutes int                  `json:"reminderMinutes"`
	CreatedBy       *uuid.UUID           `json:"createdBy,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
	Lead            *AppointmentLeadInfo `json:"lead,omitempty"`
}

// AppointmentLeadInfo is embedded lead info for appointment responses
type AppointmentLeadInfo struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Phone    string    `json:"phone,omitempty"`
	Company  string    `json:"company,omitempty"`
}

// AppointmentListResponse is the paginated response for listing appointments
type AppointmentListResponse struct {
	Items      []AppointmentResponse `json:"items"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	TotalPages int                   `json:"totalPages"`
}
