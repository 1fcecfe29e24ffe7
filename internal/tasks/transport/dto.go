package transport

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

type CreateTaskRequest struct {
	LeadID      *uuid.UUID   `json:"leadId,omitempty"`
	AssignedTo  *uuid.UUID   `json:"assignedTo,omitempty"`
	Title       string       `json:"title" validate:"required,notblank,max=200"`
	Description string       `json:"description,omitempty" validate:"max=4000"`
	Priority    TaskPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	DueAt       *time.Time   `json:"dueAt,omitempty"`
}

// UpdateTaskRequest is a partial update. ClearDueAt removes the due date.
type UpdateTaskRequest struct {
	LeadID      *uuid.UUID    `json:"leadId,omitempty"`
	AssignedTo  *uuid.UUID    `json:"assignedTo,omitempty"`
	Title       *string       `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description *string       `json:"description,omitempty" validate:"omitempty,max=4000"`
	Priority    *TaskPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Status      *TaskStatus   `json:"status,omitempty" validate:"omitempty,oneof=open in_progress done"`
	DueAt       *time.Time    `json:"dueAt,omitempty"`
	ClearDueAt  bool          `json:"clearDueAt,omitempty"`
}

type ListTasksRequest struct {
	Status     *TaskStatus `form:"status" validate:"omitempty,oneof=open in_progress done"`
	AssignedTo *uuid.UUID  `form:"assignedTo"`
	LeadID     *uuid.UUID  `form:"leadId"`
	Overdue    bool        `form:"overdue"`
	DueBefore  *time.Time  `form:"dueBefore" time_format:"2006-01-02T15:04:05Z07:00"`
	Page       int         `form:"page" validate:"omitempty,min=1"`
	PageSize   int         `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type TaskResponse struct {
	ID          uuid.UUID    `json:"id"`
	LeadID      *uuid.UUID   `json:"leadId,omitempty"`
	AssignedTo  uuid.UUID    `json:"assignedTo"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	DueAt       *time.Time   `json:"dueAt,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	Overdue     bool         `json:"overdue"`
	CreatedBy   *uuid.UUID   `json:"createdBy,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type TaskListResponse struct {
	Items      []TaskResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}
