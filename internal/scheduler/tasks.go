package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskAppointmentReminder = "appointments.reminder"

const TaskTaskDue = "tasks.due"

// AppointmentReminderPayload carries the start time the reminder was planned
// for. A reminder whose appointment has moved since is dropped.
type AppointmentReminderPayload struct {
	AppointmentID  string    `json:"appointmentId"`
	OrganizationID string    `json:"organizationId"`
	StartTime      time.Time `json:"startTime"`
}

type TaskDuePayload struct {
	TaskID         string    `json:"taskId"`
	OrganizationID string    `json:"organizationId"`
	DueAt          time.Time `json:"dueAt"`
}

func NewAppointmentReminderTask(payload AppointmentReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAppointmentReminder, data), nil
}

func ParseAppointmentReminderPayload(task *asynq.Task) (AppointmentReminderPayload, error) {
	var payload AppointmentReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AppointmentReminderPayload{}, err
	}
	return payload, nil
}

func NewTaskDueTask(payload TaskDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTaskDue, data), nil
}

func ParseTaskDuePayload(task *asynq.Task) (TaskDuePayload, error) {
	var payload TaskDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TaskDuePayload{}, err
	}
	return payload, nil
}
