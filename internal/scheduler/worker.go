package scheduler

import (
	"context"
	"fmt"
	"time"

	apptrepo "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/appointments/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	taskrepo "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/tasks/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/config"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// AppointmentLoader reads the current state of an appointment.
type AppointmentLoader interface {
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (*apptrepo.Appointment, error)
}

// TaskLoader reads the current state of a task.
type TaskLoader interface {
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (*taskrepo.Task, error)
}

type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	appointments AppointmentLoader
	tasks        TaskLoader
	bus          events.Bus
	log          *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, appointments AppointmentLoader, tasks TaskLoader, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newHandlers(appointments, tasks, bus, log)
	w.server = server
	return w, nil
}

func newHandlers(appointments AppointmentLoader, tasks TaskLoader, bus events.Bus, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Nop()
	}
	w := &Worker{
		mux:          asynq.NewServeMux(),
		appointments: appointments,
		tasks:        tasks,
		bus:          bus,
		log:          log,
	}
	w.mux.HandleFunc(TaskAppointmentReminder, w.handleAppointmentReminder)
	w.mux.HandleFunc(TaskTaskDue, w.handleTaskDue)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func parseIDs(rawID, rawOrg string) (uuid.UUID, uuid.UUID, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	orgID, err := uuid.Parse(rawOrg)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return id, orgID, nil
}

// handleAppointmentReminder drops reminders for appointments that were
// deleted, are no longer scheduled, or moved since the reminder was planned.
func (w *Worker) handleAppointmentReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAppointmentReminderPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	apptID, orgID, err := parseIDs(payload.AppointmentID, payload.OrganizationID)
	if err != nil {
		return err
	}

	appt, err := w.appointments.GetByID(ctx, apptID, orgID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if appt.Status != "scheduled" || !sameSecond(appt.StartTime, payload.StartTime) {
		w.log.Debug("dropping stale appointment reminder", "appointmentId", apptID)
		return nil
	}

	if w.bus == nil {
		return nil
	}

	w.bus.Publish(ctx, events.AppointmentReminderDue{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: appt.OrganizationID,
		AppointmentID:  appt.ID,
		AssignedTo:     appt.AssignedTo,
		LeadID:         appt.LeadID,
		Title:          appt.Title,
		Location:       getOptionalString(appt.Location),
		StartTime:      appt.StartTime,
		EndTime:        appt.EndTime,
	})

	return nil
}

// handleTaskDue fires only while the task is unfinished and still due at the
// planned time.
func (w *Worker) handleTaskDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTaskDuePayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	taskID, orgID, err := parseIDs(payload.TaskID, payload.OrganizationID)
	if err != nil {
		return err
	}

	t, err := w.tasks.GetByID(ctx, taskID, orgID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if t.Status == "done" || t.DueAt == nil || !sameSecond(*t.DueAt, payload.DueAt) {
		w.log.Debug("dropping stale task due notification", "taskId", taskID)
		return nil
	}

	if w.bus == nil {
		return nil
	}

	w.bus.Publish(ctx, events.TaskDue{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: t.OrganizationID,
		TaskID:         t.ID,
		AssignedTo:     t.AssignedTo,
		LeadID:         t.LeadID,
		Title:          t.Title,
		DueAt:          *t.DueAt,
	})

	return nil
}

// sameSecond ignores sub-second drift between the planned and stored times.
func sameSecond(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

func getOptionalString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
