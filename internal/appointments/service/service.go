package service

import (
	"context"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/appointments/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/appointments/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/scheduler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/sanitize"

	"github.com/google/uuid"
)

// Date/time format and error message constants.
const (
	dateFormat           = "2006-01-02"
	errEndTimeAfterStart = "endTime must be after startTime"
	errTimeslotBooked    = "timeslot already booked"
	defaultPageSize      = 20
)

// LeadReference checks that an appointment may point at a lead.
type LeadReference interface {
	EnsureVisible(ctx context.Context, actor access.Actor, leadID uuid.UUID) error
}

// MemberDirectory answers whether a team member can be scheduled.
type MemberDirectory interface {
	IsActiveMember(ctx context.Context, organizationID, memberID uuid.UUID) (bool, error)
}

// Service provides business logic for appointments
type Service struct {
	repo              repository.Store
	leads             LeadReference
	members           MemberDirectory
	eventBus          events.Bus
	reminderScheduler scheduler.ReminderScheduler
	log               *logger.Logger
	now               func() time.Time
}

// New creates a new appointments service
func New(repo repository.Store, leads LeadReference, members MemberDirectory, eventBus events.Bus, reminderScheduler scheduler.ReminderScheduler, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:              repo,
		leads:             leads,
		members:           members,
		eventBus:          eventBus,
		reminderScheduler: reminderScheduler,
		log:               log,
		now:               time.Now,
	}
}

// Create creates a new appointment
func (s *Service) Create(ctx context.Context, actor access.Actor, req transport.CreateAppointmentRequest) (*transport.AppointmentResponse, error) {
	assignee, err := s.resolveAssignee(ctx, actor, req.AssignedTo)
	if err != nil {
		return nil, err
	}

	if !req.EndTime.After(req.StartTime) {
		return nil, apperr.Validation(errEndTimeAfterStart)
	}

	if req.LeadID != nil {
		if err := s.leads.EnsureVisible(ctx, actor, *req.LeadID); err != nil {
			return nil, err
		}
	}

	if err := s.checkTimeConflict(ctx, actor.OrgID, assignee, req.StartTime, req.EndTime, uuid.Nil); err != nil {
		return nil, err
	}

	appt := s.buildAppointment(actor, assignee, req)
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.scheduleReminder(ctx, appt)

	resp := appt.ToResponse(s.getLeadInfo(ctx, appt.LeadID, actor.OrgID))
	s.publishChange(ctx, events.OpInsert, appt, nil, resp)
	return &resp, nil
}

// resolveAssignee defaults to the actor. Associates can only schedule
// themselves.
func (s *Service) resolveAssignee(ctx context.Context, actor access.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if requested == nil || *requested == actor.MemberID {
		return actor.MemberID, nil
	}
	if !actor.SeesAll() {
		return uuid.Nil, apperr.Forbidden("associates can only schedule appointments for themselves")
	}
	if s.members != nil {
		ok, err := s.members.IsActiveMember(ctx, actor.OrgID, *requested)
		if err != nil {
			return uuid.Nil, err
		}
		if !ok {
			return uuid.Nil, apperr.Validation("assignee must be an active team member")
		}
	}
	return *requested, nil
}

// checkTimeConflict checks for overlapping appointments, excluding excludeID if non-nil.
func (s *Service) checkTimeConflict(ctx context.Context, tenantID, assignee uuid.UUID, startTime, endTime time.Time, excludeID uuid.UUID) error {
	existing, err := s.repo.ListForDateRange(ctx, tenantID, assignee, startTime, endTime)
	if err != nil {
		return err
	}
	for _, appt := range existing {
		if excludeID != uuid.Nil && appt.ID == excludeID {
			continue
		}
		if startTime.Before(appt.EndTime) && endTime.After(appt.StartTime) {
			return apperr.Conflict(errTimeslotBooked).WithDetails(map[string]interface{}{
				"appointmentId": appt.ID,
				"startTime":     appt.StartTime,
				"endTime":       appt.EndTime,
			})
		}
	}
	return nil
}

// buildAppointment creates a new Appointment from the request.
func (s *Service) buildAppointment(actor access.Actor, assignee uuid.UUID, req transport.CreateAppointmentRequest) *repository.Appointment {
	now := s.now()
	reminder := transport.DefaultReminderMinutes
	if req.ReminderMinutes != nil {
		reminder = *req.ReminderMinutes
	}
	creator := actor.MemberID

	return &repository.Appointment{
		ID:              uuid.New(),
		OrganizationID:  actor.OrgID,
		AssignedTo:      assignee,
		LeadID:          req.LeadID,
		Title:           sanitize.Text(req.Title),
		Description:     sanitize.OptionalText(&req.Description),
		Location:        sanitize.OptionalText(&req.Location),
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Status:          string(transport.AppointmentStatusScheduled),
		ReminderMinutes: reminder,
		CreatedBy:       &creator,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// loadVisible hides other members' appointments from associates.
func (s *Service) loadVisible(ctx context.Context, actor access.Actor, id uuid.UUID) (*repository.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id, actor.OrgID)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(&appt.AssignedTo) {
		return nil, apperr.NotFound("appointment not found")
	}
	return appt, nil
}

// GetByID retrieves an appointment by ID
func (s *Service) GetByID(ctx context.Context, actor access.Actor, id uuid.UUID) (*transport.AppointmentResponse, error) {
	appt, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := appt.ToResponse(s.getLeadInfo(ctx, appt.LeadID, actor.OrgID))
	return &resp, nil
}

// Update updates an appointment. Moving it re-checks the assignee's calendar
// and plans a new reminder.
func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.UpdateAppointmentRequest) (*transport.AppointmentResponse, error) {
	appt, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	previousAssignee := appt.AssignedTo
	previousStart := appt.StartTime
	previousReminder := appt.ReminderMinutes

	if req.AssignedTo != nil && *req.AssignedTo != appt.AssignedTo {
		assignee, err := s.resolveAssignee(ctx, actor, req.AssignedTo)
		if err != nil {
			return nil, err
		}
		appt.AssignedTo = assignee
	}
	if req.LeadID != nil {
		if err := s.leads.EnsureVisible(ctx, actor, *req.LeadID); err != nil {
			return nil, err
		}
		appt.LeadID = req.LeadID
	}
	if req.Title != nil {
		appt.Title = sanitize.Text(*req.Title)
	}
	if req.Description != nil {
		appt.Description = sanitize.OptionalText(req.Description)
	}
	if req.Location != nil {
		appt.Location = sanitize.OptionalText(req.Location)
	}
	if req.StartTime != nil {
		appt.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		appt.EndTime = *req.EndTime
	}
	if req.ReminderMinutes != nil {
		appt.ReminderMinutes = *req.ReminderMinutes
	}

	if !appt.EndTime.After(appt.StartTime) {
		return nil, apperr.Validation(errEndTimeAfterStart)
	}

	moved := !appt.StartTime.Equal(previousStart) || req.EndTime != nil || appt.AssignedTo != previousAssignee
	if moved && appt.Status == string(transport.AppointmentStatusScheduled) {
		if err := s.checkTimeConflict(ctx, actor.OrgID, appt.AssignedTo, appt.StartTime, appt.EndTime, appt.ID); err != nil {
			return nil, err
		}
	}

	appt.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}

	if !appt.StartTime.Equal(previousStart) || appt.ReminderMinutes != previousReminder {
		s.scheduleReminder(ctx, appt)
	}

	resp := appt.ToResponse(s.getLeadInfo(ctx, appt.LeadID, actor.OrgID))
	var previous *uuid.UUID
	if previousAssignee != appt.AssignedTo {
		previous = &previousAssignee
	}
	s.publishChange(ctx, events.OpUpdate, appt, previous, resp)
	return &resp, nil
}

// UpdateStatus updates the status of an appointment
func (s *Service) UpdateStatus(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.UpdateAppointmentStatusRequest) (*transport.AppointmentResponse, error) {
	appt, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == string(req.Status) {
		resp := appt.ToResponse(s.getLeadInfo(ctx, appt.LeadID, actor.OrgID))
		return &resp, nil
	}

	if req.Status == transport.AppointmentStatusScheduled {
		if err := s.checkTimeConflict(ctx, actor.OrgID, appt.AssignedTo, appt.StartTime, appt.EndTime, appt.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, actor.OrgID, string(req.Status)); err != nil {
		return nil, err
	}

	appt.Status = string(req.Status)
	appt.UpdatedAt = s.now()
	if req.Status == transport.AppointmentStatusScheduled {
		s.scheduleReminder(ctx, appt)
	}

	resp := appt.ToResponse(s.getLeadInfo(ctx, appt.LeadID, actor.OrgID))
	s.publishChange(ctx, events.OpUpdate, appt, nil, resp)
	return &resp, nil
}

// Delete removes an appointment
func (s *Service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	appt, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, actor.OrgID); err != nil {
		return err
	}
	s.publishChange(ctx, events.OpDelete, appt, nil, nil)
	return nil
}

// List retrieves appointments with filtering
func (s *Service) List(ctx context.Context, actor access.Actor, req transport.ListAppointmentsRequest) (*transport.AppointmentListResponse, error) {
	params := repository.ListParams{
		OrganizationID: actor.OrgID,
		AssignedTo:     req.AssignedTo,
		LeadID:         req.LeadID,
		Search:         req.Search,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
		Page:           req.Page,
		PageSize:       req.PageSize,
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if req.Status != nil {
		status := string(*req.Status)
		params.Status = &status
	}
	if owner := actor.OwnerFilter(); owner != nil {
		params.AssignedTo = owner
	}

	var err error
	if params.StartFrom, err = parseRangeBound(req.From, false); err != nil {
		return nil, err
	}
	if params.StartTo, err = parseRangeBound(req.To, true); err != nil {
		return nil, err
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	leadIDs := make([]uuid.UUID, 0, len(result.Items))
	for _, appt := range result.Items {
		if appt.LeadID != nil {
			leadIDs = append(leadIDs, *appt.LeadID)
		}
	}
	leadInfo, err := s.repo.GetLeadInfoBatch(ctx, leadIDs, actor.OrgID)
	if err != nil {
		return nil, err
	}

	items := make([]transport.AppointmentResponse, 0, len(result.Items))
	for _, appt := range result.Items {
		var info *repository.LeadInfo
		if appt.LeadID != nil {
			info = leadInfo[*appt.LeadID]
		}
		items = append(items, appt.ToResponse(info))
	}

	return &transport.AppointmentListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// parseRangeBound accepts RFC 3339 or a plain date. A plain upper bound
// covers the whole day.
func parseRangeBound(raw string, upper bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateFormat, raw)
	if err != nil {
		return nil, apperr.BadRequest("invalid date: " + raw)
	}
	if upper {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

// scheduleReminder plans the reminder of a scheduled appointment when its
// time is still ahead. Failures are logged; the appointment stands.
func (s *Service) scheduleReminder(ctx context.Context, appt *repository.Appointment) {
	if s.reminderScheduler == nil || appt.Status != string(transport.AppointmentStatusScheduled) {
		return
	}
	reminderAt := appt.ReminderAt()
	if !reminderAt.After(s.now()) {
		return
	}
	err := s.reminderScheduler.ScheduleAppointmentReminder(ctx, scheduler.AppointmentReminderPayload{
		AppointmentID:  appt.ID.String(),
		OrganizationID: appt.OrganizationID.String(),
		StartTime:      appt.StartTime,
	}, reminderAt)
	if err != nil {
		s.log.Warn("failed to schedule appointment reminder", "error", err, "appointmentId", appt.ID)
	}
}

func (s *Service) getLeadInfo(ctx context.Context, leadID *uuid.UUID, tenantID uuid.UUID) *repository.LeadInfo {
	if leadID == nil {
		return nil
	}
	infos, err := s.repo.GetLeadInfoBatch(ctx, []uuid.UUID{*leadID}, tenantID)
	if err != nil {
		s.log.Warn("failed to load lead info", "error", err, "leadId", *leadID)
		return nil
	}
	return infos[*leadID]
}

func (s *Service) publishChange(ctx context.Context, op string, appt *repository.Appointment, previousAssignee *uuid.UUID, record interface{}) {
	if s.eventBus == nil {
		return
	}
	owner := appt.AssignedTo
	evt := events.RowChanged{
		BaseEvent:          events.NewBaseEvent(),
		OrganizationID:     appt.OrganizationID,
		Table:              events.TableAppointments,
		Op:                 op,
		RecordID:           appt.ID,
		AssignedTo:         &owner,
		PreviousAssignedTo: previousAssignee,
		Record:             record,
	}
	s.eventBus.Publish(ctx, evt)
}
