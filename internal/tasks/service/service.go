// Package service implements task management.
package service

import (
	"context"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/scheduler"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/tasks/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/tasks/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	msgTaskNotFound = "task not found"
)

// LeadReference checks that a task may point at a lead.
type LeadReference interface {
	EnsureVisible(ctx context.Context, actor access.Actor, leadID uuid.UUID) error
}

// MemberDirectory answers whether a team member can own work.
type MemberDirectory interface {
	IsActiveMember(ctx context.Context, organizationID, memberID uuid.UUID) (bool, error)
}

type Service struct {
	repo         repository.Store
	leads        LeadReference
	members      MemberDirectory
	eventBus     events.Bus
	dueScheduler scheduler.TaskDueScheduler
	log          *logger.Logger
	now          func() time.Time
}

func New(repo repository.Store, leads LeadReference, members MemberDirectory, eventBus events.Bus, dueScheduler scheduler.TaskDueScheduler, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:         repo,
		leads:        leads,
		members:      members,
		eventBus:     eventBus,
		dueScheduler: dueScheduler,
		log:          log,
		now:          time.Now,
	}
}

func (s *Service) Create(ctx context.Context, actor access.Actor, req transport.CreateTaskRequest) (*transport.TaskResponse, error) {
	assignee, err := s.resolveAssignee(ctx, actor, req.AssignedTo)
	if err != nil {
		return nil, err
	}
	if req.LeadID != nil {
		if err := s.leads.EnsureVisible(ctx, actor, *req.LeadID); err != nil {
			return nil, err
		}
	}

	priority := req.Priority
	if priority == "" {
		priority = transport.TaskPriorityMedium
	}
	now := s.now()
	creator := actor.MemberID
	task := &repository.Task{
		ID:             uuid.New(),
		OrganizationID: actor.OrgID,
		LeadID:         req.LeadID,
		AssignedTo:     assignee,
		Title:          sanitize.Text(req.Title),
		Description:    sanitize.OptionalText(&req.Description),
		Priority:       string(priority),
		Status:         string(transport.TaskStatusOpen),
		DueAt:          req.DueAt,
		CreatedBy:      &creator,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.scheduleDue(ctx, task)
	resp := s.toResponse(task)
	s.publishChange(ctx, events.OpInsert, task, nil, resp)
	return &resp, nil
}

// resolveAssignee defaults to the actor. Associates may only assign to
// themselves.
func (s *Service) resolveAssignee(ctx context.Context, actor access.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if requested == nil || *requested == actor.MemberID {
		return actor.MemberID, nil
	}
	if !actor.SeesAll() {
		return uuid.Nil, apperr.Forbidden("associates can only assign tasks to themselves")
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

func (s *Service) loadVisible(ctx context.Context, actor access.Actor, id uuid.UUID) (*repository.Task, error) {
	task, err := s.repo.GetByID(ctx, id, actor.OrgID)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(&task.AssignedTo) {
		return nil, apperr.NotFound(msgTaskNotFound)
	}
	return task, nil
}

func (s *Service) GetByID(ctx context.Context, actor access.Actor, id uuid.UUID) (*transport.TaskResponse, error) {
	task, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(task)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, actor access.Actor, req transport.ListTasksRequest) (*transport.TaskListResponse, error) {
	params := repository.ListParams{
		OrganizationID: actor.OrgID,
		AssignedTo:     req.AssignedTo,
		LeadID:         req.LeadID,
		DueBefore:      req.DueBefore,
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
	if req.Overdue {
		now := s.now()
		params.OverdueAt = &now
	}
	if owner := actor.OwnerFilter(); owner != nil {
		params.AssignedTo = owner
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]transport.TaskResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, s.toResponse(&result.Items[i]))
	}
	return &transport.TaskListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.UpdateTaskRequest) (*transport.TaskResponse, error) {
	task, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	previousAssignee := task.AssignedTo
	previousDue := task.DueAt

	if req.AssignedTo != nil && *req.AssignedTo != task.AssignedTo {
		assignee, err := s.resolveAssignee(ctx, actor, req.AssignedTo)
		if err != nil {
			return nil, err
		}
		task.AssignedTo = assignee
	}
	if req.LeadID != nil {
		if err := s.leads.EnsureVisible(ctx, actor, *req.LeadID); err != nil {
			return nil, err
		}
		task.LeadID = req.LeadID
	}
	if req.Title != nil {
		task.Title = sanitize.Text(*req.Title)
	}
	if req.Description != nil {
		task.Description = sanitize.OptionalText(req.Description)
	}
	if req.Priority != nil {
		task.Priority = string(*req.Priority)
	}
	if req.ClearDueAt {
		task.DueAt = nil
	} else if req.DueAt != nil {
		task.DueAt = req.DueAt
	}
	if req.Status != nil {
		s.applyStatus(task, *req.Status)
	}

	task.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}

	if !sameTime(previousDue, task.DueAt) {
		s.scheduleDue(ctx, task)
	}

	resp := s.toResponse(task)
	var previous *uuid.UUID
	if previousAssignee != task.AssignedTo {
		previous = &previousAssignee
	}
	s.publishChange(ctx, events.OpUpdate, task, previous, resp)
	return &resp, nil
}

// Complete marks the task done and stamps completed_at.
func (s *Service) Complete(ctx context.Context, actor access.Actor, id uuid.UUID) (*transport.TaskResponse, error) {
	return s.transition(ctx, actor, id, transport.TaskStatusDone)
}

// Reopen moves a task back to open and clears completed_at.
func (s *Service) Reopen(ctx context.Context, actor access.Actor, id uuid.UUID) (*transport.TaskResponse, error) {
	return s.transition(ctx, actor, id, transport.TaskStatusOpen)
}

func (s *Service) transition(ctx context.Context, actor access.Actor, id uuid.UUID, status transport.TaskStatus) (*transport.TaskResponse, error) {
	task, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if task.Status == string(status) {
		resp := s.toResponse(task)
		return &resp, nil
	}

	wasDone := task.Status == string(transport.TaskStatusDone)
	s.applyStatus(task, status)
	task.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	if wasDone {
		s.scheduleDue(ctx, task)
	}

	resp := s.toResponse(task)
	s.publishChange(ctx, events.OpUpdate, task, nil, resp)
	return &resp, nil
}

func (s *Service) applyStatus(task *repository.Task, status transport.TaskStatus) {
	task.Status = string(status)
	if status == transport.TaskStatusDone {
		now := s.now()
		task.CompletedAt = &now
		return
	}
	task.CompletedAt = nil
}

// Delete is allowed to the creator and to admins and managers.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	task, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return err
	}
	isCreator := task.CreatedBy != nil && *task.CreatedBy == actor.MemberID
	if !actor.SeesAll() && !isCreator {
		return apperr.Forbidden("only the creator, an admin or a manager can delete this task")
	}
	if err := s.repo.Delete(ctx, id, actor.OrgID); err != nil {
		return err
	}
	s.publishChange(ctx, events.OpDelete, task, nil, nil)
	return nil
}

// scheduleDue enqueues the due notification of an unfinished task whose due
// time is still ahead.
func (s *Service) scheduleDue(ctx context.Context, task *repository.Task) {
	if s.dueScheduler == nil || task.DueAt == nil || task.Status == string(transport.TaskStatusDone) {
		return
	}
	if !task.DueAt.After(s.now()) {
		return
	}
	err := s.dueScheduler.ScheduleTaskDue(ctx, scheduler.TaskDuePayload{
		TaskID:         task.ID.String(),
		OrganizationID: task.OrganizationID.String(),
		DueAt:          *task.DueAt,
	}, *task.DueAt)
	if err != nil {
		s.log.Warn("failed to schedule task due notification", "error", err, "taskId", task.ID)
	}
}

func (s *Service) toResponse(t *repository.Task) transport.TaskResponse {
	return transport.TaskResponse{
		ID:          t.ID,
		LeadID:      t.LeadID,
		AssignedTo:  t.AssignedTo,
		Title:       t.Title,
		Description: t.Description,
		Priority:    transport.TaskPriority(t.Priority),
		Status:      transport.TaskStatus(t.Status),
		DueAt:       t.DueAt,
		CompletedAt: t.CompletedAt,
		Overdue:     t.IsOverdue(s.now()),
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (s *Service) publishChange(ctx context.Context, op string, task *repository.Task, previousAssignee *uuid.UUID, record interface{}) {
	if s.eventBus == nil {
		return
	}
	owner := task.AssignedTo
	s.eventBus.Publish(ctx, events.RowChanged{
		BaseEvent:          events.NewBaseEvent(),
		OrganizationID:     task.OrganizationID,
		Table:              events.TableTasks,
		Op:                 op,
		RecordID:           task.ID,
		AssignedTo:         &owner,
		PreviousAssignedTo: previousAssignee,
		Record:             record,
	})
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
