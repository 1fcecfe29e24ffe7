// Package management handles lead CRUD, assignment and pipeline status.
package management

import (
	"context"
	"strings"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/domain"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/phone"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/sanitize"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/textnorm"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultSource   = "manual"
)

// Repository is the data access needed by the management service.
type Repository interface {
	repository.LeadReader
	repository.LeadWriter
	repository.ActivityLogger
	repository.DuplicateFinder
	repository.MetricsReader
}

// MemberDirectory answers whether a team member can own leads.
type MemberDirectory interface {
	IsActiveMember(ctx context.Context, organizationID, memberID uuid.UUID) (bool, error)
}

// LeadInput is a lead as entered by a person, a webhook or an import row.
type LeadInput struct {
	FullName   string
	Email      string
	Phone      string
	Company    string
	Source     string
	Status     string
	Value      float64
	AssignedTo *uuid.UUID
	Notes      string
}

type Service struct {
	repo    Repository
	bus     events.Bus
	members MemberDirectory
	log     *logger.Logger
}

func New(repo Repository, bus events.Bus, members MemberDirectory, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, bus: bus, members: members, log: log}
}

// buildCreateParams sanitizes input and derives the matching keys.
func buildCreateParams(organizationID uuid.UUID, createdBy *uuid.UUID, in LeadInput) (repository.CreateLeadParams, error) {
	fullName := sanitize.Text(in.FullName)
	if fullName == "" {
		return repository.CreateLeadParams{}, apperr.Validation("full name is required")
	}
	if in.Value < 0 {
		return repository.CreateLeadParams{}, apperr.Validation("value cannot be negative")
	}

	status := in.Status
	if status == "" {
		status = domain.StatusNew
	}
	if !domain.ValidStatus(status) {
		return repository.CreateLeadParams{}, apperr.Validation("invalid status")
	}

	source := sanitize.Text(in.Source)
	if source == "" {
		source = defaultSource
	}

	params := repository.CreateLeadParams{
		OrganizationID: organizationID,
		FullName:       fullName,
		NameKey:        textnorm.Fold(fullName),
		Source:         source,
		Status:         status,
		Value:          in.Value,
		AssignedTo:     in.AssignedTo,
		CreatedBy:      createdBy,
	}

	if email := sanitize.Email(in.Email); email != "" {
		params.Email = &email
	}
	if raw := strings.TrimSpace(in.Phone); raw != "" {
		formatted := phone.NormalizeE164(raw)
		key := phone.MatchKey(raw)
		params.Phone = &formatted
		if key != "" {
			params.PhoneNormalized = &key
		}
	}
	if company := sanitize.Text(in.Company); company != "" {
		params.Company = &company
	}
	if notes := sanitize.Text(in.Notes); notes != "" {
		params.Notes = &notes
	}
	return params, nil
}

// ValidateInput reports whether in could be stored as a lead.
func ValidateInput(in LeadInput) error {
	_, err := buildCreateParams(uuid.Nil, nil, in)
	return err
}

func contactOf(p repository.CreateLeadParams) domain.Contact {
	return domain.Contact{
		FullName: p.FullName,
		Email:    deref(p.Email),
		Phone:    deref(p.Phone),
		Company:  deref(p.Company),
	}
}

// Create stores a new lead. Possible duplicates block creation unless force
// is set. Associates always own the leads they create.
func (s *Service) Create(ctx context.Context, actor access.Actor, in LeadInput, force bool) (transport.LeadResponse, error) {
	if !actor.SeesAll() {
		self := actor.MemberID
		in.AssignedTo = &self
	} else if in.AssignedTo != nil {
		if err := s.ensureAssignable(ctx, actor.OrgID, *in.AssignedTo); err != nil {
			return transport.LeadResponse{}, err
		}
	}

	creator := actor.MemberID
	params, err := buildCreateParams(actor.OrgID, &creator, in)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if !force {
		matches, err := s.DetectDuplicates(ctx, actor.OrgID, contactOf(params))
		if err != nil {
			return transport.LeadResponse{}, err
		}
		if len(matches) > 0 {
			return transport.LeadResponse{}, apperr.Conflict("possible duplicate lead").
				WithDetails(map[string]interface{}{"matches": matches})
		}
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.logActivity(ctx, lead, &creator, domain.ActionCreated, map[string]interface{}{"source": lead.Source})
	s.publishChange(ctx, events.OpInsert, lead, nil)
	if lead.AssignedTo != nil && *lead.AssignedTo != actor.MemberID {
		s.publishAssigned(ctx, lead, nil, actor.MemberID)
	}

	return toLeadResponse(lead), nil
}

// loadVisible returns the lead when the actor may see it. Leads owned by
// someone else look like missing leads to associates.
func (s *Service) loadVisible(ctx context.Context, actor access.Actor, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id, actor.OrgID)
	if err != nil {
		return repository.Lead{}, err
	}
	if !actor.CanSee(lead.AssignedTo) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (s *Service) GetByID(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

// ListParams turns query filters into repository parameters scoped to what
// the actor can see.
func ListParams(actor access.Actor, req transport.ListLeadsRequest) (repository.ListParams, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := repository.ListParams{
		OrganizationID: actor.OrgID,
		Status:         req.Status,
		Source:         req.Source,
		Search:         req.Search,
		MinValue:       req.MinValue,
		MaxValue:       req.MaxValue,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
		Offset:         (page - 1) * pageSize,
		Limit:          pageSize,
	}

	switch req.AssignedTo {
	case "":
	case "unassigned":
		params.Unassigned = true
	default:
		id, err := uuid.Parse(req.AssignedTo)
		if err != nil {
			return repository.ListParams{}, apperr.BadRequest("invalid assignedTo")
		}
		params.AssignedTo = &id
	}

	var err error
	if params.CreatedFrom, err = parseTimeParam(req.CreatedFrom, false); err != nil {
		return repository.ListParams{}, err
	}
	if params.CreatedTo, err = parseTimeParam(req.CreatedTo, true); err != nil {
		return repository.ListParams{}, err
	}
	if params.MinValue != nil && params.MaxValue != nil && *params.MinValue > *params.MaxValue {
		return repository.ListParams{}, apperr.BadRequest("minValue cannot exceed maxValue")
	}

	if owner := actor.OwnerFilter(); owner != nil {
		params.AssignedTo = owner
		params.Unassigned = false
	}
	return params, nil
}

// parseTimeParam accepts RFC 3339 or a plain date. A plain end date includes
// the whole day.
func parseTimeParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperr.BadRequest("invalid date: " + raw)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

func (s *Service) List(ctx context.Context, actor access.Actor, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	params, err := ListParams(actor, req)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, toLeadResponse(lead))
	}

	totalPages := (total + params.Limit - 1) / params.Limit
	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       params.Offset/params.Limit + 1,
		PageSize:   params.Limit,
		TotalPages: totalPages,
	}, nil
}

// Update applies a partial update. Ownership changes go through Assign.
func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	if _, err := s.loadVisible(ctx, actor, id); err != nil {
		return transport.LeadResponse{}, err
	}

	params := repository.UpdateLeadParams{}
	changed := make([]string, 0)

	if req.FullName != nil {
		name := sanitize.Text(*req.FullName)
		if name == "" {
			return transport.LeadResponse{}, apperr.Validation("full name cannot be empty")
		}
		key := textnorm.Fold(name)
		params.FullName = &name
		params.NameKey = &key
		changed = append(changed, "fullName")
	}
	if req.Email != nil {
		email := sanitize.Email(*req.Email)
		if email != "" && !strings.Contains(email, "@") {
			return transport.LeadResponse{}, apperr.Validation("invalid email")
		}
		params.Email = &email
		changed = append(changed, "email")
	}
	if req.Phone != nil {
		raw := strings.TrimSpace(*req.Phone)
		formatted, key := "", ""
		if raw != "" {
			formatted = phone.NormalizeE164(raw)
			key = phone.MatchKey(raw)
		}
		params.Phone = &formatted
		params.PhoneNormalized = &key
		changed = append(changed, "phone")
	}
	if req.Company != nil {
		company := sanitize.Text(*req.Company)
		params.Company = &company
		changed = append(changed, "company")
	}
	if req.Source != nil {
		source := sanitize.Text(*req.Source)
		if source == "" {
			source = defaultSource
		}
		params.Source = &source
		changed = append(changed, "source")
	}
	if req.Value != nil {
		if *req.Value < 0 {
			return transport.LeadResponse{}, apperr.Validation("value cannot be negative")
		}
		params.Value = req.Value
		changed = append(changed, "value")
	}
	if req.Notes != nil {
		notes := sanitize.Text(*req.Notes)
		params.Notes = &notes
		changed = append(changed, "notes")
	}

	lead, err := s.repo.Update(ctx, id, actor.OrgID, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if len(changed) > 0 {
		actorID := actor.MemberID
		s.logActivity(ctx, lead, &actorID, domain.ActionUpdated, map[string]interface{}{"fields": changed})
		s.publishChange(ctx, events.OpUpdate, lead, nil)
	}
	return toLeadResponse(lead), nil
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if !actor.SeesAll() {
		return apperr.Forbidden("only admins and sales managers can delete leads")
	}

	lead, err := s.repo.GetByID(ctx, id, actor.OrgID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, actor.OrgID); err != nil {
		return err
	}

	s.publishDelete(ctx, actor.OrgID, lead.ID, lead.AssignedTo)
	return nil
}

func (s *Service) BulkDelete(ctx context.Context, actor access.Actor, ids []uuid.UUID) (int, error) {
	if !actor.SeesAll() {
		return 0, apperr.Forbidden("only admins and sales managers can delete leads")
	}

	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	deleted, err := s.repo.BulkDelete(ctx, unique, actor.OrgID)
	if err != nil {
		return 0, err
	}
	for _, d := range deleted {
		s.publishDelete(ctx, actor.OrgID, d.ID, d.AssignedTo)
	}
	return len(deleted), nil
}

func (s *Service) ListActivity(ctx context.Context, actor access.Actor, id uuid.UUID) ([]transport.ActivityResponse, error) {
	if _, err := s.loadVisible(ctx, actor, id); err != nil {
		return nil, err
	}

	items, err := s.repo.ListActivity(ctx, id, actor.OrgID)
	if err != nil {
		return nil, err
	}

	resp := make([]transport.ActivityResponse, 0, len(items))
	for _, a := range items {
		resp = append(resp, toActivityResponse(a))
	}
	return resp, nil
}

// Metrics returns pipeline KPIs over the leads the actor can see.
func (s *Service) Metrics(ctx context.Context, actor access.Actor) (transport.LeadMetricsResponse, error) {
	m, err := s.repo.GetMetrics(ctx, actor.OrgID, actor.OwnerFilter())
	if err != nil {
		return transport.LeadMetricsResponse{}, err
	}

	for _, status := range domain.Statuses {
		if _, ok := m.ByStatus[status]; !ok {
			m.ByStatus[status] = 0
			m.ValueByStatus[status] = 0
		}
	}

	won, lost := m.ByStatus[domain.StatusWon], m.ByStatus[domain.StatusLost]
	conversion := 0.0
	if won+lost > 0 {
		conversion = float64(won) / float64(won+lost)
	}

	return transport.LeadMetricsResponse{
		TotalLeads:     m.TotalLeads,
		NewThisWeek:    m.NewThisWeek,
		ByStatus:       m.ByStatus,
		ValueByStatus:  m.ValueByStatus,
		TotalValue:     m.TotalValue,
		WonValue:       m.WonValue,
		ConversionRate: conversion,
		Touchpoints:    m.Touchpoints,
	}, nil
}

func (s *Service) ensureAssignable(ctx context.Context, organizationID, memberID uuid.UUID) error {
	if s.members == nil {
		return nil
	}
	ok, err := s.members.IsActiveMember(ctx, organizationID, memberID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("assignee must be an active team member")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
