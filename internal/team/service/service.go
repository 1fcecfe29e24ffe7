// Package service implements team-member management and role rules.
package service

import (
	"context"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/team/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/phone"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/sanitize"

	"github.com/google/uuid"
)

const lastAdminMsg = "the organization must keep at least one active admin"

type CreateParams struct {
	FullName string
	Email    string
	Phone    *string
	Role     string
}

type Service struct {
	repo repository.Store
	bus  events.Bus
}

func New(repo repository.Store, bus events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

func (s *Service) List(ctx context.Context, actor access.Actor, params repository.ListParams) ([]repository.Member, error) {
	params.OrganizationID = actor.OrgID
	return s.repo.List(ctx, params)
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (repository.Member, error) {
	return s.repo.GetByID(ctx, id, actor.OrgID)
}

// Lookup loads a member of organizationID without an actor. Other modules use
// it to resolve assignees.
func (s *Service) Lookup(ctx context.Context, organizationID, id uuid.UUID) (repository.Member, error) {
	return s.repo.GetByID(ctx, id, organizationID)
}

// ActiveMembers lists the active members of an organization.
func (s *Service) ActiveMembers(ctx context.Context, organizationID uuid.UUID) ([]repository.Member, error) {
	active := true
	return s.repo.List(ctx, repository.ListParams{OrganizationID: organizationID, Active: &active})
}

func (s *Service) Create(ctx context.Context, actor access.Actor, p CreateParams) (repository.Member, error) {
	if !actor.IsAdmin() {
		return repository.Member{}, apperr.Forbidden("only admins can add team members")
	}
	if !access.ValidRole(p.Role) {
		return repository.Member{}, apperr.Validation("invalid role")
	}

	member, err := s.repo.Create(ctx, repository.Member{
		OrganizationID: actor.OrgID,
		FullName:       sanitize.Text(p.FullName),
		Email:          sanitize.Email(p.Email),
		Phone:          normalizePhone(p.Phone),
		Role:           p.Role,
	})
	if err != nil {
		return repository.Member{}, err
	}

	s.publishChange(ctx, events.OpInsert, member)
	return member, nil
}

// Update changes profile fields. Admins may edit anyone, others only themselves.
func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, p repository.UpdateParams) (repository.Member, error) {
	if !actor.IsAdmin() && actor.MemberID != id {
		return repository.Member{}, apperr.Forbidden("you can only edit your own profile")
	}

	if p.FullName != nil {
		v := sanitize.Text(*p.FullName)
		if v == "" {
			return repository.Member{}, apperr.Validation("full name cannot be empty")
		}
		p.FullName = &v
	}
	if p.Email != nil {
		v := sanitize.Email(*p.Email)
		p.Email = &v
	}
	p.Phone = normalizePhone(p.Phone)

	member, err := s.repo.Update(ctx, id, actor.OrgID, p)
	if err != nil {
		return repository.Member{}, err
	}

	s.publishChange(ctx, events.OpUpdate, member)
	return member, nil
}

func (s *Service) ChangeRole(ctx context.Context, actor access.Actor, id uuid.UUID, role string) (repository.Member, error) {
	if !actor.IsAdmin() {
		return repository.Member{}, apperr.Forbidden("only admins can change roles")
	}
	if !access.ValidRole(role) {
		return repository.Member{}, apperr.Validation("invalid role")
	}

	current, err := s.repo.GetByID(ctx, id, actor.OrgID)
	if err != nil {
		return repository.Member{}, err
	}
	if current.Role == role {
		return current, nil
	}
	if current.Role == access.RoleAdmin && current.IsActive {
		if err := s.ensureAnotherAdmin(ctx, actor.OrgID); err != nil {
			return repository.Member{}, err
		}
	}

	member, err := s.repo.SetRole(ctx, id, actor.OrgID, role)
	if err != nil {
		return repository.Member{}, err
	}

	s.publishChange(ctx, events.OpUpdate, member)
	return member, nil
}

// SetActive deactivates or reactivates a member. Assigned records are kept.
func (s *Service) SetActive(ctx context.Context, actor access.Actor, id uuid.UUID, active bool) (repository.Member, error) {
	if !actor.IsAdmin() {
		return repository.Member{}, apperr.Forbidden("only admins can change member status")
	}

	current, err := s.repo.GetByID(ctx, id, actor.OrgID)
	if err != nil {
		return repository.Member{}, err
	}
	if current.IsActive == active {
		return current, nil
	}
	if !active && current.Role == access.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, actor.OrgID); err != nil {
			return repository.Member{}, err
		}
	}

	member, err := s.repo.SetActive(ctx, id, actor.OrgID, active)
	if err != nil {
		return repository.Member{}, err
	}

	s.publishChange(ctx, events.OpUpdate, member)
	return member, nil
}

func (s *Service) ensureAnotherAdmin(ctx context.Context, organizationID uuid.UUID) error {
	admins, err := s.repo.CountActiveAdmins(ctx, organizationID)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return apperr.Conflict(lastAdminMsg)
	}
	return nil
}

func (s *Service) publishChange(ctx context.Context, op string, m repository.Member) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.RowChanged{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: m.OrganizationID,
		Table:          events.TableTeamMembers,
		Op:             op,
		RecordID:       m.ID,
		Record:         m,
	})
}

func normalizePhone(p *string) *string {
	if p == nil {
		return nil
	}
	v := phone.NormalizeE164(*p)
	return &v
}
