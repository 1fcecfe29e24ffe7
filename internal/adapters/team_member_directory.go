package adapters

import (
	"context"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/team/service"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/google/uuid"
)

// MemberContact is what other modules need to address a team member.
type MemberContact struct {
	ID       uuid.UUID
	FullName string
	Email    string
	Role     string
	IsActive bool
}

// TeamMemberDirectory adapts the team service for assignee checks, import
// owner resolution and notification addressing.
type TeamMemberDirectory struct {
	team *service.Service
}

func NewTeamMemberDirectory(team *service.Service) *TeamMemberDirectory {
	return &TeamMemberDirectory{team: team}
}

func (d *TeamMemberDirectory) IsActiveMember(ctx context.Context, organizationID, memberID uuid.UUID) (bool, error) {
	m, err := d.team.Lookup(ctx, organizationID, memberID)
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.IsActive, nil
}

func (d *TeamMemberDirectory) Contact(ctx context.Context, organizationID, memberID uuid.UUID) (MemberContact, error) {
	m, err := d.team.Lookup(ctx, organizationID, memberID)
	if err != nil {
		return MemberContact{}, err
	}
	return MemberContact{ID: m.ID, FullName: m.FullName, Email: m.Email, Role: m.Role, IsActive: m.IsActive}, nil
}

func (d *TeamMemberDirectory) ActiveMembers(ctx context.Context, organizationID uuid.UUID) ([]MemberContact, error) {
	members, err := d.team.ActiveMembers(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	out := make([]MemberContact, 0, len(members))
	for _, m := range members {
		out = append(out, MemberContact{ID: m.ID, FullName: m.FullName, Email: m.Email, Role: m.Role, IsActive: m.IsActive})
	}
	return out, nil
}
