// Package access describes who is performing an operation and what the
// CRM roles allow them to see.
package access

import (
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"

	"github.com/google/uuid"
)

const (
	RoleAdmin          = "admin"
	RoleSalesManager   = "sales_manager"
	RoleSalesAssociate = "sales_associate"
)

// ValidRole reports whether role is one of the three CRM roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSalesManager, RoleSalesAssociate:
		return true
	}
	return false
}

// Actor is the caller of a service operation.
type Actor struct {
	UserID   uuid.UUID
	OrgID    uuid.UUID
	MemberID uuid.UUID
	Role     string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// SeesAll reports whether the actor sees every record in the organization.
// Associates only see records assigned to them.
func (a Actor) SeesAll() bool {
	return a.Role == RoleAdmin || a.Role == RoleSalesManager
}

// OwnerFilter returns the assignee restriction for list queries, nil when the
// actor sees everything.
func (a Actor) OwnerFilter() *uuid.UUID {
	if a.SeesAll() {
		return nil
	}
	id := a.MemberID
	return &id
}

// CanSee reports whether a record assigned to assignee is visible.
func (a Actor) CanSee(assignee *uuid.UUID) bool {
	if a.SeesAll() {
		return true
	}
	return assignee != nil && *assignee == a.MemberID
}

// FromIdentity converts the request identity to an Actor. Tokens without an
// organization or team-member profile are rejected.
func FromIdentity(id httpkit.Identity) (Actor, error) {
	if id == nil || !id.IsAuthenticated() {
		return Actor{}, apperr.Unauthorized("unauthorized")
	}
	if id.TenantID() == nil || id.MemberID() == nil {
		return Actor{}, apperr.Forbidden("no organization context")
	}

	role := ""
	for _, r := range id.Roles() {
		if ValidRole(r) {
			role = r
			break
		}
	}
	if role == "" {
		return Actor{}, apperr.Forbidden("no CRM role assigned")
	}

	return Actor{
		UserID:   id.UserID(),
		OrgID:    *id.TenantID(),
		MemberID: *id.MemberID(),
		Role:     role,
	}, nil
}
