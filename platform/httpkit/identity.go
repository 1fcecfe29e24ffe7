// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated caller as carried by the access token.
type Identity interface {
	UserID() uuid.UUID
	// TenantID returns the organization the token is scoped to, if any.
	TenantID() *uuid.UUID
	// MemberID returns the caller's team-member profile id, if any.
	MemberID() *uuid.UUID
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	tenantID      *uuid.UUID
	memberID      *uuid.UUID
	roles         []string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID        { return i.userID }
func (i *identity) TenantID() *uuid.UUID     { return i.tenantID }
func (i *identity) MemberID() *uuid.UUID     { return i.memberID }
func (i *identity) Roles() []string          { return i.roles }
func (i *identity) IsAuthenticated() bool    { return i.authenticated }
func (i *identity) HasRole(role string) bool { return slices.Contains(i.roles, role) }

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return &identity{}
	}
	uid, ok := raw.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	id := &identity{userID: uid, authenticated: true}
	if roles, ok := c.Get(ContextRolesKey); ok {
		id.roles, _ = roles.([]string)
	}
	if v, ok := c.Get(ContextTenantIDKey); ok {
		if tenant, ok := v.(uuid.UUID); ok {
			id.tenantID = &tenant
		}
	}
	if v, ok := c.Get(ContextMemberIDKey); ok {
		if member, ok := v.(uuid.UUID); ok {
			id.memberID = &member
		}
	}
	return id
}

// MustGetIdentity aborts with 401 and returns nil when the caller is anonymous.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}

// NewIdentity builds an authenticated identity. Used by tests and by
// transports that authenticate outside of gin middleware.
func NewIdentity(userID uuid.UUID, tenantID, memberID *uuid.UUID, roles ...string) Identity {
	return &identity{userID: userID, tenantID: tenantID, memberID: memberID, roles: roles, authenticated: true}
}
