package access

import (
	"testing"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"

	"github.com/google/uuid"
)

func TestFromIdentityRequiresTenant(t *testing.T) {
	member := uuid.New()
	id := httpkit.NewIdentity(uuid.New(), nil, &member, RoleAdmin)

	_, err := FromIdentity(id)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestFromIdentityPicksCRMRole(t *testing.T) {
	org, member := uuid.New(), uuid.New()
	id := httpkit.NewIdentity(uuid.New(), &org, &member, "beta_tester", RoleSalesAssociate)

	actor, err := FromIdentity(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.Role != RoleSalesAssociate || actor.OrgID != org || actor.MemberID != member {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestAssociateVisibility(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	associate := Actor{MemberID: me, Role: RoleSalesAssociate}
	manager := Actor{MemberID: other, Role: RoleSalesManager}

	if !associate.CanSee(&me) {
		t.Fatal("associate should see own record")
	}
	if associate.CanSee(&other) || associate.CanSee(nil) {
		t.Fatal("associate must not see other or unassigned records")
	}
	if !manager.CanSee(nil) || manager.OwnerFilter() != nil {
		t.Fatal("manager sees everything")
	}
	if f := associate.OwnerFilter(); f == nil || *f != me {
		t.Fatal("associate list filter must be own member id")
	}
}
