package service

import (
	"context"
	"testing"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/team/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/google/uuid"
)

type fakeStore struct {
	members map[uuid.UUID]repository.Member
}

func newFakeStore(members ...repository.Member) *fakeStore {
	f := &fakeStore{members: map[uuid.UUID]repository.Member{}}
	for _, m := range members {
		f.members[m.ID] = m
	}
	return f
}

func (f *fakeStore) Create(_ context.Context, m repository.Member) (repository.Member, error) {
	for _, existing := range f.members {
		if existing.OrganizationID == m.OrganizationID && existing.Email == m.Email {
			return repository.Member{}, apperr.Conflict("duplicate")
		}
	}
	m.ID = uuid.New()
	m.IsActive = true
	f.members[m.ID] = m
	return m, nil
}

func (f *fakeStore) GetByID(_ context.Context, id, org uuid.UUID) (repository.Member, error) {
	m, ok := f.members[id]
	if !ok || m.OrganizationID != org {
		return repository.Member{}, apperr.NotFound("team member not found")
	}
	return m, nil
}

func (f *fakeStore) List(_ context.Context, p repository.ListParams) ([]repository.Member, error) {
	out := []repository.Member{}
	for _, m := range f.members {
		if m.OrganizationID == p.OrganizationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, id, org uuid.UUID, p repository.UpdateParams) (repository.Member, error) {
	m, err := f.GetByID(ctx, id, org)
	if err != nil {
		return m, err
	}
	if p.FullName != nil {
		m.FullName = *p.FullName
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	f.members[id] = m
	return m, nil
}

func (f *fakeStore) SetRole(ctx context.Context, id, org uuid.UUID, role string) (repository.Member, error) {
	m, err := f.GetByID(ctx, id, org)
	if err != nil {
		return m, err
	}
	m.Role = role
	f.members[id] = m
	return m, nil
}

func (f *fakeStore) SetActive(ctx context.Context, id, org uuid.UUID, active bool) (repository.Member, error) {
	m, err := f.GetByID(ctx, id, org)
	if err != nil {
		return m, err
	}
	m.IsActive = active
	f.members[id] = m
	return m, nil
}

func (f *fakeStore) CountActiveAdmins(_ context.Context, org uuid.UUID) (int, error) {
	n := 0
	for _, m := range f.members {
		if m.OrganizationID == org && m.Role == access.RoleAdmin && m.IsActive {
			n++
		}
	}
	return n, nil
}

func TestCreateRequiresAdmin(t *testing.T) {
	org := uuid.New()
	svc := New(newFakeStore(), nil)

	manager := access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleSalesManager}
	_, err := svc.Create(context.Background(), manager, CreateParams{FullName: "A", Email: "a@example.com", Role: access.RoleSalesAssociate})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	admin := access.Actor{OrgID: org, MemberID: uuid.New(), Role: access.RoleAdmin}
	m, err := svc.Create(context.Background(), admin, CreateParams{FullName: " Ann  Lee ", Email: "Ann@Example.com", Role: access.RoleSalesAssociate})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.Email != "ann@example.com" || m.FullName != "Ann Lee" || m.OrganizationID != org {
		t.Fatalf("unexpected member %+v", m)
	}
}

func TestCannotDemoteLastAdmin(t *testing.T) {
	org := uuid.New()
	admin := repository.Member{ID: uuid.New(), OrganizationID: org, Role: access.RoleAdmin, IsActive: true}
	svc := New(newFakeStore(admin), nil)
	actor := access.Actor{OrgID: org, MemberID: admin.ID, Role: access.RoleAdmin}

	if _, err := svc.ChangeRole(context.Background(), actor, admin.ID, access.RoleSalesManager); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict demoting last admin, got %v", err)
	}
	if _, err := svc.SetActive(context.Background(), actor, admin.ID, false); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict deactivating last admin, got %v", err)
	}
}

func TestDemoteAdminWhenAnotherExists(t *testing.T) {
	org := uuid.New()
	a := repository.Member{ID: uuid.New(), OrganizationID: org, Role: access.RoleAdmin, IsActive: true}
	b := repository.Member{ID: uuid.New(), OrganizationID: org, Role: access.RoleAdmin, IsActive: true}
	svc := New(newFakeStore(a, b), nil)
	actor := access.Actor{OrgID: org, MemberID: a.ID, Role: access.RoleAdmin}

	m, err := svc.ChangeRole(context.Background(), actor, b.ID, access.RoleSalesManager)
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if m.Role != access.RoleSalesManager {
		t.Fatalf("expected sales_manager, got %q", m.Role)
	}
}

func TestAssociateCanOnlyEditSelf(t *testing.T) {
	org := uuid.New()
	self := repository.Member{ID: uuid.New(), OrganizationID: org, Role: access.RoleSalesAssociate, IsActive: true, FullName: "Me"}
	other := repository.Member{ID: uuid.New(), OrganizationID: org, Role: access.RoleSalesAssociate, IsActive: true, FullName: "Other"}
	svc := New(newFakeStore(self, other), nil)
	actor := access.Actor{OrgID: org, MemberID: self.ID, Role: access.RoleSalesAssociate}

	name := "New Name"
	if _, err := svc.Update(context.Background(), actor, other.ID, repository.UpdateParams{FullName: &name}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	m, err := svc.Update(context.Background(), actor, self.ID, repository.UpdateParams{FullName: &name})
	if err != nil || m.FullName != "New Name" {
		t.Fatalf("expected self update, got %+v, %v", m, err)
	}
}

func TestGetIsTenantScoped(t *testing.T) {
	m := repository.Member{ID: uuid.New(), OrganizationID: uuid.New(), Role: access.RoleAdmin}
	svc := New(newFakeStore(m), nil)
	outsider := access.Actor{OrgID: uuid.New(), MemberID: uuid.New(), Role: access.RoleAdmin}

	if _, err := svc.Get(context.Background(), outsider, m.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found across tenants, got %v", err)
	}
}
