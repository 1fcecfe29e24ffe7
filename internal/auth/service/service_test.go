package service

import (
	"context"
	"testing"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth/password"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth/token"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"

	"github.com/google/uuid"
)

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string        { return "access-secret" }
func (testConfig) GetJWTRefreshSecret() string       { return "refresh-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (testConfig) GetRefreshTokenTTL() time.Duration { return time.Hour }

type fakeRepo struct {
	users       map[string]repository.User
	memberships map[uuid.UUID]repository.Membership
	tokens      map[string]*repository.RefreshToken
	revokedAll  []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:       map[string]repository.User{},
		memberships: map[uuid.UUID]repository.Membership{},
		tokens:      map[string]*repository.RefreshToken{},
	}
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	u, ok := f.users[email]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return repository.User{}, apperr.NotFound("user not found")
}

func (f *fakeRepo) GetMembership(_ context.Context, id uuid.UUID) (repository.Membership, error) {
	m, ok := f.memberships[id]
	if !ok {
		return repository.Membership{}, apperr.NotFound("no membership")
	}
	return m, nil
}

func (f *fakeRepo) RegisterAccount(_ context.Context, p repository.RegisterParams) (repository.User, repository.Membership, error) {
	if _, exists := f.users[p.Email]; exists {
		return repository.User{}, repository.Membership{}, apperr.Conflict("exists")
	}
	u := repository.User{ID: uuid.New(), Email: p.Email, PasswordHash: p.PasswordHash}
	m := repository.Membership{MemberID: uuid.New(), OrganizationID: uuid.New(), Role: "admin", IsActive: true, FullName: p.FullName}
	f.users[p.Email] = u
	f.memberships[u.ID] = m
	return u, m, nil
}

func (f *fakeRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	for email, u := range f.users {
		if u.ID == id {
			u.PasswordHash = hash
			f.users[email] = u
			return nil
		}
	}
	return apperr.NotFound("user not found")
}

func (f *fakeRepo) CreateRefreshToken(_ context.Context, id uuid.UUID, hash string, expiresAt time.Time) error {
	f.tokens[hash] = &repository.RefreshToken{UserID: id, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeRepo) GetRefreshToken(_ context.Context, hash string) (repository.RefreshToken, error) {
	t, ok := f.tokens[hash]
	if !ok {
		return repository.RefreshToken{}, apperr.Unauthorized("invalid refresh token")
	}
	return *t, nil
}

func (f *fakeRepo) RevokeRefreshToken(_ context.Context, hash string) error {
	if t, ok := f.tokens[hash]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (f *fakeRepo) RevokeAllRefreshTokens(_ context.Context, id uuid.UUID) error {
	f.revokedAll = append(f.revokedAll, id)
	return nil
}

func newService(repo *fakeRepo) *Service {
	return New(repo, testConfig{}, logger.Nop())
}

func TestSignUpIssuesTenantScopedToken(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	tokens, err := svc.SignUp(context.Background(), SignUpParams{
		Email: " Owner@Example.com ", Password: "supersecret", FullName: "Owner", OrganizationName: "Acme",
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	user := repo.users["owner@example.com"]
	membership := repo.memberships[user.ID]

	claims, err := httpkit.ParseAccessClaims(tokens.AccessToken, testConfig{}.GetJWTAccessSecret())
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatal("expected sub to be the new user")
	}
	if claims.TenantID == nil || *claims.TenantID != membership.OrganizationID {
		t.Fatal("expected tenant claim to be the new organization")
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "admin" {
		t.Fatalf("expected admin role, got %v", claims.Roles)
	}
	if _, ok := repo.tokens[token.HashSHA256(tokens.RefreshToken)]; !ok {
		t.Fatal("expected refresh token to be stored hashed")
	}
}

func TestSignInUsesSameMessageForUnknownEmailAndWrongPassword(t *testing.T) {
	repo := newFakeRepo()
	hash, _ := password.Hash("supersecret")
	repo.users["jane@example.com"] = repository.User{ID: uuid.New(), Email: "jane@example.com", PasswordHash: hash}
	svc := newService(repo)

	_, errUnknown := svc.SignIn(context.Background(), "nobody@example.com", "supersecret")
	_, errWrong := svc.SignIn(context.Background(), "jane@example.com", "wrongpass")

	if !apperr.Is(errUnknown, apperr.KindUnauthorized) || !apperr.Is(errWrong, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized errors, got %v / %v", errUnknown, errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("messages differ: %q vs %q", errUnknown.Error(), errWrong.Error())
	}
}

func TestSignInRejectsDeactivatedMember(t *testing.T) {
	repo := newFakeRepo()
	hash, _ := password.Hash("supersecret")
	user := repository.User{ID: uuid.New(), Email: "jane@example.com", PasswordHash: hash}
	repo.users[user.Email] = user
	repo.memberships[user.ID] = repository.Membership{MemberID: uuid.New(), OrganizationID: uuid.New(), Role: "sales_associate", IsActive: false}

	_, err := newService(repo).SignIn(context.Background(), user.Email, "supersecret")
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRefreshRotatesAndPicksUpRoleChange(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo)

	first, err := svc.SignUp(context.Background(), SignUpParams{
		Email: "owner@example.com", Password: "supersecret", FullName: "Owner", OrganizationName: "Acme",
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	user := repo.users["owner@example.com"]
	m := repo.memberships[user.ID]
	m.Role = "sales_manager"
	repo.memberships[user.ID] = m

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	claims, _ := httpkit.ParseAccessClaims(second.AccessToken, testConfig{}.GetJWTAccessSecret())
	if len(claims.Roles) != 1 || claims.Roles[0] != "sales_manager" {
		t.Fatalf("expected refreshed role, got %v", claims.Roles)
	}

	if _, err := svc.Refresh(context.Background(), first.RefreshToken); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected replayed token to fail, got %v", err)
	}
	if len(repo.revokedAll) != 1 || repo.revokedAll[0] != user.ID {
		t.Fatal("expected replay to revoke all sessions")
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	repo := newFakeRepo()
	hash, _ := password.Hash("supersecret")
	user := repository.User{ID: uuid.New(), Email: "jane@example.com", PasswordHash: hash}
	repo.users[user.Email] = user
	svc := newService(repo)

	if err := svc.ChangePassword(context.Background(), user.ID, "wrong-current", "newsecret1"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), user.ID, "supersecret", "newsecret1"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if err := password.Compare(repo.users[user.Email].PasswordHash, "newsecret1"); err != nil {
		t.Fatal("expected new password to be stored")
	}
	if len(repo.revokedAll) != 1 {
		t.Fatal("expected all refresh tokens revoked")
	}
}
