package service

import (
	"context"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth/password"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth/token"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/config"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/sanitize"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenType    = "access"
	refreshTokenBytes  = 32
	invalidCredentials = "invalid email or password"
	invalidRefresh     = "invalid refresh token"
	accountDeactivated = "account is deactivated"
)

// Tokens is the pair returned after sign-in, sign-up and refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Profile is the authenticated user together with their team-member profile.
type Profile struct {
	User       repository.User
	Membership *repository.Membership
}

type SignUpParams struct {
	Email            string
	Password         string
	FullName         string
	OrganizationName string
}

type Service struct {
	repo repository.AuthRepository
	cfg  config.AuthServiceConfig
	log  *logger.Logger
	now  func() time.Time
}

func New(repo repository.AuthRepository, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log, now: time.Now}
}

func (s *Service) SignUp(ctx context.Context, p SignUpParams) (Tokens, error) {
	email := sanitize.Email(p.Email)
	hash, err := password.Hash(p.Password)
	if err != nil {
		return Tokens{}, apperr.Validation(err.Error())
	}

	user, membership, err := s.repo.RegisterAccount(ctx, repository.RegisterParams{
		Email:            email,
		PasswordHash:     hash,
		FullName:         sanitize.Text(p.FullName),
		OrganizationName: sanitize.Text(p.OrganizationName),
	})
	if err != nil {
		s.log.AuthEvent("sign_up", email, false, err.Error())
		return Tokens{}, err
	}

	s.log.AuthEvent("sign_up", email, true, "")
	return s.issueTokens(ctx, user.ID, &membership)
}

func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (Tokens, error) {
	email = sanitize.Email(email)
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.AuthEvent("sign_in", email, false, "unknown email")
			return Tokens{}, apperr.Unauthorized(invalidCredentials)
		}
		return Tokens{}, err
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("sign_in", email, false, "wrong password")
		return Tokens{}, apperr.Unauthorized(invalidCredentials)
	}

	membership, err := s.activeMembership(ctx, user.ID)
	if err != nil {
		s.log.AuthEvent("sign_in", email, false, err.Error())
		return Tokens{}, err
	}

	s.log.AuthEvent("sign_in", email, true, "")
	return s.issueTokens(ctx, user.ID, membership)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued with the current role and tenant.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	hash := token.HashSHA256(refreshToken)
	stored, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return Tokens{}, err
	}
	if stored.RevokedAt != nil {
		// Reuse of a rotated token revokes every session of the user.
		_ = s.repo.RevokeAllRefreshTokens(ctx, stored.UserID)
		return Tokens{}, apperr.Unauthorized(invalidRefresh)
	}
	if s.now().After(stored.ExpiresAt) {
		_ = s.repo.RevokeRefreshToken(ctx, hash)
		return Tokens{}, apperr.Unauthorized("refresh token expired")
	}

	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil {
		return Tokens{}, err
	}

	membership, err := s.activeMembership(ctx, stored.UserID)
	if err != nil {
		return Tokens{}, err
	}
	return s.issueTokens(ctx, stored.UserID, membership)
}

func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	return s.repo.RevokeRefreshToken(ctx, token.HashSHA256(refreshToken))
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (Profile, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	profile := Profile{User: user}
	membership, err := s.repo.GetMembership(ctx, userID)
	switch {
	case err == nil:
		profile.Membership = &membership
	case !apperr.Is(err, apperr.KindNotFound):
		return Profile{}, err
	}
	return profile, nil
}

// ChangePassword verifies the current password, stores the new hash and signs
// the user out everywhere.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := password.Compare(user.PasswordHash, current); err != nil {
		return apperr.Validation("current password is incorrect")
	}

	hash, err := password.Hash(next)
	if err != nil {
		return apperr.Validation(err.Error())
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	return s.repo.RevokeAllRefreshTokens(ctx, userID)
}

// activeMembership returns nil for users without a profile; they receive a
// token without tenant scope.
func (s *Service) activeMembership(ctx context.Context, userID uuid.UUID) (*repository.Membership, error) {
	membership, err := s.repo.GetMembership(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !membership.IsActive {
		return nil, apperr.Forbidden(accountDeactivated)
	}
	return &membership, nil
}

func (s *Service) issueTokens(ctx context.Context, userID uuid.UUID, membership *repository.Membership) (Tokens, error) {
	accessToken, err := s.signAccessToken(userID, membership)
	if err != nil {
		return Tokens{}, err
	}

	refreshToken, err := token.GenerateRandomToken(refreshTokenBytes)
	if err != nil {
		return Tokens{}, err
	}

	expiresAt := s.now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, userID, token.HashSHA256(refreshToken), expiresAt); err != nil {
		return Tokens{}, err
	}

	return Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.cfg.GetAccessTokenTTL(),
	}, nil
}

func (s *Service) signAccessToken(userID uuid.UUID, membership *repository.Membership) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  accessTokenType,
		"roles": []string{},
		"exp":   now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":   now.Unix(),
	}
	if membership != nil {
		claims["roles"] = []string{membership.Role}
		claims["tenant_id"] = membership.OrganizationID.String()
		claims["member_id"] = membership.MemberID.String()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
