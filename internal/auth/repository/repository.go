package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	userNotFoundMsg       = "user not found"
	membershipNotFoundMsg = "team member profile not found"
	uniqueViolation       = "23505"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Membership is the team-member profile that gives a user a tenant and role.
type Membership struct {
	MemberID         uuid.UUID
	OrganizationID   uuid.UUID
	OrganizationName string
	FullName         string
	Role             string
	IsActive         bool
}

type RefreshToken struct {
	UserID    uuid.UUID
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// RegisterParams describes a sign-up. A pending team-member profile with the
// same email takes precedence over OrganizationName.
type RegisterParams struct {
	Email            string
	PasswordHash     string
	FullName         string
	OrganizationName string
}

const membershipQuery = `
	SELECT tm.id, tm.organization_id, o.name, tm.full_name, tm.role, tm.is_active
	FROM crm_team_members tm
	JOIN crm_organizations o ON o.id = tm.organization_id
	WHERE tm.user_id = $1`

const pendingMemberQuery = `
	SELECT tm.id, tm.organization_id, o.name, tm.full_name, tm.role, tm.is_active
	FROM crm_team_members tm
	JOIN crm_organizations o ON o.id = tm.organization_id
	WHERE lower(tm.email) = lower($1) AND tm.user_id IS NULL AND tm.is_active
	ORDER BY tm.created_at
	LIMIT 1`

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM crm_users WHERE lower(email) = lower($1)
	`, email))
}

func (r *Repository) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM crm_users WHERE id = $1
	`, userID))
}

func (r *Repository) scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, apperr.NotFound(userNotFoundMsg)
	}
	return user, err
}

func (r *Repository) GetMembership(ctx context.Context, userID uuid.UUID) (Membership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx, membershipQuery, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Membership{}, apperr.NotFound(membershipNotFoundMsg)
	}
	return m, err
}

func scanMembership(row pgx.Row) (Membership, error) {
	var m Membership
	err := row.Scan(&m.MemberID, &m.OrganizationID, &m.OrganizationName, &m.FullName, &m.Role, &m.IsActive)
	return m, err
}

// RegisterAccount creates the user and either links a pending team-member
// profile or creates an organization with the user as its admin, in one
// transaction.
func (r *Repository) RegisterAccount(ctx context.Context, params RegisterParams) (User, Membership, error) {
	var (
		user       User
		membership Membership
	)

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO crm_users (email, password_hash)
			VALUES ($1, $2)
			RETURNING id, email, password_hash, created_at, updated_at
		`, params.Email, params.PasswordHash).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("an account with this email already exists")
			}
			return err
		}

		pending, err := scanMembership(tx.QueryRow(ctx, pendingMemberQuery, params.Email))
		switch {
		case err == nil:
			if _, err := tx.Exec(ctx, `
				UPDATE crm_team_members SET user_id = $2, updated_at = now() WHERE id = $1
			`, pending.MemberID, user.ID); err != nil {
				return err
			}
			membership = pending
			return nil
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		if strings.TrimSpace(params.OrganizationName) == "" {
			return apperr.Validation("organization name is required")
		}

		membership = Membership{
			OrganizationName: params.OrganizationName,
			FullName:         params.FullName,
			Role:             "admin",
			IsActive:         true,
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO crm_organizations (name, created_by) VALUES ($1, $2) RETURNING id
		`, params.OrganizationName, user.ID).Scan(&membership.OrganizationID); err != nil {
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO crm_team_members (organization_id, user_id, full_name, email, role)
			VALUES ($1, $2, $3, $4, 'admin')
			RETURNING id
		`, membership.OrganizationID, user.ID, params.FullName, params.Email).Scan(&membership.MemberID)
	})
	if err != nil {
		return User{}, Membership{}, err
	}
	return user, membership, nil
}

func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE crm_users SET password_hash = $2, updated_at = now() WHERE id = $1
	`, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(userNotFoundMsg)
	}
	return nil
}

func (r *Repository) CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO crm_refresh_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	return err
}

func (r *Repository) GetRefreshToken(ctx context.Context, tokenHash string) (RefreshToken, error) {
	var t RefreshToken
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, expires_at, revoked_at FROM crm_refresh_tokens WHERE token_hash = $1
	`, tokenHash).Scan(&t.UserID, &t.ExpiresAt, &t.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return RefreshToken{}, apperr.Unauthorized("invalid refresh token")
	}
	return t, err
}

func (r *Repository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE crm_refresh_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL
	`, tokenHash)
	return err
}

func (r *Repository) RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE crm_refresh_tokens SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL
	`, userID)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
