// Package repository persists team-member profiles.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const memberNotFoundMsg = "team member not found"

type Member struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	UserID         *uuid.UUID
	FullName       string
	Email          string
	Phone          *string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ListParams struct {
	OrganizationID uuid.UUID
	Role           *string
	Active         *bool
	Search         string
}

type UpdateParams struct {
	FullName *string
	Email    *string
	Phone    *string
}

// Store is the persistence contract used by the team service.
type Store interface {
	Create(ctx context.Context, m Member) (Member, error)
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (Member, error)
	List(ctx context.Context, params ListParams) ([]Member, error)
	Update(ctx context.Context, id, organizationID uuid.UUID, params UpdateParams) (Member, error)
	SetRole(ctx context.Context, id, organizationID uuid.UUID, role string) (Member, error)
	SetActive(ctx context.Context, id, organizationID uuid.UUID, active bool) (Member, error)
	CountActiveAdmins(ctx context.Context, organizationID uuid.UUID) (int, error)
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

const memberColumns = "id, organization_id, user_id, full_name, email, phone, role, is_active, created_at, updated_at"

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.FullName, &m.Email, &m.Phone, &m.Role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, apperr.NotFound(memberNotFoundMsg)
	}
	return m, err
}

func (r *Repository) Create(ctx context.Context, m Member) (Member, error) {
	created, err := scanMember(r.pool.QueryRow(ctx, `
		INSERT INTO crm_team_members (organization_id, full_name, email, phone, role, is_active)
		VALUES ($1, $2, $3, $4, $5, true)
		RETURNING `+memberColumns,
		m.OrganizationID, m.FullName, m.Email, m.Phone, m.Role,
	))
	if isUniqueViolation(err) {
		return Member{}, apperr.Conflict("a team member with this email already exists")
	}
	return created, err
}

func (r *Repository) GetByID(ctx context.Context, id, organizationID uuid.UUID) (Member, error) {
	return scanMember(r.pool.QueryRow(ctx,
		"SELECT "+memberColumns+" FROM crm_team_members WHERE id = $1 AND organization_id = $2",
		id, organizationID,
	))
}

func buildListWhere(params ListParams) (string, []interface{}) {
	clauses := []string{"organization_id = $1"}
	args := []interface{}{params.OrganizationID}

	if params.Role != nil {
		args = append(args, *params.Role)
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(args)))
	}
	if params.Active != nil {
		args = append(args, *params.Active)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if s := strings.TrimSpace(params.Search); s != "" {
		args = append(args, db.ContainsPattern(s))
		clauses = append(clauses, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Member, error) {
	where, args := buildListWhere(params)
	rows, err := r.pool.Query(ctx, "SELECT "+memberColumns+" FROM crm_team_members WHERE "+where+" ORDER BY full_name ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id, organizationID uuid.UUID, params UpdateParams) (Member, error) {
	setClauses := []string{}
	args := []interface{}{id, organizationID}

	if params.FullName != nil {
		args = append(args, *params.FullName)
		setClauses = append(setClauses, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if params.Email != nil {
		args = append(args, *params.Email)
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", len(args)))
	}
	if params.Phone != nil {
		args = append(args, *params.Phone)
		setClauses = append(setClauses, fmt.Sprintf("phone = $%d", len(args)))
	}
	if len(setClauses) == 0 {
		return r.GetByID(ctx, id, organizationID)
	}
	setClauses = append(setClauses, "updated_at = now()")

	m, err := scanMember(r.pool.QueryRow(ctx,
		"UPDATE crm_team_members SET "+strings.Join(setClauses, ", ")+" WHERE id = $1 AND organization_id = $2 RETURNING "+memberColumns,
		args...,
	))
	if isUniqueViolation(err) {
		return Member{}, apperr.Conflict("a team member with this email already exists")
	}
	return m, err
}

func (r *Repository) SetRole(ctx context.Context, id, organizationID uuid.UUID, role string) (Member, error) {
	return scanMember(r.pool.QueryRow(ctx,
		"UPDATE crm_team_members SET role = $3, updated_at = now() WHERE id = $1 AND organization_id = $2 RETURNING "+memberColumns,
		id, organizationID, role,
	))
}

func (r *Repository) SetActive(ctx context.Context, id, organizationID uuid.UUID, active bool) (Member, error) {
	return scanMember(r.pool.QueryRow(ctx,
		"UPDATE crm_team_members SET is_active = $3, updated_at = now() WHERE id = $1 AND organization_id = $2 RETURNING "+memberColumns,
		id, organizationID, active,
	))
}

func (r *Repository) CountActiveAdmins(ctx context.Context, organizationID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM crm_team_members WHERE organization_id = $1 AND role = 'admin' AND is_active",
		organizationID,
	).Scan(&n)
	return n, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
