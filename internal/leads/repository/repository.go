// Package repository persists leads and their activity timeline.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/domain"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadNotFoundMsg = "lead not found"

type Lead struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	FullName        string
	Email           *string
	Phone           *string
	PhoneNormalized *string
	Company         *string
	Source          string
	Status          string
	Value           float64
	AssignedTo      *uuid.UUID
	Notes           *string
	LastContactedAt *time.Time
	CreatedBy       *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateLeadParams struct {
	OrganizationID  uuid.UUID
	FullName        string
	NameKey         string
	Email           *string
	Phone           *string
	PhoneNormalized *string
	Company         *string
	Source          string
	Status          string
	Value           float64
	AssignedTo      *uuid.UUID
	Notes           *string
	CreatedBy       *uuid.UUID
}

// UpdateLeadParams holds a partial update. A nil field is left unchanged; a
// pointer to an empty string clears an optional column.
type UpdateLeadParams struct {
	FullName        *string
	NameKey         *string
	Email           *string
	Phone           *string
	PhoneNormalized *string
	Company         *string
	Source          *string
	Value           *float64
	Notes           *string
}

type ListParams struct {
	OrganizationID uuid.UUID
	AssignedTo     *uuid.UUID
	Unassigned     bool
	Status         string
	Source         string
	Search         string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	MinValue       *float64
	MaxValue       *float64
	SortBy         string
	SortOrder      string
	Offset         int
	Limit          int
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `l.id, l.organization_id, l.full_name, l.email, l.phone, l.phone_normalized, l.company,
	l.source, l.status, l.value, l.assigned_to, l.notes, l.last_contacted_at, l.created_by, l.created_at, l.updated_at`

const returningColumns = `id, organization_id, full_name, email, phone, phone_normalized, company,
	source, status, value, assigned_to, notes, last_contacted_at, created_by, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.OrganizationID, &l.FullName, &l.Email, &l.Phone, &l.PhoneNormalized, &l.Company,
		&l.Source, &l.Status, &l.Value, &l.AssignedTo, &l.Notes, &l.LastContactedAt, &l.CreatedBy,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, apperr.NotFound(leadNotFoundMsg)
	}
	return l, err
}

const insertLeadSQL = `
	INSERT INTO crm_leads (
		organization_id, full_name, name_key, email, phone, phone_normalized, company,
		source, status, value, assigned_to, notes, created_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING ` + returningColumns

func insertLead(ctx context.Context, q db.DBTX, p CreateLeadParams) (Lead, error) {
	return scanLead(q.QueryRow(ctx, insertLeadSQL,
		p.OrganizationID, p.FullName, p.NameKey, p.Email, p.Phone, p.PhoneNormalized, p.Company,
		p.Source, p.Status, p.Value, p.AssignedTo, p.Notes, p.CreatedBy,
	))
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	return insertLead(ctx, r.pool, params)
}

// CreateBatch inserts all leads in one transaction. Nothing is stored when any
// insert fails.
func (r *Repository) CreateBatch(ctx context.Context, params []CreateLeadParams) ([]Lead, error) {
	leads := make([]Lead, 0, len(params))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for i, p := range params {
			lead, err := insertLead(ctx, tx, p)
			if err != nil {
				return fmt.Errorf("insert lead %d: %w", i, err)
			}
			if err := insertActivity(ctx, tx, ActivityParams{
				LeadID:         lead.ID,
				OrganizationID: lead.OrganizationID,
				ActorID:        p.CreatedBy,
				Action:         domain.ActionImported,
				Meta:           map[string]interface{}{"source": p.Source},
			}); err != nil {
				return err
			}
			leads = append(leads, lead)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *Repository) GetByID(ctx context.Context, id, organizationID uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx,
		"SELECT "+leadColumns+" FROM crm_leads l WHERE l.id = $1 AND l.organization_id = $2 AND l.deleted_at IS NULL",
		id, organizationID,
	))
}

func buildLeadListWhere(params ListParams) ([]string, []interface{}, int) {
	whereClauses := []string{"l.organization_id = $1", "l.deleted_at IS NULL"}
	args := []interface{}{params.OrganizationID}
	argIdx := 2

	addEquals := func(column string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}
	addCompare := func(column, op string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf("%s %s $%d", column, op, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.AssignedTo != nil {
		addEquals("l.assigned_to", *params.AssignedTo)
	} else if params.Unassigned {
		whereClauses = append(whereClauses, "l.assigned_to IS NULL")
	}
	if params.Status != "" {
		addEquals("l.status", params.Status)
	}
	if params.Source != "" {
		addEquals("l.source", params.Source)
	}
	if s := strings.TrimSpace(params.Search); s != "" {
		pattern := db.ContainsPattern(s)
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(l.full_name ILIKE $%d OR l.email ILIKE $%d OR l.phone ILIKE $%d OR l.company ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx,
		))
		args = append(args, pattern)
		argIdx++
	}
	if params.CreatedFrom != nil {
		addCompare("l.created_at", ">=", *params.CreatedFrom)
	}
	if params.CreatedTo != nil {
		addCompare("l.created_at", "<", *params.CreatedTo)
	}
	if params.MinValue != nil {
		addCompare("l.value", ">=", *params.MinValue)
	}
	if params.MaxValue != nil {
		addCompare("l.value", "<=", *params.MaxValue)
	}

	return whereClauses, args, argIdx
}

func mapLeadSortColumn(sortBy string) (string, error) {
	switch sortBy {
	case "", "createdAt":
		return "l.created_at", nil
	case "updatedAt":
		return "l.updated_at", nil
	case "value":
		return "l.value", nil
	case "fullName":
		return "l.full_name", nil
	case "status":
		return "l.status", nil
	default:
		return "", apperr.BadRequest("invalid sort field")
	}
}

func mapSortOrder(order string) (string, error) {
	switch strings.ToLower(order) {
	case "", "desc":
		return "DESC", nil
	case "asc":
		return "ASC", nil
	default:
		return "", apperr.BadRequest("invalid sort order")
	}
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	sortColumn, err := mapLeadSortColumn(params.SortBy)
	if err != nil {
		return nil, 0, err
	}
	sortOrder, err := mapSortOrder(params.SortOrder)
	if err != nil {
		return nil, 0, err
	}

	whereClauses, args, argIdx := buildLeadListWhere(params)
	where := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM crm_leads l WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM crm_leads l WHERE %s ORDER BY %s %s, l.id ASC LIMIT $%d OFFSET $%d",
		leadColumns, where, sortColumn, sortOrder, argIdx, argIdx+1,
	)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

// nullIfEmpty turns an empty optional column update into NULL.
func nullIfEmpty(v *string) interface{} {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func (r *Repository) Update(ctx context.Context, id, organizationID uuid.UUID, params UpdateLeadParams) (Lead, error) {
	setClauses := []string{}
	args := []interface{}{id, organizationID}

	set := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.FullName != nil {
		set("full_name", *params.FullName)
	}
	if params.NameKey != nil {
		set("name_key", *params.NameKey)
	}
	if params.Email != nil {
		set("email", nullIfEmpty(params.Email))
	}
	if params.Phone != nil {
		set("phone", nullIfEmpty(params.Phone))
		set("phone_normalized", nullIfEmpty(params.PhoneNormalized))
	}
	if params.Company != nil {
		set("company", nullIfEmpty(params.Company))
	}
	if params.Source != nil {
		set("source", *params.Source)
	}
	if params.Value != nil {
		set("value", *params.Value)
	}
	if params.Notes != nil {
		set("notes", nullIfEmpty(params.Notes))
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id, organizationID)
	}

	query := fmt.Sprintf(`
		UPDATE crm_leads SET %s, updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		RETURNING %s`, strings.Join(setClauses, ", "), returningColumns)

	return scanLead(r.pool.QueryRow(ctx, query, args...))
}

const setAssigneeSQL = `
		UPDATE crm_leads SET assigned_to = $4, updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
			AND assigned_to IS NOT DISTINCT FROM $3
		RETURNING ` + returningColumns

func (r *Repository) SetAssignee(ctx context.Context, id, organizationID uuid.UUID, previous, assignee *uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, setAssigneeSQL, id, organizationID, previous, assignee))
	if apperr.Is(err, apperr.KindNotFound) {
		return Lead{}, apperr.Conflict("lead owner changed in the meantime, reload and try again")
	}
	return lead, err
}

// SetStatus changes the pipeline stage. Moving to contacted stamps
// last_contacted_at.
func (r *Repository) SetStatus(ctx context.Context, id, organizationID uuid.UUID, status string) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE crm_leads SET
			status = $3::text,
			last_contacted_at = CASE WHEN $3::text = 'contacted' THEN now() ELSE last_contacted_at END,
			updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		RETURNING `+returningColumns,
		id, organizationID, status,
	))
}

func (r *Repository) Delete(ctx context.Context, id, organizationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE crm_leads SET deleted_at = now(), updated_at = now() WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL",
		id, organizationID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMsg)
	}
	return nil
}

// DeletedLead identifies a soft-deleted lead and its last owner.
type DeletedLead struct {
	ID         uuid.UUID
	AssignedTo *uuid.UUID
}

// BulkDelete soft-deletes the given leads and returns the ones that were
// actually deleted. Unknown or already deleted ids are ignored.
func (r *Repository) BulkDelete(ctx context.Context, ids []uuid.UUID, organizationID uuid.UUID) ([]DeletedLead, error) {
	if len(ids) == 0 {
		return []DeletedLead{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		UPDATE crm_leads SET deleted_at = now(), updated_at = now()
		WHERE organization_id = $1 AND id = ANY($2) AND deleted_at IS NULL
		RETURNING id, assigned_to`,
		organizationID, ids,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[DeletedLead])
}
