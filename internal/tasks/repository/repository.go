// Package repository persists tasks.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskNotFoundMsg = "task not found"

const taskColumns = `id, organization_id, lead_id, assigned_to, title, description, priority, status,
	due_at, completed_at, created_by, created_at, updated_at`

type Task struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	LeadID         *uuid.UUID `db:"lead_id"`
	AssignedTo     uuid.UUID  `db:"assigned_to"`
	Title          string     `db:"title"`
	Description    *string    `db:"description"`
	Priority       string     `db:"priority"`
	Status         string     `db:"status"`
	DueAt          *time.Time `db:"due_at"`
	CompletedAt    *time.Time `db:"completed_at"`
	CreatedBy      *uuid.UUID `db:"created_by"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// IsOverdue reports whether an unfinished task is past its due time.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != "done" && t.DueAt != nil && t.DueAt.Before(now)
}

type ListParams struct {
	OrganizationID uuid.UUID
	AssignedTo     *uuid.UUID
	LeadID         *uuid.UUID
	Status         *string
	OverdueAt      *time.Time
	DueBefore      *time.Time
	Page           int
	PageSize       int
}

type ListResult struct {
	Items      []Task
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Store is the persistence contract of the tasks service.
type Store interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id, organizationID uuid.UUID) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.OrganizationID, &t.LeadID, &t.AssignedTo, &t.Title, &t.Description, &t.Priority,
		&t.Status, &t.DueAt, &t.CompletedAt, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) Create(ctx context.Context, t *Task) error {
	query := `
		INSERT INTO crm_tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.OrganizationID, t.LeadID, t.AssignedTo, t.Title, t.Description, t.Priority,
		t.Status, t.DueAt, t.CompletedAt, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id, organizationID uuid.UUID) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM crm_tasks WHERE id = $1 AND organization_id = $2`

	t, err := scanTask(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(taskNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// Update writes every mutable column of t.
func (r *Repository) Update(ctx context.Context, t *Task) error {
	query := `
		UPDATE crm_tasks SET
			lead_id = $3,
			assigned_to = $4,
			title = $5,
			description = $6,
			priority = $7,
			status = $8,
			due_at = $9,
			completed_at = $10,
			updated_at = $11
		WHERE id = $1 AND organization_id = $2`

	result, err := r.pool.Exec(ctx, query,
		t.ID, t.OrganizationID, t.LeadID, t.AssignedTo, t.Title, t.Description, t.Priority,
		t.Status, t.DueAt, t.CompletedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(taskNotFoundMsg)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id, organizationID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM crm_tasks WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(taskNotFoundMsg)
	}
	return nil
}

func buildListFilter(params ListParams) (string, []interface{}, int) {
	baseQuery := `FROM crm_tasks WHERE organization_id = $1`
	args := []interface{}{params.OrganizationID}
	argIndex := 2

	add := func(clause string, value interface{}) {
		baseQuery += fmt.Sprintf(clause, argIndex)
		args = append(args, value)
		argIndex++
	}

	if params.AssignedTo != nil {
		add(" AND assigned_to = $%d", *params.AssignedTo)
	}
	if params.LeadID != nil {
		add(" AND lead_id = $%d", *params.LeadID)
	}
	if params.Status != nil {
		add(" AND status = $%d", *params.Status)
	}
	if params.OverdueAt != nil {
		add(" AND status <> 'done' AND due_at < $%d", *params.OverdueAt)
	}
	if params.DueBefore != nil {
		add(" AND due_at < $%d", *params.DueBefore)
	}
	return baseQuery, args, argIndex
}

// List orders by due date with undated tasks last.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	baseQuery, args, argIndex := buildListFilter(params)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	selectQuery := fmt.Sprintf(`SELECT %s %s ORDER BY due_at ASC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d`,
		taskColumns, baseQuery, argIndex, argIndex+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	items := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: (total + params.PageSize - 1) / params.PageSize,
	}, nil
}
