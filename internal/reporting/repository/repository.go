// Package repository runs the read-only aggregate queries behind reports.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Window bounds a report. Counters use [From, To); overdue uses Now.
type Window struct {
	From time.Time
	To   time.Time
	Now  time.Time
}

type Member struct {
	ID       uuid.UUID `db:"id"`
	FullName string    `db:"full_name"`
	Role     string    `db:"role"`
}

type LeadOutcome struct {
	MemberID uuid.UUID `db:"member_id"`
	Won      int       `db:"won"`
	Lost     int       `db:"lost"`
	WonValue float64   `db:"won_value"`
}

type TaskCounts struct {
	MemberID  uuid.UUID `db:"member_id"`
	Completed int       `db:"completed"`
	Overdue   int       `db:"overdue"`
}

type AppointmentCounts struct {
	MemberID  uuid.UUID `db:"member_id"`
	Completed int       `db:"completed"`
	NoShow    int       `db:"no_show"`
}

type memberCount struct {
	MemberID uuid.UUID `db:"member_id"`
	Count    int       `db:"count"`
}

// Dashboard holds organization KPIs, optionally narrowed to one member.
type Dashboard struct {
	TotalLeads           int
	NewLeadsThisWeek     int
	OpenTasks            int
	OverdueTasks         int
	UpcomingAppointments int
	PipelineByStatus     map[string]float64
}

// Reader is consumed by the reporting service.
type Reader interface {
	ActiveMembers(ctx context.Context, organizationID uuid.UUID) ([]Member, error)
	LeadAssignments(ctx context.Context, organizationID uuid.UUID, w Window) (map[uuid.UUID]int, error)
	LeadOutcomes(ctx context.Context, organizationID uuid.UUID, w Window) (map[uuid.UUID]LeadOutcome, error)
	TaskCounts(ctx context.Context, organizationID uuid.UUID, w Window) (map[uuid.UUID]TaskCounts, error)
	AppointmentCounts(ctx context.Context, organizationID uuid.UUID, w Window) (map[uuid.UUID]AppointmentCounts, error)
	DashboardCounts(ctx context.Context, organizationID uuid.UUID, assignedTo *uuid.UUID, now time.Time) (Dashboard, error)
	PipelineByStatus(ctx context.Context, organizationID uuid.UUID, assignedTo *uuid.UUID) (map[string]float64, error)
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Reader = (*Repository)(nil)

func (r *Repository) ActiveMembers(ctx context.Context, organizationID uuid.UUID) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name, role
		FROM crm_team_members
		WHERE organization_id = $1 AND is_active
		ORDER BY full_name`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active members: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Member])
}

// LeadAssignments counts leads created in the window per current owner.
func (r *Repository) LeadAssignments(ctx context.Context, organizationID uuid.UUID, w Window) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT assigned_to AS member_id, COUNT(*) AS count
		FROM crm_leads
		WHERE organization_id = $1 AND deleted_at IS NULL AND assigned_to IS NOT NULL
			AND created_at >= $2 AND created_at < $3
		GROUP BY assigned_to`, organizationID, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("failed to count lead assignments: %w", err)
	}
	counts, err := pgx.CollectRows(rows, pgx.RowToStructByName[memberCount])
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(counts))
	for _, c := range counts {
		out[c.MemberID] = c.Count
	}
	return out, nil
}

// LeadOutcomes counts leads closed in the window, using updated_at as the
// close time.
func (r *Repository) LeadOutcomes(ctx context.Context, organizationID uuid.UUID, w Window) (map[uuid.UUID]LeadOutcome, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT assigned_to AS member_id,
			COUNT(*) FILTER (WHERE status = 'won') AS won,
			COUNT(*) FILTER (WHERE status = 'lost') AS lost,
			COALESCE(SUM(value) FILTER (WHERE status = 'won'), 0)::float8 AS won_value
		FROM crm_leads
		WHERE organization_id = $1 AND deleted_at IS NULL AND assigned_to IS NOT NULL
			AND status IN ('won', 'lost')
			AND updated_at >= $2 AND updated_at < $3
		GROUP BY assigned_to`, organizationID, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate lead outcomes: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[LeadOutcome])
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]LeadOutcome, len(items))
	for _, item := range items {
		out[item.MemberID] = item
	}
	return out, nil
}

// TaskCounts counts tasks completed in the window and tasks overdue now.
func (r *Repository) TaskCounts(ctx context.Context, organizationID uuid.UUID, w Window) (map[uuid.UUID]TaskCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT assigned_to AS member_id,
			COUNT(*) FILTER (WHERE status = 'done' AND completed_at >= $2 AND completed_at < $3) AS completed,
			COUNT(*) FILTER (WHERE status <> 'done' AND due_at < $4) AS overdue
		FROM crm_tasks
		WHERE organization_id = $1
		GROUP BY assigned_to`, organizationID, w.From, w.To, w.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[TaskCounts])
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]TaskCounts, len(items))
	for _, item := range items {
		out[item.MemberID] = item
	}
	return out, nil
}

// AppointmentCounts counts outcomes of appointments that started in the window.
func (r *Repository) AppointmentCounts(ctx context.Context, organizationID uuid.UUID, w Window) (map[uuid.UUID]AppointmentCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT assigned_to AS member_id,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			COUNT(*) FILTER (WHERE status = 'no_show') AS no_show
		FROM crm_appointments
		WHERE organization_id = $1 AND start_time >= $2 AND start_time < $3
		GROUP BY assigned_to`, organizationID, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate appointments: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[AppointmentCounts])
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]AppointmentCounts, len(items))
	for _, item := range items {
		out[item.MemberID] = item
	}
	return out, nil
}

func (r *Repository) DashboardCounts(ctx context.Context, organizationID uuid.UUID, assignedTo *uuid.UUID, now time.Time) (Dashboard, error) {
	var d Dashboard
	err := r.pool.QueryRow(ctx, `
		SELECT
			(
				SELECT COUNT(*) FROM crm_leads
				WHERE organization_id = $1 AND deleted_at IS NULL
					AND ($2::uuid IS NULL OR assigned_to = $2)
			),
			(
				SELECT COUNT(*) FROM crm_leads
				WHERE organization_id = $1 AND deleted_at IS NULL
					AND created_at >= $3::timestamptz - interval '7 days'
					AND ($2::uuid IS NULL OR assigned_to = $2)
			),
			(
				SELECT COUNT(*) FROM crm_tasks
				WHERE organization_id = $1 AND status <> 'done'
					AND ($2::uuid IS NULL OR assigned_to = $2)
			),
			(
				SELECT COUNT(*) FROM crm_tasks
				WHERE organization_id = $1 AND status <> 'done' AND due_at < $3
					AND ($2::uuid IS NULL OR assigned_to = $2)
			),
			(
				SELECT COUNT(*) FROM crm_appointments
				WHERE organization_id = $1 AND status = 'scheduled'
					AND start_time >= $3 AND start_time < $3::timestamptz + interval '7 days'
					AND ($2::uuid IS NULL OR assigned_to = $2)
			)
	`, organizationID, assignedTo, now).Scan(
		&d.TotalLeads,
		&d.NewLeadsThisWeek,
		&d.OpenTasks,
		&d.OverdueTasks,
		&d.UpcomingAppointments,
	)
	if err != nil {
		return Dashboard{}, fmt.Errorf("failed to load dashboard counts: %w", err)
	}
	return d, nil
}

func (r *Repository) PipelineByStatus(ctx context.Context, organizationID uuid.UUID, assignedTo *uuid.UUID) (map[string]float64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COALESCE(SUM(value), 0)::float8
		FROM crm_leads
		WHERE organization_id = $1 AND deleted_at IS NULL
			AND ($2::uuid IS NULL OR assigned_to = $2)
		GROUP BY status`, organizationID, assignedTo)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var status string
		var value float64
		if err := rows.Scan(&status, &value); err != nil {
			return nil, err
		}
		out[status] = value
	}
	return out, rows.Err()
}
