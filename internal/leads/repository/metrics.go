package repository

import (
	"context"

	"github.com/google/uuid"
)

// LeadMetrics aggregates pipeline KPIs for live leads.
type LeadMetrics struct {
	TotalLeads    int
	ByStatus      map[string]int
	ValueByStatus map[string]float64
	TotalValue    float64
	WonValue      float64
	Touchpoints   int
	NewThisWeek   int
}

// GetMetrics returns KPIs for the organization, limited to one assignee when
// assignedTo is set.
func (r *Repository) GetMetrics(ctx context.Context, organizationID uuid.UUID, assignedTo *uuid.UUID) (LeadMetrics, error) {
	metrics := LeadMetrics{
		ByStatus:      map[string]int{},
		ValueByStatus: map[string]float64{},
	}

	err := r.pool.QueryRow(ctx, `
		SELECT
			(
				SELECT COUNT(*)
				FROM crm_leads
				WHERE organization_id = $1 AND deleted_at IS NULL
					AND ($2::uuid IS NULL OR assigned_to = $2)
			) AS total_leads,
			(
				SELECT COALESCE(SUM(value), 0)::float8
				FROM crm_leads
				WHERE organization_id = $1 AND deleted_at IS NULL
					AND ($2::uuid IS NULL OR assigned_to = $2)
			) AS total_value,
			(
				SELECT COALESCE(SUM(value), 0)::float8
				FROM crm_leads
				WHERE organization_id = $1 AND deleted_at IS NULL AND status = 'won'
					AND ($2::uuid IS NULL OR assigned_to = $2)
			) AS won_value,
			(
				SELECT COUNT(*)
				FROM crm_leads
				WHERE organization_id = $1 AND deleted_at IS NULL
					AND created_at >= now() - interval '7 days'
					AND ($2::uuid IS NULL OR assigned_to = $2)
			) AS new_this_week,
			COALESCE((
				SELECT COUNT(*)
				FROM crm_lead_activity la
				JOIN crm_leads l ON l.id = la.lead_id
				WHERE la.organization_id = $1 AND l.deleted_at IS NULL
					AND ($2::uuid IS NULL OR l.assigned_to = $2)
			), 0) AS touchpoints
	`, organizationID, assignedTo).Scan(
		&metrics.TotalLeads,
		&metrics.TotalValue,
		&metrics.WonValue,
		&metrics.NewThisWeek,
		&metrics.Touchpoints,
	)
	if err != nil {
		return LeadMetrics{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(value), 0)::float8
		FROM crm_leads
		WHERE organization_id = $1 AND deleted_at IS NULL
			AND ($2::uuid IS NULL OR assigned_to = $2)
		GROUP BY status`,
		organizationID, assignedTo,
	)
	if err != nil {
		return LeadMetrics{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		var value float64
		if err := rows.Scan(&status, &count, &value); err != nil {
			return LeadMetrics{}, err
		}
		metrics.ByStatus[status] = count
		metrics.ValueByStatus[status] = value
	}
	return metrics, rows.Err()
}
