package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/db"

	"github.com/google/uuid"
)

type Activity struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	ActorID   *uuid.UUID
	ActorName *string
	Action    string
	Meta      map[string]interface{}
	CreatedAt time.Time
}

type ActivityParams struct {
	LeadID         uuid.UUID
	OrganizationID uuid.UUID
	ActorID        *uuid.UUID
	Action         string
	Meta           map[string]interface{}
}

func insertActivity(ctx context.Context, q db.DBTX, p ActivityParams) error {
	meta := p.Meta
	if meta == nil {
		meta = map[string]interface{}{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO crm_lead_activity (lead_id, organization_id, actor_id, action, meta)
		VALUES ($1, $2, $3, $4, $5)`,
		p.LeadID, p.OrganizationID, p.ActorID, p.Action, raw,
	)
	return err
}

func (r *Repository) AddActivity(ctx context.Context, params ActivityParams) error {
	return insertActivity(ctx, r.pool, params)
}

// ListActivity returns the timeline of a lead, newest first.
func (r *Repository) ListActivity(ctx context.Context, leadID, organizationID uuid.UUID) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.lead_id, a.actor_id, m.full_name, a.action, a.meta, a.created_at
		FROM crm_lead_activity a
		LEFT JOIN crm_team_members m ON m.id = a.actor_id AND m.organization_id = a.organization_id
		WHERE a.lead_id = $1 AND a.organization_id = $2
		ORDER BY a.created_at DESC, a.id DESC`,
		leadID, organizationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		var a Activity
		var raw []byte
		if err := rows.Scan(&a.ID, &a.LeadID, &a.ActorID, &a.ActorName, &a.Action, &raw, &a.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &a.Meta); err != nil {
				return nil, err
			}
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
