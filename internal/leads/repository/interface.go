package repository

import (
	"context"

	"github.com/google/uuid"
)

// LeadReader provides read-only access to leads.
type LeadReader interface {
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
}

// LeadWriter provides lead mutations. Deletes are soft.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	CreateBatch(ctx context.Context, params []CreateLeadParams) ([]Lead, error)
	Update(ctx context.Context, id, organizationID uuid.UUID, params UpdateLeadParams) (Lead, error)
	// SetAssignee moves the lead from previous to assignee. A lead whose owner
	// is no longer previous is left alone and reported as Conflict.
	SetAssignee(ctx context.Context, id, organizationID uuid.UUID, previous, assignee *uuid.UUID) (Lead, error)
	SetStatus(ctx context.Context, id, organizationID uuid.UUID, status string) (Lead, error)
	Delete(ctx context.Context, id, organizationID uuid.UUID) error
	BulkDelete(ctx context.Context, ids []uuid.UUID, organizationID uuid.UUID) ([]DeletedLead, error)
}

// ActivityLogger records the lead timeline.
type ActivityLogger interface {
	AddActivity(ctx context.Context, params ActivityParams) error
	ListActivity(ctx context.Context, leadID, organizationID uuid.UUID) ([]Activity, error)
}

// DuplicateFinder returns leads sharing a phone, email or name key.
type DuplicateFinder interface {
	FindDuplicateCandidates(ctx context.Context, organizationID uuid.UUID, keys DuplicateKeys) ([]Lead, error)
}

// MetricsReader provides pipeline KPIs.
type MetricsReader interface {
	GetMetrics(ctx context.Context, organizationID uuid.UUID, assignedTo *uuid.UUID) (LeadMetrics, error)
}

// LeadsRepository is the full repository contract.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	ActivityLogger
	DuplicateFinder
	MetricsReader
}

var _ LeadsRepository = (*Repository)(nil)
