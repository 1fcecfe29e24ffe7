package adapters

import (
	"context"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/management"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"

	"github.com/google/uuid"
)

// LeadReference lets tasks and appointments check the lead they point at.
type LeadReference struct {
	mgmt *management.Service
}

func NewLeadReference(mgmt *management.Service) *LeadReference {
	return &LeadReference{mgmt: mgmt}
}

// EnsureVisible fails with NotFound unless the actor can see the lead.
func (r *LeadReference) EnsureVisible(ctx context.Context, actor access.Actor, leadID uuid.UUID) error {
	_, err := r.mgmt.GetByID(ctx, actor, leadID)
	return err
}
