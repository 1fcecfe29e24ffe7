package management

import (
	"context"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/repository"

	"github.com/google/uuid"
)

// logActivity writes a timeline entry. A failed write is logged and does not
// fail the operation that caused it.
func (s *Service) logActivity(ctx context.Context, lead repository.Lead, actorID *uuid.UUID, action string, meta map[string]interface{}) {
	err := s.repo.AddActivity(ctx, repository.ActivityParams{
		LeadID:         lead.ID,
		OrganizationID: lead.OrganizationID,
		ActorID:        actorID,
		Action:         action,
		Meta:           meta,
	})
	if err != nil {
		s.log.Error("failed to record lead activity", "error", err, "leadId", lead.ID, "action", action)
	}
}

func (s *Service) publishChange(ctx context.Context, op string, lead repository.Lead, previousOwner *uuid.UUID) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.RowChanged{
		BaseEvent:          events.NewBaseEvent(),
		OrganizationID:     lead.OrganizationID,
		Table:              events.TableLeads,
		Op:                 op,
		RecordID:           lead.ID,
		AssignedTo:         lead.AssignedTo,
		PreviousAssignedTo: previousOwner,
		Record:             toLeadResponse(lead),
	})
}

func (s *Service) publishDelete(ctx context.Context, organizationID, id uuid.UUID, owner *uuid.UUID) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.RowChanged{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: organizationID,
		Table:          events.TableLeads,
		Op:             events.OpDelete,
		RecordID:       id,
		AssignedTo:     owner,
	})
}

func (s *Service) publishAssigned(ctx context.Context, lead repository.Lead, previous *uuid.UUID, by uuid.UUID) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:          events.NewBaseEvent(),
		OrganizationID:     lead.OrganizationID,
		LeadID:             lead.ID,
		LeadName:           lead.FullName,
		PreviousAssigneeID: previous,
		NewAssigneeID:      lead.AssignedTo,
		AssignedByID:       by,
	})
}

func (s *Service) publishStatusChanged(ctx context.Context, lead repository.Lead, oldStatus string, by uuid.UUID) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: lead.OrganizationID,
		LeadID:         lead.ID,
		OldStatus:      oldStatus,
		NewStatus:      lead.Status,
		ActorID:        by,
	})
}
