package management

import (
	"context"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/domain"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/google/uuid"
)

// Assign changes the owner of a lead. Admins and managers may assign any
// active member or clear the owner. Associates may only claim an unassigned
// lead for themselves or release their own.
func (s *Service) Assign(ctx context.Context, actor access.Actor, id uuid.UUID, assignee *uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id, actor.OrgID)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if actor.SeesAll() {
		if assignee != nil {
			if err := s.ensureAssignable(ctx, actor.OrgID, *assignee); err != nil {
				return transport.LeadResponse{}, err
			}
		}
	} else {
		claiming := lead.AssignedTo == nil && assignee != nil && *assignee == actor.MemberID
		releasing := actor.CanSee(lead.AssignedTo) && assignee == nil
		if !claiming && !releasing {
			if lead.AssignedTo != nil && !actor.CanSee(lead.AssignedTo) {
				return transport.LeadResponse{}, apperr.NotFound("lead not found")
			}
			return transport.LeadResponse{}, apperr.Forbidden("associates can only claim unassigned leads or release their own")
		}
	}

	if sameMember(lead.AssignedTo, assignee) {
		return toLeadResponse(lead), nil
	}

	updated, err := s.repo.SetAssignee(ctx, id, actor.OrgID, lead.AssignedTo, assignee)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	actorID := actor.MemberID
	s.logActivity(ctx, updated, &actorID, domain.ActionAssigned, map[string]interface{}{
		"from": lead.AssignedTo,
		"to":   assignee,
	})
	s.publishChange(ctx, events.OpUpdate, updated, lead.AssignedTo)
	s.publishAssigned(ctx, updated, lead.AssignedTo, actor.MemberID)

	return toLeadResponse(updated), nil
}

// UpdateStatus moves a lead through the pipeline.
func (s *Service) UpdateStatus(ctx context.Context, actor access.Actor, id uuid.UUID, status string) (transport.LeadResponse, error) {
	if !domain.ValidStatus(status) {
		return transport.LeadResponse{}, apperr.Validation("invalid status")
	}

	current, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if current.Status == status && status != domain.StatusContacted {
		return toLeadResponse(current), nil
	}

	lead, err := s.repo.SetStatus(ctx, id, actor.OrgID, status)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	actorID := actor.MemberID
	s.logActivity(ctx, lead, &actorID, domain.ActionStatusChanged, map[string]interface{}{
		"from": current.Status,
		"to":   status,
	})
	s.publishChange(ctx, events.OpUpdate, lead, nil)
	if current.Status != status {
		s.publishStatusChanged(ctx, lead, current.Status, actor.MemberID)
	}

	return toLeadResponse(lead), nil
}

func sameMember(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
