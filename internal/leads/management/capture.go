package management

import (
	"context"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/events"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/domain"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/google/uuid"
)

// CaptureResult is the outcome of an unattended lead submission.
type CaptureResult struct {
	Lead      transport.LeadResponse
	Duplicate bool
}

// Capture stores a lead submitted without a signed-in user, such as a website
// form. A high-confidence duplicate is not an error: the existing lead gets a
// resubmitted entry on its timeline and is returned instead.
func (s *Service) Capture(ctx context.Context, organizationID uuid.UUID, in LeadInput, meta map[string]interface{}) (CaptureResult, error) {
	params, err := buildCreateParams(organizationID, nil, in)
	if err != nil {
		return CaptureResult{}, err
	}

	matches, err := s.DetectDuplicates(ctx, organizationID, contactOf(params))
	if err != nil {
		return CaptureResult{}, err
	}
	if domain.HasStrong(matches) {
		existing, err := s.repo.GetByID(ctx, matches[0].LeadID, organizationID)
		if err != nil {
			return CaptureResult{}, err
		}
		if meta == nil {
			meta = map[string]interface{}{}
		}
		meta["matchedOn"] = matches[0].MatchedOn
		s.logActivity(ctx, existing, nil, domain.ActionResubmitted, meta)
		s.publishChange(ctx, events.OpUpdate, existing, nil)
		return CaptureResult{Lead: toLeadResponse(existing), Duplicate: true}, nil
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return CaptureResult{}, err
	}

	s.logActivity(ctx, lead, nil, domain.ActionCreated, meta)
	s.publishChange(ctx, events.OpInsert, lead, nil)
	return CaptureResult{Lead: toLeadResponse(lead)}, nil
}

// ImportLeads stores pre-validated rows in one transaction. Associates own
// every lead they import.
func (s *Service) ImportLeads(ctx context.Context, actor access.Actor, rows []LeadInput) ([]transport.LeadResponse, error) {
	if len(rows) == 0 {
		return []transport.LeadResponse{}, nil
	}

	creator := actor.MemberID
	params := make([]repository.CreateLeadParams, 0, len(rows))
	for i, in := range rows {
		if !actor.SeesAll() {
			self := actor.MemberID
			in.AssignedTo = &self
		}
		p, err := buildCreateParams(actor.OrgID, &creator, in)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, "invalid import row", err).WithDetails(map[string]int{"index": i})
		}
		params = append(params, p)
	}

	leads, err := s.repo.CreateBatch(ctx, params)
	if err != nil {
		return nil, err
	}

	resp := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		s.publishChange(ctx, events.OpInsert, lead, nil)
		resp = append(resp, toLeadResponse(lead))
	}
	return resp, nil
}
