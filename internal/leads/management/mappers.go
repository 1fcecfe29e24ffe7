package management

import (
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/transport"
)

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:              lead.ID,
		FullName:        lead.FullName,
		Email:           lead.Email,
		Phone:           lead.Phone,
		Company:         lead.Company,
		Source:          lead.Source,
		Status:          lead.Status,
		Value:           lead.Value,
		AssignedTo:      lead.AssignedTo,
		Notes:           lead.Notes,
		LastContactedAt: lead.LastContactedAt,
		CreatedBy:       lead.CreatedBy,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

func toActivityResponse(a repository.Activity) transport.ActivityResponse {
	return transport.ActivityResponse{
		ID:        a.ID,
		ActorID:   a.ActorID,
		ActorName: a.ActorName,
		Action:    a.Action,
		Meta:      a.Meta,
		CreatedAt: a.CreatedAt,
	}
}
