package management

import (
	"context"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/domain"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/sanitize"

	"github.com/google/uuid"
)

// DetectDuplicates compares c with the live leads of the organization.
func (s *Service) DetectDuplicates(ctx context.Context, organizationID uuid.UUID, c domain.Contact) ([]domain.Match, error) {
	keys := domain.KeysOf(c)
	if keys.Empty() {
		return []domain.Match{}, nil
	}

	candidates, err := s.repo.FindDuplicateCandidates(ctx, organizationID, repository.DuplicateKeys{
		PhoneNormalized: keys.Phone,
		Email:           keys.Email,
		NameKey:         keys.Name,
	})
	if err != nil {
		return nil, err
	}

	existing := make([]domain.Contact, 0, len(candidates))
	for _, lead := range candidates {
		existing = append(existing, domain.Contact{
			ID:       lead.ID,
			FullName: lead.FullName,
			Email:    deref(lead.Email),
			Phone:    deref(lead.Phone),
			Company:  deref(lead.Company),
		})
	}
	return domain.FindDuplicates(c, existing), nil
}

// CheckDuplicates runs duplicate detection without creating anything.
func (s *Service) CheckDuplicates(ctx context.Context, actor access.Actor, req transport.DuplicateCheckRequest) (transport.DuplicateCheckResponse, error) {
	c := domain.Contact{
		FullName: sanitize.Text(req.FullName),
		Email:    req.Email,
		Phone:    req.Phone,
		Company:  sanitize.Text(req.Company),
	}
	if domain.KeysOf(c).Empty() {
		return transport.DuplicateCheckResponse{}, apperr.Validation("provide a name, email or phone to check")
	}

	matches, err := s.DetectDuplicates(ctx, actor.OrgID, c)
	if err != nil {
		return transport.DuplicateCheckResponse{}, err
	}
	return transport.DuplicateCheckResponse{
		IsDuplicate: len(matches) > 0,
		Matches:     matches,
	}, nil
}

// ContactOf normalizes in the way Create does and returns the fields used for
// duplicate detection.
func ContactOf(in LeadInput) (domain.Contact, error) {
	params, err := buildCreateParams(uuid.Nil, nil, in)
	if err != nil {
		return domain.Contact{}, err
	}
	return contactOf(params), nil
}
