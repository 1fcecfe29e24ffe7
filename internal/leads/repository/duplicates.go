package repository

import (
	"context"

	"github.com/google/uuid"
)

// DuplicateKeys are the comparison keys of a candidate lead. Empty keys are
// ignored.
type DuplicateKeys struct {
	PhoneNormalized string
	Email           string
	NameKey         string
}

const duplicateCandidateLimit = 25

// FindDuplicateCandidates returns live leads sharing at least one key. The
// caller decides which of them are real duplicates.
func (r *Repository) FindDuplicateCandidates(ctx context.Context, organizationID uuid.UUID, keys DuplicateKeys) ([]Lead, error) {
	if keys.PhoneNormalized == "" && keys.Email == "" && keys.NameKey == "" {
		return []Lead{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM crm_leads l
		WHERE l.organization_id = $1 AND l.deleted_at IS NULL
			AND (
				($2 <> '' AND l.phone_normalized = $2)
				OR ($3 <> '' AND lower(l.email) = $3)
				OR ($4 <> '' AND l.name_key = $4)
			)
		ORDER BY l.created_at DESC
		LIMIT $5`,
		organizationID, keys.PhoneNormalized, keys.Email, keys.NameKey, duplicateCandidateLimit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
