package webhook

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/imports/fieldmap"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/management"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultSource   = "webhook"
	maxNotesLength  = 5000
	maxFieldCount   = 50
	submittedHeader = "Submitted fields:"
)

// LeadCapturer stores an unattended submission with duplicate detection.
type LeadCapturer interface {
	Capture(ctx context.Context, organizationID uuid.UUID, in management.LeadInput, meta map[string]interface{}) (management.CaptureResult, error)
}

type Service struct {
	keys  KeyStore
	leads LeadCapturer
	log   *logger.Logger
}

func NewService(keys KeyStore, leads LeadCapturer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{keys: keys, leads: leads, log: log}
}

func (s *Service) CreateKey(ctx context.Context, actor access.Actor, req CreateAPIKeyRequest) (CreateAPIKeyResponse, error) {
	if !actor.IsAdmin() {
		return CreateAPIKeyResponse{}, apperr.Forbidden("only admins manage webhook keys")
	}
	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		return CreateAPIKeyResponse{}, apperr.Wrap(apperr.KindInternal, "failed to generate API key", err)
	}

	domains := make([]string, 0, len(req.AllowedDomains))
	for _, d := range req.AllowedDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}

	key, err := s.keys.Create(ctx, CreateKeyParams{
		OrganizationID: actor.OrgID,
		Name:           strings.TrimSpace(req.Name),
		KeyHash:        hash,
		KeyPrefix:      prefix,
		AllowedDomains: domains,
		CreatedBy:      actor.MemberID,
	})
	if err != nil {
		return CreateAPIKeyResponse{}, err
	}

	s.log.Info("webhook key created", "keyId", key.ID, "organizationId", actor.OrgID)
	return CreateAPIKeyResponse{APIKey: plaintext, Key: toKeyResponse(key)}, nil
}

func (s *Service) ListKeys(ctx context.Context, actor access.Actor) ([]APIKeyResponse, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("only admins manage webhook keys")
	}
	keys, err := s.keys.ListByOrganization(ctx, actor.OrgID)
	if err != nil {
		return nil, err
	}
	out := make([]APIKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, toKeyResponse(k))
	}
	return out, nil
}

func (s *Service) RevokeKey(ctx context.Context, actor access.Actor, keyID uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("only admins manage webhook keys")
	}
	if err := s.keys.Revoke(ctx, keyID, actor.OrgID); err != nil {
		return err
	}
	s.log.Info("webhook key revoked", "keyId", keyID, "organizationId", actor.OrgID)
	return nil
}

// Authenticate returns the active key for plaintext. Keys with allowed
// domains reject callers from any other origin.
func (s *Service) Authenticate(ctx context.Context, plaintext, origin string) (APIKey, error) {
	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" {
		return APIKey{}, apperr.Unauthorized("missing API key")
	}
	key, err := s.keys.GetByHash(ctx, HashKey(plaintext))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return APIKey{}, apperr.Unauthorized("invalid API key")
		}
		return APIKey{}, err
	}
	if len(key.AllowedDomains) > 0 && !isDomainAllowed(origin, key.AllowedDomains) {
		return APIKey{}, apperr.Forbidden("domain not allowed")
	}
	return key, nil
}

// Submit maps the form onto a lead and captures it. Every submitted field is
// also kept in the lead's notes.
func (s *Service) Submit(ctx context.Context, key APIKey, form map[string]string, origin string) (SubmissionResponse, error) {
	if len(form) > maxFieldCount {
		return SubmissionResponse{}, apperr.Validation(fmt.Sprintf("at most %d fields are accepted", maxFieldCount))
	}
	in, err := buildLeadInput(form, originHost(origin))
	if err != nil {
		return SubmissionResponse{}, err
	}

	meta := map[string]interface{}{
		"channel": "webhook",
		"keyId":   key.ID,
	}
	if host := originHost(origin); host != "" {
		meta["origin"] = host
	}

	result, err := s.leads.Capture(ctx, key.OrganizationID, in, meta)
	if err != nil {
		return SubmissionResponse{}, err
	}

	if err := s.keys.TouchLastUsed(ctx, key.ID); err != nil {
		s.log.Warn("webhook key last-used update failed", "error", err, "keyId", key.ID)
	}
	s.log.Info("webhook lead captured",
		"organizationId", key.OrganizationID,
		"leadId", result.Lead.ID,
		"duplicate", result.Duplicate,
	)
	return SubmissionResponse{LeadID: result.Lead.ID, Duplicate: result.Duplicate}, nil
}

// buildLeadInput needs a name, email or phone. Without a name the email or
// phone stands in so the lead can still be stored.
func buildLeadInput(form map[string]string, host string) (management.LeadInput, error) {
	values, _ := fieldmap.GuessValues(form)

	in := management.LeadInput{
		FullName: values[fieldmap.FullName],
		Email:    values[fieldmap.Email],
		Phone:    values[fieldmap.Phone],
		Company:  values[fieldmap.Company],
		Source:   values[fieldmap.Source],
	}
	if in.FullName == "" {
		in.FullName = fieldmap.JoinName(values[fieldmap.FirstName], values[fieldmap.LastName])
	}
	if in.Email == "" && in.Phone == "" && in.FullName == "" {
		return management.LeadInput{}, apperr.Validation("submission has no name, email or phone")
	}
	if in.FullName == "" {
		in.FullName = in.Email
		if in.FullName == "" {
			in.FullName = in.Phone
		}
	}
	if in.Source == "" {
		in.Source = defaultSource
		if host != "" {
			in.Source = host
		}
	}
	if raw := values[fieldmap.Value]; raw != "" {
		if v, err := fieldmap.ParseAmount(raw); err == nil && v >= 0 {
			in.Value = v
		}
	}
	in.Notes = buildNotes(values[fieldmap.Notes], form)

	if err := management.ValidateInput(in); err != nil {
		return management.LeadInput{}, err
	}
	return in, nil
}

func buildNotes(message string, form map[string]string) string {
	keys := make([]string, 0, len(form))
	for k, v := range form {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	if message != "" {
		b.WriteString(message)
		b.WriteString("\n\n")
	}
	b.WriteString(submittedHeader)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %s", strings.TrimSpace(k), strings.TrimSpace(form[k]))
	}

	notes := b.String()
	if r := []rune(notes); len(r) > maxNotesLength {
		notes = string(r[:maxNotesLength])
	}
	return notes
}

func toKeyResponse(k APIKey) APIKeyResponse {
	domains := k.AllowedDomains
	if domains == nil {
		domains = []string{}
	}
	return APIKeyResponse{
		ID:             k.ID,
		Name:           k.Name,
		KeyPrefix:      k.KeyPrefix,
		AllowedDomains: domains,
		IsActive:       k.IsActive,
		CreatedAt:      k.CreatedAt,
		LastUsedAt:     k.LastUsedAt,
	}
}
