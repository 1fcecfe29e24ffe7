package webhook

import (
	"context"
	"strings"
	"testing"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/management"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/google/uuid"
)

type memKeys struct {
	keys    map[string]APIKey
	touched []uuid.UUID
}

func newMemKeys() *memKeys { return &memKeys{keys: map[string]APIKey{}} }

func (m *memKeys) Create(_ context.Context, p CreateKeyParams) (APIKey, error) {
	by := p.CreatedBy
	k := APIKey{
		ID:             uuid.New(),
		OrganizationID: p.OrganizationID,
		Name:           p.Name,
		KeyHash:        p.KeyHash,
		KeyPrefix:      p.KeyPrefix,
		AllowedDomains: p.AllowedDomains,
		IsActive:       true,
		CreatedBy:      &by,
	}
	m.keys[p.KeyHash] = k
	return k, nil
}

func (m *memKeys) GetByHash(_ context.Context, hash string) (APIKey, error) {
	k, ok := m.keys[hash]
	if !ok || !k.IsActive {
		return APIKey{}, apperr.NotFound(keyNotFoundMsg)
	}
	return k, nil
}

func (m *memKeys) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]APIKey, error) {
	var out []APIKey
	for _, k := range m.keys {
		if k.OrganizationID == orgID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memKeys) Revoke(_ context.Context, keyID, orgID uuid.UUID) error {
	for h, k := range m.keys {
		if k.ID == keyID && k.OrganizationID == orgID && k.IsActive {
			k.IsActive = false
			m.keys[h] = k
			return nil
		}
	}
	return apperr.NotFound(keyNotFoundMsg)
}

func (m *memKeys) TouchLastUsed(_ context.Context, keyID uuid.UUID) error {
	m.touched = append(m.touched, keyID)
	return nil
}

type fakeCapturer struct {
	inputs    []management.LeadInput
	meta      map[string]interface{}
	duplicate bool
}

func (f *fakeCapturer) Capture(_ context.Context, _ uuid.UUID, in management.LeadInput, meta map[string]interface{}) (management.CaptureResult, error) {
	f.inputs = append(f.inputs, in)
	f.meta = meta
	return management.CaptureResult{Lead: transport.LeadResponse{ID: uuid.New(), FullName: in.FullName}, Duplicate: f.duplicate}, nil
}

var admin = access.Actor{UserID: uuid.New(), OrgID: uuid.New(), MemberID: uuid.New(), Role: access.RoleAdmin}

func TestKeyLifecycle(t *testing.T) {
	store := newMemKeys()
	svc := NewService(store, &fakeCapturer{}, nil)
	ctx := context.Background()

	created, err := svc.CreateKey(ctx, admin, CreateAPIKeyRequest{Name: " Website ", AllowedDomains: []string{" Example.com ", ""}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(created.APIKey, "whk_") || len(created.APIKey) != 68 {
		t.Fatalf("unexpected key %q", created.APIKey)
	}
	if created.Key.KeyPrefix != created.APIKey[:12] || created.Key.Name != "Website" {
		t.Fatalf("unexpected key metadata %+v", created.Key)
	}
	if got := created.Key.AllowedDomains; len(got) != 1 || got[0] != "example.com" {
		t.Fatalf("unexpected domains %v", got)
	}
	for _, k := range store.keys {
		if k.KeyHash == created.APIKey {
			t.Fatal("plaintext key must not be stored")
		}
	}

	key, err := svc.Authenticate(ctx, created.APIKey, "https://example.com/contact")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if key.OrganizationID != admin.OrgID {
		t.Fatalf("wrong organization %s", key.OrganizationID)
	}

	if err := svc.RevokeKey(ctx, admin, created.Key.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Authenticate(ctx, created.APIKey, "https://example.com"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected revoked key to be rejected, got %v", err)
	}
	if err := svc.RevokeKey(ctx, admin, created.Key.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected second revoke to be not found, got %v", err)
	}
}

func TestKeyManagementIsAdminOnly(t *testing.T) {
	svc := NewService(newMemKeys(), &fakeCapturer{}, nil)
	manager := admin
	manager.Role = access.RoleSalesManager

	if _, err := svc.CreateKey(context.Background(), manager, CreateAPIKeyRequest{Name: "x"}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.ListKeys(context.Background(), manager); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	store := newMemKeys()
	svc := NewService(store, &fakeCapturer{}, nil)
	created, err := svc.CreateKey(context.Background(), admin, CreateAPIKeyRequest{Name: "site", AllowedDomains: []string{"*.acme.io"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name   string
		key    string
		origin string
		kind   apperr.Kind
	}{
		{"missing key", "", "https://www.acme.io", apperr.KindUnauthorized},
		{"unknown key", "whk_nope", "https://www.acme.io", apperr.KindUnauthorized},
		{"foreign origin", created.APIKey, "https://evil.example", apperr.KindForbidden},
		{"no origin", created.APIKey, "", apperr.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Authenticate(context.Background(), tt.key, tt.origin); !apperr.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestSubmitMapsFormFields(t *testing.T) {
	store := newMemKeys()
	leads := &fakeCapturer{}
	svc := NewService(store, leads, nil)
	key := APIKey{ID: uuid.New(), OrganizationID: admin.OrgID, IsActive: true}

	resp, err := svc.Submit(context.Background(), key, map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@engines.test",
		"company":    "Analytical",
		"message":    "Please call me",
		"utm_medium": "cpc",
	}, "https://www.engines.test/contact")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Duplicate || resp.LeadID == uuid.Nil {
		t.Fatalf("unexpected response %+v", resp)
	}

	in := leads.inputs[0]
	if in.FullName != "Ada Lovelace" || in.Email != "ada@engines.test" || in.Company != "Analytical" {
		t.Fatalf("unexpected input %+v", in)
	}
	if in.Source != "www.engines.test" {
		t.Fatalf("expected origin host as source, got %q", in.Source)
	}
	if !strings.HasPrefix(in.Notes, "Please call me\n\nSubmitted fields:") || !strings.Contains(in.Notes, "utm_medium: cpc") {
		t.Fatalf("unexpected notes %q", in.Notes)
	}
	if leads.meta["keyId"] != key.ID {
		t.Fatalf("expected key id in meta, got %v", leads.meta)
	}
	if len(store.touched) != 1 || store.touched[0] != key.ID {
		t.Fatalf("expected key to be marked used, got %v", store.touched)
	}
}

func TestSubmitFallbacks(t *testing.T) {
	leads := &fakeCapturer{duplicate: true}
	svc := NewService(newMemKeys(), leads, nil)
	key := APIKey{ID: uuid.New(), OrganizationID: admin.OrgID}

	resp, err := svc.Submit(context.Background(), key, map[string]string{"phone": "+31 6 1234 5678"}, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resp.Duplicate {
		t.Fatal("expected duplicate flag to pass through")
	}
	in := leads.inputs[0]
	if in.FullName != "+31 6 1234 5678" || in.Source != defaultSource {
		t.Fatalf("unexpected fallbacks %+v", in)
	}
}

func TestSubmitWithoutContactDetails(t *testing.T) {
	svc := NewService(newMemKeys(), &fakeCapturer{}, nil)
	_, err := svc.Submit(context.Background(), APIKey{ID: uuid.New()}, map[string]string{"message": "hello"}, "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildNotesTruncates(t *testing.T) {
	notes := buildNotes("", map[string]string{"message": strings.Repeat("é", maxNotesLength+10)})
	if n := len([]rune(notes)); n != maxNotesLength {
		t.Fatalf("expected %d runes, got %d", maxNotesLength, n)
	}
}
