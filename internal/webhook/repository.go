// Package webhook captures leads posted by website forms. Sites authenticate
// with an organization API key; admins create and revoke those keys.
package webhook

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth/token"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	keyPrefix      = "whk_"
	keyNotFoundMsg = "webhook API key not found"
)

// APIKey is a stored webhook key. Only the hash of the secret is kept.
type APIKey struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	KeyHash        string
	KeyPrefix      string
	AllowedDomains []string
	IsActive       bool
	CreatedBy      *uuid.UUID
	CreatedAt      time.Time
	LastUsedAt     *time.Time
}

// KeyStore is the persistence the service needs.
type KeyStore interface {
	Create(ctx context.Context, params CreateKeyParams) (APIKey, error)
	GetByHash(ctx context.Context, keyHash string) (APIKey, error)
	ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]APIKey, error)
	Revoke(ctx context.Context, keyID, organizationID uuid.UUID) error
	TouchLastUsed(ctx context.Context, keyID uuid.UUID) error
}

type CreateKeyParams struct {
	OrganizationID uuid.UUID
	Name           string
	KeyHash        string
	KeyPrefix      string
	AllowedDomains []string
	CreatedBy      uuid.UUID
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ KeyStore = (*Repository)(nil)

// GenerateAPIKey returns a new plaintext key, its hash and the display prefix.
// The plaintext is shown to the admin once and never stored.
func GenerateAPIKey() (plaintext, hash, prefix string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", "", err
	}
	plaintext = keyPrefix + hex.EncodeToString(buf)
	return plaintext, HashKey(plaintext), plaintext[:12], nil
}

// HashKey hashes a plaintext key for lookup.
func HashKey(plaintext string) string {
	return token.HashSHA256(plaintext)
}

const keyColumns = `id, organization_id, name, key_hash, key_prefix, allowed_domains, is_active, created_by, created_at, last_used_at`

func scanKey(row pgx.Row) (APIKey, error) {
	var k APIKey
	err := row.Scan(&k.ID, &k.OrganizationID, &k.Name, &k.KeyHash, &k.KeyPrefix,
		&k.AllowedDomains, &k.IsActive, &k.CreatedBy, &k.CreatedAt, &k.LastUsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return APIKey{}, apperr.NotFound(keyNotFoundMsg)
	}
	return k, err
}

func (r *Repository) Create(ctx context.Context, p CreateKeyParams) (APIKey, error) {
	domains := p.AllowedDomains
	if domains == nil {
		domains = []string{}
	}
	return scanKey(r.pool.QueryRow(ctx, `
		INSERT INTO crm_webhook_keys (organization_id, name, key_hash, key_prefix, allowed_domains, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+keyColumns,
		p.OrganizationID, p.Name, p.KeyHash, p.KeyPrefix, domains, p.CreatedBy))
}

// GetByHash returns an active key.
func (r *Repository) GetByHash(ctx context.Context, keyHash string) (APIKey, error) {
	return scanKey(r.pool.QueryRow(ctx, `
		SELECT `+keyColumns+`
		FROM crm_webhook_keys
		WHERE key_hash = $1 AND is_active = true`, keyHash))
}

func (r *Repository) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+keyColumns+`
		FROM crm_webhook_keys
		WHERE organization_id = $1
		ORDER BY created_at DESC`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]APIKey, 0)
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *Repository) Revoke(ctx context.Context, keyID, organizationID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE crm_webhook_keys SET is_active = false
		WHERE id = $1 AND organization_id = $2 AND is_active = true`, keyID, organizationID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(keyNotFoundMsg)
	}
	return nil
}

func (r *Repository) TouchLastUsed(ctx context.Context, keyID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE crm_webhook_keys SET last_used_at = now() WHERE id = $1`, keyID)
	return err
}
