package webhook

import (
	"time"

	"github.com/google/uuid"
)

type CreateAPIKeyRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=100"`
	AllowedDomains []string `json:"allowedDomains" validate:"omitempty,max=20,dive,max=253"`
}

type APIKeyResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	KeyPrefix      string     `json:"keyPrefix"`
	AllowedDomains []string   `json:"allowedDomains"`
	IsActive       bool       `json:"isActive"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastUsedAt     *time.Time `json:"lastUsedAt,omitempty"`
}

// CreateAPIKeyResponse carries the plaintext key, returned this one time only.
type CreateAPIKeyResponse struct {
	APIKey string         `json:"apiKey"`
	Key    APIKeyResponse `json:"key"`
}

type SubmissionResponse struct {
	LeadID    uuid.UUID `json:"leadId"`
	Duplicate bool      `json:"duplicate"`
}
