package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserReader loads users and their CRM membership.
type UserReader interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (User, error)
	GetMembership(ctx context.Context, userID uuid.UUID) (Membership, error)
}

// AccountWriter creates and mutates accounts.
type AccountWriter interface {
	RegisterAccount(ctx context.Context, params RegisterParams) (User, Membership, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// RefreshTokenStore persists hashed refresh tokens.
type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

// AuthRepository is the full set used by the auth service.
type AuthRepository interface {
	UserReader
	AccountWriter
	RefreshTokenStore
}

var _ AuthRepository = (*Repository)(nil)
