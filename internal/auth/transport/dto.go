package transport

import (
	"time"

	"github.com/google/uuid"
)

type SignUpRequest struct {
	Email            string `json:"email" validate:"required,email,max=254"`
	Password         string `json:"password" validate:"required,min=8,max=72"`
	FullName         string `json:"fullName" validate:"required,notblank,max=200"`
	OrganizationName string `json:"organizationName" validate:"omitempty,max=200"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type MembershipResponse struct {
	MemberID         uuid.UUID `json:"memberId"`
	OrganizationID   uuid.UUID `json:"organizationId"`
	OrganizationName string    `json:"organizationName"`
	FullName         string    `json:"fullName"`
	Role             string    `json:"role"`
	IsActive         bool      `json:"isActive"`
}

type ProfileResponse struct {
	ID         uuid.UUID           `json:"id"`
	Email      string              `json:"email"`
	CreatedAt  time.Time           `json:"createdAt"`
	Membership *MembershipResponse `json:"membership,omitempty"`
}
