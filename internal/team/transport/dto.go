package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateMemberRequest struct {
	FullName string  `json:"fullName" validate:"required,notblank,max=200"`
	Email    string  `json:"email" validate:"required,email,max=254"`
	Phone    *string `json:"phone" validate:"omitempty,max=40"`
	Role     string  `json:"role" validate:"required,oneof=admin sales_manager sales_associate"`
}

type UpdateMemberRequest struct {
	FullName *string `json:"fullName" validate:"omitempty,max=200"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Phone    *string `json:"phone" validate:"omitempty,max=40"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin sales_manager sales_associate"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type ListMembersRequest struct {
	Role   string `form:"role" validate:"omitempty,oneof=admin sales_manager sales_associate"`
	Active string `form:"active" validate:"omitempty,oneof=true false"`
	Search string `form:"search" validate:"max=100"`
}

type MemberResponse struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"userId,omitempty"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Phone     *string    `json:"phone,omitempty"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	Linked    bool       `json:"linked"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type MemberListResponse struct {
	Items []MemberResponse `json:"items"`
	Total int              `json:"total"`
}
