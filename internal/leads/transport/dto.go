package transport

import (
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/domain"

	"github.com/google/uuid"
)

type CreateLeadRequest struct {
	FullName   string     `json:"fullName" validate:"required,notblank,max=200"`
	Email      string     `json:"email" validate:"omitempty,email,max=254"`
	Phone      string     `json:"phone" validate:"omitempty,max=50"`
	Company    string     `json:"company" validate:"omitempty,max=200"`
	Source     string     `json:"source" validate:"omitempty,max=100"`
	Status     string     `json:"status" validate:"omitempty,oneof=new contacted qualified proposal negotiation won lost"`
	Value      *float64   `json:"value" validate:"omitempty,gte=0"`
	AssignedTo *uuid.UUID `json:"assignedTo"`
	Notes      string     `json:"notes" validate:"omitempty,max=5000"`
	Force      bool       `json:"force"`
}

type UpdateLeadRequest struct {
	FullName *string  `json:"fullName" validate:"omitempty,notblank,max=200"`
	Email    *string  `json:"email" validate:"omitempty,max=254"`
	Phone    *string  `json:"phone" validate:"omitempty,max=50"`
	Company  *string  `json:"company" validate:"omitempty,max=200"`
	Source   *string  `json:"source" validate:"omitempty,max=100"`
	Value    *float64 `json:"value" validate:"omitempty,gte=0"`
	Notes    *string  `json:"notes" validate:"omitempty,max=5000"`
}

// AssignLeadRequest assigns a lead. A null assigneeId releases it.
type AssignLeadRequest struct {
	AssigneeID *uuid.UUID `json:"assigneeId"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted qualified proposal negotiation won lost"`
}

type BulkDeleteLeadsRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
}

type BulkDeleteLeadsResponse struct {
	DeletedCount int `json:"deletedCount"`
}

type DuplicateCheckRequest struct {
	FullName string `form:"fullName" json:"fullName" validate:"max=200"`
	Email    string `form:"email" json:"email" validate:"max=254"`
	Phone    string `form:"phone" json:"phone" validate:"max=50"`
	Company  string `form:"company" json:"company" validate:"max=200"`
}

type DuplicateCheckResponse struct {
	IsDuplicate bool           `json:"isDuplicate"`
	Matches     []domain.Match `json:"matches"`
}

// ListLeadsRequest carries list filters from the query string. AssignedTo is
// a member id or "unassigned".
type ListLeadsRequest struct {
	Status      string   `form:"status" validate:"omitempty,oneof=new contacted qualified proposal negotiation won lost"`
	Source      string   `form:"source" validate:"max=100"`
	AssignedTo  string   `form:"assignedTo" validate:"omitempty,max=40"`
	Search      string   `form:"search" validate:"max=100"`
	CreatedFrom string   `form:"createdFrom" validate:"omitempty,max=40"`
	CreatedTo   string   `form:"createdTo" validate:"omitempty,max=40"`
	MinValue    *float64 `form:"minValue" validate:"omitempty,gte=0"`
	MaxValue    *float64 `form:"maxValue" validate:"omitempty,gte=0"`
	SortBy      string   `form:"sortBy" validate:"omitempty,oneof=createdAt updatedAt value fullName status"`
	SortOrder   string   `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page        int      `form:"page" validate:"omitempty,min=1"`
	PageSize    int      `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	FullName        string     `json:"fullName"`
	Email           *string    `json:"email,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	Company         *string    `json:"company,omitempty"`
	Source          string     `json:"source"`
	Status          string     `json:"status"`
	Value           float64    `json:"value"`
	AssignedTo      *uuid.UUID `json:"assignedTo,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`
	CreatedBy       *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type ActivityResponse struct {
	ID        uuid.UUID              `json:"id"`
	ActorID   *uuid.UUID             `json:"actorId,omitempty"`
	ActorName *string                `json:"actorName,omitempty"`
	Action    string                 `json:"action"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

type LeadMetricsResponse struct {
	TotalLeads     int                `json:"totalLeads"`
	NewThisWeek    int                `json:"newThisWeek"`
	ByStatus       map[string]int     `json:"byStatus"`
	ValueByStatus  map[string]float64 `json:"valueByStatus"`
	TotalValue     float64            `json:"totalValue"`
	WonValue       float64            `json:"wonValue"`
	ConversionRate float64            `json:"conversionRate"`
	Touchpoints    int                `json:"touchpoints"`
}
