package handler

import (
	"net/http"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/team/repository"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/team/service"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/team/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid team member id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("", h.Create)
	rg.PATCH("/:id", h.Update)
	rg.PUT("/:id/role", h.ChangeRole)
	rg.PUT("/:id/active", h.SetActive)
}

func actorOrAbort(c *gin.Context) (access.Actor, bool) {
	actor, err := access.FromIdentity(httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return access.Actor{}, false
	}
	return actor, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req transport.ListMembersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	params := repository.ListParams{Search: req.Search}
	if req.Role != "" {
		params.Role = &req.Role
	}
	if req.Active != "" {
		active := req.Active == "true"
		params.Active = &active
	}

	members, err := h.svc.List(c.Request.Context(), actor, params)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.MemberResponse, 0, len(members))
	for _, m := range members {
		items = append(items, toResponse(m))
	}
	httpkit.OK(c, transport.MemberListResponse{Items: items, Total: len(items)})
}

func (h *Handler) Get(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	m, err := h.svc.Get(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(m))
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req transport.CreateMemberRequest
	if !h.bindJSON(c, &req) {
		return
	}

	m, err := h.svc.Create(c.Request.Context(), actor, service.CreateParams{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toResponse(m))
}

func (h *Handler) Update(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateMemberRequest
	if !h.bindJSON(c, &req) {
		return
	}

	m, err := h.svc.Update(c.Request.Context(), actor, id, repository.UpdateParams{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(m))
}

func (h *Handler) ChangeRole(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.ChangeRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	m, err := h.svc.ChangeRole(c.Request.Context(), actor, id, req.Role)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(m))
}

func (h *Handler) SetActive(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.SetActiveRequest
	if !h.bindJSON(c, &req) {
		return
	}

	m, err := h.svc.SetActive(c.Request.Context(), actor, id, *req.IsActive)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(m))
}

func toResponse(m repository.Member) transport.MemberResponse {
	return transport.MemberResponse{
		ID:        m.ID,
		UserID:    m.UserID,
		FullName:  m.FullName,
		Email:     m.Email,
		Phone:     m.Phone,
		Role:      m.Role,
		IsActive:  m.IsActive,
		Linked:    m.UserID != nil,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
