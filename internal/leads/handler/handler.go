package handler

import (
	"net/http"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/management"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

// Handler handles lead HTTP requests.
type Handler struct {
	mgmt *management.Service
	val  *validator.Validator
}

func New(mgmt *management.Service, val *validator.Validator) *Handler {
	return &Handler{mgmt: mgmt, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/metrics", h.GetMetrics)
	rg.GET("/duplicates", h.CheckDuplicates)
	rg.POST("/bulk-delete", h.BulkDelete)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.PUT("/:id/assignee", h.Assign)
	rg.PUT("/:id/status", h.UpdateStatus)
	rg.GET("/:id/activity", h.ListActivity)
}

func actorOrAbort(c *gin.Context) (access.Actor, bool) {
	actor, err := access.FromIdentity(httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return access.Actor{}, false
	}
	return actor, true
}

func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func (h *Handler) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	in := management.LeadInput{
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		Company:    req.Company,
		Source:     req.Source,
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
		Notes:      req.Notes,
	}
	if req.Value != nil {
		in.Value = *req.Value
	}

	lead, err := h.mgmt.Create(c.Request.Context(), actor, in, req.Force)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) GetByID(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.mgmt.GetByID(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req transport.ListLeadsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.mgmt.List(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Update(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.mgmt.Update(c.Request.Context(), actor, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Delete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	if err := h.mgmt.Delete(c.Request.Context(), actor, id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) BulkDelete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req transport.BulkDeleteLeadsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	deleted, err := h.mgmt.BulkDelete(c.Request.Context(), actor, req.IDs)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BulkDeleteLeadsResponse{DeletedCount: deleted})
}

func (h *Handler) Assign(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.AssignLeadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.mgmt.Assign(c.Request.Context(), actor, id, req.AssigneeID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lead, err := h.mgmt.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) ListActivity(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	items, err := h.mgmt.ListActivity(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}

func (h *Handler) CheckDuplicates(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req transport.DuplicateCheckRequest
	if !h.bindQuery(c, &req) {
		return
	}

	result, err := h.mgmt.CheckDuplicates(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GetMetrics(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	metrics, err := h.mgmt.Metrics(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, metrics)
}
