package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/imports/service"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/imports/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	fileField    = "file"
	optionsField = "options"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/preview", h.Preview)
	rg.POST("/commit", h.Commit)
}

func (h *Handler) Preview(c *gin.Context) {
	if _, err := access.FromIdentity(httpkit.GetIdentity(c)); httpkit.HandleError(c, err) {
		return
	}
	up, ok := readUpload(c)
	if !ok {
		return
	}

	preview, err := h.svc.Preview(c.Request.Context(), up)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, preview)
}

// Commit expects the file plus an optional "options" field holding the
// commit options as JSON.
func (h *Handler) Commit(c *gin.Context) {
	actor, err := access.FromIdentity(httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}
	up, ok := readUpload(c)
	if !ok {
		return
	}

	var req transport.CommitRequest
	if raw := c.PostForm(optionsField); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid options", err.Error())
			return
		}
	}
	if err := h.val.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return
	}

	result, err := h.svc.Commit(c.Request.Context(), actor, up, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func readUpload(c *gin.Context) (service.Upload, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxUploadBytes+1<<20)

	fh, err := c.FormFile(fileField)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "a file is required", nil)
		return service.Upload{}, false
	}
	if fh.Size > service.MaxUploadBytes {
		httpkit.HandleError(c, apperr.TooLarge("file is too large"))
		return service.Upload{}, false
	}

	f, err := fh.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unable to read file", nil)
		return service.Upload{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxUploadBytes+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unable to read file", nil)
		return service.Upload{}, false
	}
	return service.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, true
}
