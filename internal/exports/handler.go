package exports

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *Service
	val *validator.Validator
	log *logger.Logger
}

func NewHandler(svc *Service, val *validator.Validator, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: svc, val: val, log: log}
}

func (h *Handler) ExportLeadsCSV(c *gin.Context) {
	h.export(c, "csv", "text/csv; charset=utf-8", func() (RowWriter, error) {
		return NewCSVWriter(c.Writer), nil
	})
}

func (h *Handler) ExportLeadsXLSX(c *gin.Context) {
	h.export(c, "xlsx", xlsxContentType, func() (RowWriter, error) {
		return NewXLSXWriter(c.Writer)
	})
}

func (h *Handler) export(c *gin.Context, ext, contentType string, open func() (RowWriter, error)) {
	actor, err := access.FromIdentity(httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return
	}

	exp, err := h.svc.Prepare(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	w, err := open()
	if httpkit.HandleError(c, err) {
		return
	}

	filename := fmt.Sprintf("leads-%s.%s", time.Now().UTC().Format("20060102"), ext)
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("X-Total-Count", strconv.Itoa(exp.Total()))
	c.Status(http.StatusOK)

	// Headers are gone; a failure here can only cut the download short.
	if _, err := exp.WriteTo(c.Request.Context(), w); err != nil {
		h.log.Error("lead export interrupted", "error", err, "memberId", actor.MemberID, "format", ext)
		_ = c.Error(err)
	}
}
