package webhook

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxSubmissionBytes = 64 << 10

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// HandleCreateAPIKey returns the plaintext key exactly once.
func (h *Handler) HandleCreateAPIKey(c *gin.Context) {
	actor, err := access.FromIdentity(httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}

	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return
	}

	resp, err := h.svc.CreateKey(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) HandleListAPIKeys(c *gin.Context) {
	actor, err := access.FromIdentity(httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}
	keys, err := h.svc.ListKeys(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, keys)
}

func (h *Handler) HandleRevokeAPIKey(c *gin.Context) {
	actor, err := access.FromIdentity(httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid key id", nil)
		return
	}
	if httpkit.HandleError(c, h.svc.RevokeKey(c.Request.Context(), actor, keyID)) {
		return
	}
	httpkit.OK(c, gin.H{"message": "API key revoked"})
}

// HandleSubmitLead accepts url-encoded, multipart or JSON form posts.
func (h *Handler) HandleSubmitLead(c *gin.Context) {
	key, err := keyFromContext(c)
	if httpkit.HandleError(c, err) {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSubmissionBytes)
	form, err := collectFields(c)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid form submission", err.Error())
		return
	}
	if len(form) == 0 {
		httpkit.Error(c, http.StatusBadRequest, "form submission has no fields", nil)
		return
	}

	origin := c.GetHeader("Origin")
	if origin == "" {
		origin = c.GetHeader("Referer")
	}
	resp, err := h.svc.Submit(c.Request.Context(), key, form, origin)
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusCreated
	if resp.Duplicate {
		status = http.StatusOK
	}
	httpkit.JSON(c, status, resp)
}

// collectFields flattens the body into single values; repeated form keys are
// joined with commas. JSON values that are not strings are encoded as JSON.
func collectFields(c *gin.Context) (map[string]string, error) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if mediaType == "application/json" {
		return collectJSONFields(c.Request.Body)
	}

	if mediaType == "multipart/form-data" {
		if err := c.Request.ParseMultipartForm(maxSubmissionBytes); err != nil {
			return nil, err
		}
	} else if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(c.Request.PostForm))
	for k, vals := range c.Request.PostForm {
		if k == "" {
			continue
		}
		fields[k] = strings.Join(vals, ", ")
	}
	return fields, nil
}

func collectJSONFields(body io.Reader) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, apperr.BadRequest("body must be a JSON object")
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			fields[k] = s
			continue
		}
		if string(v) == "null" {
			continue
		}
		fields[k] = string(v)
	}
	return fields, nil
}
