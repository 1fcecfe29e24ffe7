package handler

import (
	"io"
	"net/http"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/assistant/service"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/assistant/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/assistant/voice"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/gin-gonic/gin"
)

const audioField = "audio"

type Handler struct {
	svc   *service.Service
	relay *voice.Relay
	val   *validator.Validator
	log   *logger.Logger
}

// New returns a handler; a nil svc means the assistant is not configured and
// every route answers 503.
func New(svc *service.Service, relay *voice.Relay, val *validator.Validator, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: svc, relay: relay, val: val, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(h.requireEnabled)
	rg.POST("/chat", h.Chat)
	rg.POST("/transcribe", h.Transcribe)
	rg.GET("/voice", h.Voice)
}

func (h *Handler) requireEnabled(c *gin.Context) {
	if h.svc == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "assistant is not configured", nil)
		c.Abort()
		return
	}
	c.Next()
}

func (h *Handler) Chat(c *gin.Context) {
	actor, err := access.FromIdentity(httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}

	var req transport.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return
	}

	resp, err := h.svc.Chat(c.Request.Context(), actor, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Transcribe(c *gin.Context) {
	actor, err := access.FromIdentity(httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxAudioBytes+1<<20)

	fh, err := c.FormFile(audioField)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "an audio file is required", nil)
		return
	}
	if fh.Size > service.MaxAudioBytes {
		httpkit.HandleError(c, apperr.TooLarge("audio file is too large"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unable to read audio", nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, service.MaxAudioBytes+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unable to read audio", nil)
		return
	}

	resp, err := h.svc.Transcribe(c.Request.Context(), actor, service.Audio{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Voice(c *gin.Context) {
	actor, err := access.FromIdentity(httpkit.GetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}
	if h.relay == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "voice relay is not configured", nil)
		return
	}
	if err := h.relay.Serve(c.Writer, c.Request); err != nil {
		h.log.Warn("voice relay failed", "error", err, "memberId", actor.MemberID)
		httpkit.Error(c, http.StatusBadGateway, "voice service unavailable", nil)
	}
}
