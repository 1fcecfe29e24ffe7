package handler

import (
	"net/http"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth/service"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/auth/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sign-up", h.SignUp)
	rg.POST("/sign-in", h.SignIn)
	rg.POST("/refresh", h.Refresh)
	rg.POST("/sign-out", h.SignOut)
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
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

func (h *Handler) SignUp(c *gin.Context) {
	var req transport.SignUpRequest
	if !h.bind(c, &req) {
		return
	}

	tokens, err := h.svc.SignUp(c.Request.Context(), service.SignUpParams{
		Email:            req.Email,
		Password:         req.Password,
		FullName:         req.FullName,
		OrganizationName: req.OrganizationName,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toTokenResponse(tokens))
}

func (h *Handler) SignIn(c *gin.Context) {
	var req transport.SignInRequest
	if !h.bind(c, &req) {
		return
	}

	tokens, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toTokenResponse(tokens))
}

func (h *Handler) Refresh(c *gin.Context) {
	var req transport.RefreshRequest
	if !h.bind(c, &req) {
		return
	}

	tokens, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toTokenResponse(tokens))
}

func (h *Handler) SignOut(c *gin.Context) {
	var req transport.RefreshRequest
	if !h.bind(c, &req) {
		return
	}
	if httpkit.HandleError(c, h.svc.SignOut(c.Request.Context(), req.RefreshToken)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetMe(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	profile, err := h.svc.Me(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ProfileResponse{
		ID:        profile.User.ID,
		Email:     profile.User.Email,
		CreatedAt: profile.User.CreatedAt,
	}
	if m := profile.Membership; m != nil {
		resp.Membership = &transport.MembershipResponse{
			MemberID:         m.MemberID,
			OrganizationID:   m.OrganizationID,
			OrganizationName: m.OrganizationName,
			FullName:         m.FullName,
			Role:             m.Role,
			IsActive:         m.IsActive,
		}
	}
	httpkit.OK(c, resp)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ChangePasswordRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.svc.ChangePassword(c.Request.Context(), identity.UserID(), req.CurrentPassword, req.NewPassword)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "password updated"})
}

func toTokenResponse(t service.Tokens) transport.TokenResponse {
	return transport.TokenResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(t.ExpiresIn.Seconds()),
	}
}
