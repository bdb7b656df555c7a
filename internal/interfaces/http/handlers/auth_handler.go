package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ringbridge/internal/application/service"
	"ringbridge/pkg/errors"
)

// AuthHandler drives the interactive Ring login through the credential broker.
type AuthHandler struct {
	broker service.AuthBrokerService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(broker service.AuthBrokerService) *AuthHandler {
	return &AuthHandler{broker: broker}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login. The response status is "ok" when a
// credential landed directly, or "2fa-required" when the account needs a
// second factor submitted via POST /auth/2fa.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": errors.CodeMissingParams})
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": errors.CodeMissingParams})
		return
	}

	status, err := h.broker.Login(c.Request.Context(), email, req.Password)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			c.JSON(appErr.HTTPStatus(), gin.H{"status": "error", "message": appErr.Code()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": errors.CodeServerError})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}

// TwoFactorRequest is the body of POST /auth/2fa.
type TwoFactorRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// SubmitTwoFactor handles POST /auth/2fa. Submission is fire and forget: the
// code is forwarded to the waiting CLI attempt if one exists, and the caller
// learns the outcome by the credential landing (or not) on the pairing page.
func (h *AuthHandler) SubmitTwoFactor(c *gin.Context) {
	var req TwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": errors.CodeMissingParams})
		return
	}

	email := strings.TrimSpace(req.Email)
	code := strings.TrimSpace(req.Code)
	if email == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": errors.CodeMissingParams})
		return
	}

	h.broker.SubmitCode(c.Request.Context(), email, code)
	c.JSON(http.StatusOK, gin.H{"status": "2fa-submitted"})
}
