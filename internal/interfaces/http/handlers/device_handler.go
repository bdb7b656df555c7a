// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ringbridge/internal/application/service"
	"ringbridge/pkg/errors"
)

// DeviceHandler exposes the device pairing flow: start, poll, authorize.
type DeviceHandler struct {
	sessions service.DeviceSessionService
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(sessions service.DeviceSessionService) *DeviceHandler {
	return &DeviceHandler{sessions: sessions}
}

// Start handles POST /device/start: the watch initiates the pairing flow.
func (h *DeviceHandler) Start(c *gin.Context) {
	resp, err := h.sessions.Start(c.Request.Context(), requestBaseURL(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": errors.CodeOf(err),
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Poll handles GET /device/poll?device_code=...: the watch polls for completion.
func (h *DeviceHandler) Poll(c *gin.Context) {
	deviceCode := c.Query("device_code")
	if deviceCode == "" {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": errors.CodeMissingDeviceCode})
		return
	}

	result, err := h.sessions.Poll(c.Request.Context(), deviceCode)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": errors.CodeOf(err)})
		return
	}
	c.JSON(http.StatusOK, result)
}

// AuthorizeRequest is the body of POST /device/authorize, sent by the pairing
// page once the login (and 2FA, if any) succeeded.
type AuthorizeRequest struct {
	UserCode string `json:"user_code"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// Authorize handles POST /device/authorize: binds a verified identity to a
// pairing code.
func (h *DeviceHandler) Authorize(c *gin.Context) {
	var req AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": errors.CodeMissingParams})
		return
	}

	userCode := strings.TrimSpace(req.UserCode)
	email := strings.TrimSpace(req.Email)
	if userCode == "" || email == "" {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": errors.CodeMissingParams})
		return
	}

	if err := h.sessions.Authorize(c.Request.Context(), userCode, email, req.Token); err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": errors.CodeOf(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// requestBaseURL reconstructs the externally visible base URL from the
// forwarding headers a reverse proxy sets, falling back to the request host.
// An empty result lets the session service fall back to its configured base.
func requestBaseURL(c *gin.Context) string {
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if c.Request.TLS != nil {
			proto = "https"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	if host == "" {
		return ""
	}
	return proto + "://" + host
}
