package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ringbridge/internal/application/service"
	"ringbridge/pkg/errors"
)

// RingHandler exposes the downstream intercom unlock operation.
type RingHandler struct {
	intercoms service.IntercomService
}

// NewRingHandler creates a new RingHandler.
func NewRingHandler(intercoms service.IntercomService) *RingHandler {
	return &RingHandler{intercoms: intercoms}
}

// OpenDoorRequest is the body of POST /ring/open-door.
type OpenDoorRequest struct {
	Email string `json:"email"`
}

// OpenDoor handles POST /ring/open-door: unlocks the first intercom device on
// the account using the cached refresh credential.
func (h *RingHandler) OpenDoor(c *gin.Context) {
	var req OpenDoorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": errors.CodeMissingParams})
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": errors.CodeMissingParams})
		return
	}

	if err := h.intercoms.OpenDoor(c.Request.Context(), email); err != nil {
		status := http.StatusInternalServerError
		if appErr, ok := errors.AsAppError(err); ok {
			status = appErr.HTTPStatus()
		}
		c.JSON(status, gin.H{"success": false, "message": errors.CodeOf(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "door unlocked"})
}
