package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ringbridge/internal/infrastructure/persistence/mongo"
)

// HealthHandler reports process liveness and dependency readiness.
type HealthHandler struct {
	db *mongo.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *mongo.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /health/ready: verifies the token store is reachable.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	status := http.StatusOK
	overall := "ok"

	if err := h.db.Ping(ctx); err != nil {
		checks["mongodb"] = gin.H{"status": "down", "error": err.Error()}
		status = http.StatusServiceUnavailable
		overall = "degraded"
	} else {
		checks["mongodb"] = gin.H{"status": "up"}
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
