package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "lecture-rag-api"
	serviceVersion = "1.0.0"
)

// HealthCheck probes one dependency. Check returns nil when the
// component is usable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	checks []HealthCheck
}

func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   serviceVersion,
		"service":   serviceName,
	})
}

func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := gin.H{"api": "healthy"}
	degraded := false
	for _, chk := range h.checks {
		if err := chk.Check(ctx); err != nil {
			components[chk.Name] = "unavailable: " + err.Error()
			degraded = true
			continue
		}
		components[chk.Name] = "ready"
	}

	status := "healthy"
	if degraded {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"version":    serviceVersion,
		"components": components,
	})
}
