package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck godoc
// @Summary Health check
// @Description Reports service and store health
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *Handler) HealthCheck(c *gin.Context) {
	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  map[string]string{"store": "healthy"},
	}

	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			health.Status = "unhealthy"
			health.Services["store"] = "unhealthy: " + err.Error()
		}
	}

	if health.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	c.JSON(http.StatusOK, health)
}
