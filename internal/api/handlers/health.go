package handlers

import (
	"net/http"
	"servertime/internal/clock"
	"servertime/internal/models"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	clock clock.Clock
}

func NewHealthHandler(clk clock.Clock) *HealthHandler {
	return &HealthHandler{clock: clk}
}

// Health godoc
// @Summary Health check
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status: "healthy",
		Time:   h.clock.Now().UTC(),
	})
}
