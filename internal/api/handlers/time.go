package handlers

import (
	"encoding/json"
	"net/http"
	"servertime/internal/clock"
	"servertime/internal/models"

	"github.com/gin-gonic/gin"
)

// jsonContentType is sent without a charset parameter
const jsonContentType = "application/json"

// TimeHandler serves the current server time
type TimeHandler struct {
	clock clock.Clock
}

// NewTimeHandler creates a new TimeHandler reading from clk
func NewTimeHandler(clk clock.Clock) *TimeHandler {
	return &TimeHandler{clock: clk}
}

// Time godoc
// @Summary Current server time
// @Description Returns the server's local date-time, without offset, at millisecond precision
// @Tags time
// @Produce json
// @Success 200 {object} models.TimeResponse
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Router /time [get]
func (h *TimeHandler) Time(c *gin.Context) {
	body, err := json.Marshal(models.NewTimeResponse(h.clock.Now()))
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, jsonContentType, body)
}
