package server

import (
	"github.com/frontdesk/platform/internal/billingcycle"
	"github.com/gin-gonic/gin"
)

type internalHandler struct {
	scheduler *billingcycle.Scheduler
}

// resetCycle triggers a cycle run on demand, the same path the periodic
// scheduler takes. Safe to call repeatedly: resets are keyed by period.
func (h *internalHandler) resetCycle(c *gin.Context) {
	stats, err := h.scheduler.RunOnce(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(200, stats)
}
