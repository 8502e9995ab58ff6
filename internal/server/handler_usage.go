package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/clock"
	usagedomain "github.com/frontdesk/platform/internal/usage/domain"
	"github.com/frontdesk/platform/pkg/period"
	"github.com/frontdesk/platform/pkg/tenantctx"
	"github.com/gin-gonic/gin"
)

type usageHandler struct {
	usage usagedomain.Service
	clock clock.Clock
}

type recordUsageRequest struct {
	// TenantID is honored for owner callers only, everyone else meters
	// their own tenant.
	TenantID        string                     `json:"tenant_id"`
	EventID         string                     `json:"event_id"`
	Classification  usagedomain.Classification `json:"classification"`
	DurationSeconds int64                      `json:"duration_seconds"`
}

func (h *usageHandler) targetTenant(c *gin.Context, override string) (snowflake.ID, bool) {
	if override != "" {
		id, err := snowflake.ParseString(override)
		if err != nil {
			abortWithError(c, ErrBadRequest)
			return 0, false
		}
		return id, true
	}
	id, ok := tenantctx.TenantIDFromContext(c.Request.Context())
	if !ok {
		abortWithError(c, ErrUnauthorized)
		return 0, false
	}
	return id, true
}

func (h *usageHandler) record(c *gin.Context) {
	var req recordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, ErrBadRequest)
		return
	}

	tenantID, ok := h.targetTenant(c, req.TenantID)
	if !ok {
		return
	}

	result, err := h.usage.Record(c.Request.Context(), usagedomain.RecordRequest{
		TenantID:        tenantID,
		EventID:         req.EventID,
		Classification:  req.Classification,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	status := 201
	if result.Duplicate {
		status = 200
	}
	c.JSON(status, result)
}

func (h *usageHandler) summary(c *gin.Context) {
	tenantID, ok := h.targetTenant(c, c.Query("tenant_id"))
	if !ok {
		return
	}

	summary, err := h.usage.Summary(c.Request.Context(), tenantID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(200, summary)
}

func (h *usageHandler) listEvents(c *gin.Context) {
	tenantID, ok := h.targetTenant(c, c.Query("tenant_id"))
	if !ok {
		return
	}

	periodID := c.Query("period")
	if periodID == "" {
		periodID = period.FromTime(h.clock.Now())
	}

	events, err := h.usage.ListPeriod(c.Request.Context(), tenantID, periodID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(200, gin.H{"period_id": periodID, "events": events})
}
