package server

import (
	"github.com/bwmarrin/snowflake"
	overagedomain "github.com/frontdesk/platform/internal/overage/domain"
	successfeedomain "github.com/frontdesk/platform/internal/successfee/domain"
	"github.com/frontdesk/platform/pkg/tenantctx"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type billingHandler struct {
	overage overagedomain.Service
	fees    successfeedomain.Service
}

func (h *billingHandler) contextTenant(c *gin.Context, override string) (snowflake.ID, bool) {
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

func (h *billingHandler) listOverageReports(c *gin.Context) {
	tenantID, ok := h.contextTenant(c, c.Query("tenant_id"))
	if !ok {
		return
	}

	reports, err := h.overage.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(200, gin.H{"reports": reports})
}

type computeFeeRequest struct {
	TenantID          string          `json:"tenant_id"`
	PeriodID          string          `json:"period_id"`
	Bookings          int64           `json:"bookings"`
	AttributedRevenue decimal.Decimal `json:"attributed_revenue"`
}

func (h *billingHandler) computeFee(c *gin.Context) {
	var req computeFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, ErrBadRequest)
		return
	}

	tenantID, ok := h.contextTenant(c, req.TenantID)
	if !ok {
		return
	}

	fee, err := h.fees.ComputeFee(c.Request.Context(), successfeedomain.ComputeRequest{
		TenantID:          tenantID,
		PeriodID:          req.PeriodID,
		Bookings:          req.Bookings,
		AttributedRevenue: req.AttributedRevenue,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(201, fee)
}

func (h *billingHandler) markInvoiced(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	fee, err := h.fees.MarkInvoiced(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(200, fee)
}

func (h *billingHandler) listFees(c *gin.Context) {
	tenantID, ok := h.contextTenant(c, c.Query("tenant_id"))
	if !ok {
		return
	}

	fees, err := h.fees.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(200, gin.H{"fees": fees})
}
