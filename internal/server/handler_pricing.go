package server

import (
	"github.com/frontdesk/platform/internal/pricing"
	tenantdomain "github.com/frontdesk/platform/internal/tenant/domain"
	"github.com/frontdesk/platform/internal/tier"
	"github.com/gin-gonic/gin"
)

type pricingHandler struct {
	engine  *pricing.Engine
	catalog *tier.Catalog
	tenants tenantdomain.Service
}

type pricedTier struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"display_name"`
	BasePrice        int64    `json:"base_price"`
	LocalPrice       int64    `json:"local_price"`
	AllowanceMinutes int64    `json:"allowance_minutes"`
	OverageRate      string   `json:"overage_rate_per_minute"`
	Features         []string `json:"features"`
}

// region resolves the pricing region: an explicit query beats the
// caller's stored tenant region.
func (h *pricingHandler) region(c *gin.Context) string {
	if region := c.Query("region"); region != "" {
		return region
	}
	tenant, err := h.tenants.Get(c.Request.Context())
	if err != nil {
		return ""
	}
	return tenant.Region
}

func (h *pricingHandler) listTiers(c *gin.Context) {
	region := h.region(c)

	priced := make([]pricedTier, 0)
	for _, definition := range h.catalog.List() {
		local, err := h.engine.LocalPrice(definition.Name, region)
		if err != nil {
			abortWithError(c, err)
			return
		}
		priced = append(priced, pricedTier{
			Name:             definition.Name,
			DisplayName:      definition.DisplayName,
			BasePrice:        definition.BasePrice,
			LocalPrice:       local,
			AllowanceMinutes: definition.AllowanceMinutes,
			OverageRate:      definition.OverageRatePerMinute.String(),
			Features:         definition.Features,
		})
	}
	c.JSON(200, gin.H{"region": region, "tiers": priced})
}

func (h *pricingHandler) getTier(c *gin.Context) {
	region := h.region(c)
	name := c.Param("name")

	definition, err := h.catalog.Lookup(name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	local, err := h.engine.LocalPrice(definition.Name, region)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(200, pricedTier{
		Name:             definition.Name,
		DisplayName:      definition.DisplayName,
		BasePrice:        definition.BasePrice,
		LocalPrice:       local,
		AllowanceMinutes: definition.AllowanceMinutes,
		OverageRate:      definition.OverageRatePerMinute.String(),
		Features:         definition.Features,
	})
}
