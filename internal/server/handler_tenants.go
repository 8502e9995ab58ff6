package server

import (
	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/frontdesk/platform/internal/tenant/domain"
	"github.com/gin-gonic/gin"
)

type tenantHandler struct {
	tenants tenantdomain.Service
}

func parseID(c *gin.Context, param string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param(param))
	if err != nil {
		abortWithError(c, ErrBadRequest)
		return 0, false
	}
	return id, true
}

func (h *tenantHandler) create(c *gin.Context) {
	var req tenantdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, ErrBadRequest)
		return
	}

	tenant, err := h.tenants.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(201, tenant)
}

// get resolves "me" to the caller's own tenant; any other id goes through
// the registry's isolation check.
func (h *tenantHandler) get(c *gin.Context) {
	if c.Param("id") == "me" {
		tenant, err := h.tenants.Get(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(200, tenant)
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tenant, err := h.tenants.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(200, tenant)
}

func (h *tenantHandler) list(c *gin.Context) {
	tenants, err := h.tenants.ListAll(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(200, gin.H{"tenants": tenants})
}

type updateStatusRequest struct {
	Status tenantdomain.SubscriptionStatus `json:"status"`
}

func (h *tenantHandler) updateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, ErrBadRequest)
		return
	}

	if err := h.tenants.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(204)
}

type updateTierRequest struct {
	Tier string `json:"tier"`
}

func (h *tenantHandler) updateTier(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, ErrBadRequest)
		return
	}

	if err := h.tenants.UpdateTier(c.Request.Context(), id, req.Tier); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(204)
}
