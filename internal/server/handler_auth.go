package server

import (
	"github.com/frontdesk/platform/internal/token"
	"github.com/gin-gonic/gin"
)

type authHandler struct {
	tokens *token.Service
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *authHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		abortWithError(c, ErrBadRequest)
		return
	}

	pair, err := h.tokens.Refresh(req.RefreshToken)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(200, pair)
}

type mintRequest struct {
	Subject  string `json:"subject"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	Tier     string `json:"tier"`
}

// mint issues a token pair for provisioning and ops tooling. The route is
// gated by the shared internal secret, not end-user auth.
func (h *authHandler) mint(c *gin.Context) {
	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Subject == "" || req.TenantID == "" {
		abortWithError(c, ErrBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = token.RoleMember
	}

	pair, err := h.tokens.IssuePair(token.IssueInput{
		Subject:  req.Subject,
		TenantID: req.TenantID,
		Role:     req.Role,
		Tier:     req.Tier,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(201, pair)
}
