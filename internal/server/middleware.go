package server

import (
	"crypto/subtle"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/frontdesk/platform/internal/token"
	"github.com/frontdesk/platform/pkg/tenantctx"
	"github.com/gin-gonic/gin"
)

// AuthRequired verifies the bearer token and pins the caller's tenant,
// role and subject on the request context. Every tenant-facing route runs
// behind it; cross-tenant access is decided downstream by the registry,
// never by skipping this check.
func AuthRequired(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			abortWithError(c, err)
			return
		}

		tenantID, err := snowflake.ParseString(claims.TenantID)
		if err != nil {
			abortWithError(c, token.ErrTokenInvalid)
			return
		}

		ctx := tenantctx.WithTenantID(c.Request.Context(), int64(tenantID))
		ctx = tenantctx.WithRole(ctx, claims.Role)
		ctx = tenantctx.WithSubject(ctx, claims.Subject)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OwnerRequired gates administrative routes on the role claim.
func OwnerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tenantctx.RoleFromContext(c.Request.Context()) != token.RoleOwner {
			abortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// SharedSecretRequired gates internal routes on a constant-time compare
// of the scheduler secret. An unset secret fails closed.
func SharedSecretRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := strings.TrimSpace(c.GetHeader("X-Scheduler-Secret"))
		if secret == "" || presented == "" ||
			subtle.ConstantTimeCompare([]byte(secret), []byte(presented)) != 1 {
			abortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
