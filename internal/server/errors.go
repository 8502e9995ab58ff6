package server

import (
	"errors"
	"net/http"

	overagedomain "github.com/frontdesk/platform/internal/overage/domain"
	successfeedomain "github.com/frontdesk/platform/internal/successfee/domain"
	tenantdomain "github.com/frontdesk/platform/internal/tenant/domain"
	"github.com/frontdesk/platform/internal/tier"
	"github.com/frontdesk/platform/internal/token"
	usagedomain "github.com/frontdesk/platform/internal/usage/domain"
	"github.com/gin-gonic/gin"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad_request")
)

// mapError translates domain errors into HTTP status codes. Anything not
// listed is a 500 so internals never leak into responses.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, token.ErrSessionExpired),
		errors.Is(err, token.ErrTokenInvalid),
		errors.Is(err, token.ErrWrongPurpose),
		errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()

	case errors.Is(err, tenantdomain.ErrTenantMismatch),
		errors.Is(err, ErrForbidden):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, tenantdomain.ErrTenantNotFound),
		errors.Is(err, successfeedomain.ErrFeeNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, ErrBadRequest),
		errors.Is(err, tenantdomain.ErrInvalidTenant),
		errors.Is(err, tenantdomain.ErrInvalidDelta):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, tier.ErrUnknownTier),
		errors.Is(err, tenantdomain.ErrInvalidStatus),
		errors.Is(err, usagedomain.ErrInvalidUsage),
		errors.Is(err, usagedomain.ErrTenantInactive),
		errors.Is(err, usagedomain.ErrFeatureNotAvailable),
		errors.Is(err, overagedomain.ErrInvalidReport),
		errors.Is(err, successfeedomain.ErrInvalidFee),
		errors.Is(err, successfeedomain.ErrFeeNotApplicable),
		errors.Is(err, successfeedomain.ErrAlreadyInvoiced):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, overagedomain.ErrExternalService):
		return http.StatusBadGateway, err.Error()

	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// ErrorMiddleware renders the last error attached by a handler.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		lastErr := c.Errors.Last()
		if lastErr == nil || c.Writer.Written() {
			return
		}
		status, code := mapError(lastErr.Err)
		c.JSON(status, gin.H{"error": code})
	}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
