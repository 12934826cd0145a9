package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/jetton-signer/internal/api/httperrors"
	"github/chapool/jetton-signer/internal/util"
	"github/chapool/jetton-signer/internal/wallet/ratelimit"
)

// RateLimitObserver counts rejected requests.
type RateLimitObserver interface {
	ObserveRateLimited()
}

// RateLimit admits at most the limiter's budget of requests per caller IP.
// The caller IP comes from the echo instance's IPExtractor.
func RateLimit(limiter ratelimit.Limiter, observer RateLimitObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			callerID := c.RealIP()

			admitted, err := limiter.Admit(ctx, callerID)
			if err != nil {
				return httperrors.NewHTTPError(http.StatusInternalServerError, "Rate limiter unavailable").Wrap(err)
			}

			if !admitted {
				util.LogFromContext(ctx).Info().Str("caller", callerID).Msg("Rate limit exceeded")
				if observer != nil {
					observer.ObserveRateLimited()
				}
				return httperrors.ErrRateLimitExceeded
			}

			return next(c)
		}
	}
}
