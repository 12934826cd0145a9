package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/jetton-signer/internal/api/httperrors"
	"github/chapool/jetton-signer/internal/auth"
	"github/chapool/jetton-signer/internal/util"
)

// AuthRejectionObserver counts rejected credentials by reason.
type AuthRejectionObserver interface {
	ObserveAuthRejected(reason string)
}

// APIKey rejects requests whose x-api-key header does not match the guard's secret.
// Nothing behind it runs for rejected requests.
func APIKey(guard *auth.Guard, observer AuthRejectionObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			values, present := c.Request().Header[http.CanonicalHeaderKey(auth.HeaderAPIKey)]

			var presented string
			if present && len(values) > 0 {
				presented = values[0]
			}

			result := guard.Verify(presented, present)
			if result == auth.Authorized {
				return next(c)
			}

			util.LogFromEchoContext(c).Debug().Str("reason", result.String()).Msg("Rejected API key")
			if observer != nil {
				observer.ObserveAuthRejected(result.String())
			}

			if result == auth.Missing {
				return httperrors.ErrAPIKeyRequired
			}
			return httperrors.ErrInvalidAPIKey
		}
	}
}
