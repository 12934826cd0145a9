package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/jetton-signer/internal/api"
)

// 521 keeps not-ready distinguishable from any status the signer itself returns.
const statusNotReady = 521

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return c.String(statusNotReady, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
