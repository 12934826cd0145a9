package common

import (
	"net/http"

	"github.com/go-openapi/strfmt"
	"github.com/labstack/echo/v4"
	"github/chapool/jetton-signer/internal/api"
	"github/chapool/jetton-signer/internal/types"
	"github/chapool/jetton-signer/internal/util"
)

const serviceName = "ton-signing-service"

func GetHealthRoute(s *api.Server) *echo.Route {
	return s.Router.Root.GET("/health", getHealthHandler(s))
}

// Static status, touches neither the ledger nor the key material.
func getHealthHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		response := &types.GetHealthResponse{
			Status:    "ok",
			Service:   serviceName,
			Mode:      s.Config.Signer.Mode,
			Timestamp: strfmt.DateTime(s.Clock.Now().UTC()),
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
