package signer

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/jetton-signer/internal/api"
	"github/chapool/jetton-signer/internal/util"
)

// GetJettonBalanceRoute reports the jetton balance held by the wallet's sub-account.
func GetJettonBalanceRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/jetton_balance", getJettonBalanceHandler(s))
}

func getJettonBalanceHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		result, err := s.Signer.JettonBalance(ctx)
		if err != nil {
			return err
		}

		return util.ValidateAndReturn(c, http.StatusOK, result.ToGetBalanceResponse())
	}
}
