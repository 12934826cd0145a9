package signer

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/jetton-signer/internal/api"
	"github/chapool/jetton-signer/internal/util"
)

func GetBalanceRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/balance", getBalanceHandler(s))
}

func getBalanceHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		result, err := s.Signer.Balance(ctx)
		if err != nil {
			return err
		}

		return util.ValidateAndReturn(c, http.StatusOK, result.ToGetBalanceResponse())
	}
}
