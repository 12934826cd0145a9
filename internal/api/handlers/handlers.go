package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/jetton-signer/internal/api"
	"github/chapool/jetton-signer/internal/api/handlers/common"
	"github/chapool/jetton-signer/internal/api/handlers/signer"
)

func AttachAllRoutes(s *api.Server) {
	// attach our routes
	s.Router.Routes = append(s.Router.Routes, []*echo.Route{
		common.GetHealthRoute(s),
		common.GetReadyRoute(s),
		signer.GetBalanceRoute(s),
		signer.GetJettonBalanceRoute(s),
		signer.PostSendTokensRoute(s),
	}...)
}
