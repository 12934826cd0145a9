package signer

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/jetton-signer/internal/api"
	"github/chapool/jetton-signer/internal/api/httperrors"
	"github/chapool/jetton-signer/internal/api/middleware"
	"github/chapool/jetton-signer/internal/types"
	"github/chapool/jetton-signer/internal/util"
	"github/chapool/jetton-signer/internal/wallet"
)

func PostSendTokensRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/send_tokens", postSendTokensHandler(s), middleware.RateLimit(s.Limiter, s.Metrics))
}

func postSendTokensHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostSendTokensPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return httperrors.ErrBadRequestBody.Wrap(err)
		}

		result, err := s.Signer.SendTokens(ctx, wallet.TransferRequest{
			Recipient: body.Recipient,
			Amount:    body.Amount,
		})
		if err != nil {
			return err
		}

		log.Info().
			Str("tx_hash", result.TxHash).
			Uint32("seqno", result.Sequence).
			Str("recipient", result.Recipient.String()).
			Str("amount", result.Amount.String()).
			Msg("Jetton transfer submitted")

		return util.ValidateAndReturn(c, http.StatusOK, result.ToPostSendTokensResponse())
	}
}
