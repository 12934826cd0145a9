package httperrors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/jetton-signer/internal/util"
)

// HTTPErrorHandler renders every error returned by handlers or middleware as a JSON body.
func HTTPErrorHandler(hideInternalServerErrorDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		log := util.LogFromEchoContext(c)

		var httpErr *HTTPError
		var echoErr *echo.HTTPError

		switch {
		case errors.As(err, &httpErr):
		case errors.As(err, &echoErr):
			msg := http.StatusText(echoErr.Code)
			if m, ok := echoErr.Message.(string); ok {
				msg = m
			}
			httpErr = NewAuthError(echoErr.Code, msg).Wrap(err)
		default:
			httpErr = FromFailure(err)
		}

		if httpErr.Code >= http.StatusInternalServerError {
			log.Error().Err(err).Int("status", httpErr.Code).Msg("Request failed")

			if hideInternalServerErrorDetails {
				hidden := *httpErr
				hidden.Body.Error = http.StatusText(httpErr.Code)
				httpErr = &hidden
			}
		} else {
			log.Debug().Err(err).Int("status", httpErr.Code).Msg("Request rejected")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(httpErr.Code)
		} else {
			err = c.JSON(httpErr.Code, httpErr.Body)
		}

		if err != nil {
			log.Error().Err(err).Msg("Failed to send error response")
		}
	}
}
