package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type LoggerConfig struct {
	Skipper           middleware.Skipper
	Level             zerolog.Level
	LogRequestHeader  bool
	LogResponseHeader bool
	LogCaller         bool
}

var DefaultLoggerConfig = LoggerConfig{
	Skipper: middleware.DefaultSkipper,
	Level:   zerolog.DebugLevel,
}

func Logger() echo.MiddlewareFunc {
	return LoggerWithConfig(DefaultLoggerConfig)
}

// LoggerWithConfig attaches a request scoped logger (carrying the request id) to the request context
// and logs one line per request once the response has been written.
// Header values are logged by name only for x-api-key.
func LoggerWithConfig(config LoggerConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultLoggerConfig.Skipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			req := c.Request()
			res := c.Response()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			lctx := log.With().Str("id", id)
			if config.LogCaller {
				lctx = lctx.Caller()
			}
			logger := lctx.Logger()

			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			event := logger.WithLevel(config.Level).
				Str("method", req.Method).
				Str("url", req.RequestURI).
				Str("ip", c.RealIP()).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("duration", time.Since(start))

			if config.LogRequestHeader {
				event = event.Dict("req_header", headerDict(req.Header))
			}
			if config.LogResponseHeader {
				event = event.Dict("res_header", headerDict(res.Header()))
			}

			event.Msg("http_request")

			return nil
		}
	}
}

func headerDict(h map[string][]string) *zerolog.Event {
	dict := zerolog.Dict()
	for k, v := range h {
		if k == "X-Api-Key" {
			dict = dict.Str(k, "*****")
			continue
		}
		dict = dict.Strs(k, v)
	}
	return dict
}
