package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"signaldesk/pkg/logger"
)

// RequestLogger writes one access log line per request through log.
// /health and /metrics are skipped.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" || path == "/metrics"
		},
		LogRequestID: true,
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				log.Warn("request failed",
					logger.Field("request_id", v.RequestID),
					logger.Field("method", v.Method),
					logger.Field("path", v.URIPath),
					logger.Field("status", v.Status),
					logger.Field("latency", v.Latency.String()),
					logger.Field("remote_ip", v.RemoteIP),
					logger.ErrorField(v.Error),
				)
				return nil
			}

			log.Info("request",
				logger.Field("request_id", v.RequestID),
				logger.Field("method", v.Method),
				logger.Field("path", v.URIPath),
				logger.Field("status", v.Status),
				logger.Field("latency", v.Latency.String()),
				logger.Field("remote_ip", v.RemoteIP),
			)
			return nil
		},
	})
}
