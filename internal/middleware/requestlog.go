package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/logger"
)

// RequestLogger logs one line per request.  5xx responses log at error
// level, 4xx at warn.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler write the response before we read the status
				c.Error(err)
			}
			req := c.Request()
			status := c.Response().Status
			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("route", c.Path()),
				logger.String("uri", req.RequestURI),
				logger.Int("status", status),
				logger.Duration("latency", time.Since(start)),
				logger.String("ip", c.RealIP()),
				logger.String("user", identity(c)),
			}
			if cache := c.Response().Header().Get("X-Cache"); cache != "" {
				fields = append(fields, logger.String("cache", cache))
			}
			switch {
			case status >= 500:
				if err != nil {
					fields = append(fields, logger.ErrorF(err))
				}
				log.Error("request", fields...)
			case status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}
