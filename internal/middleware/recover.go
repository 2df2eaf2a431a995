package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/logger"
)

// Recover turns a handler panic into a logged 500.  http.ErrAbortHandler is
// re-raised so net/http can abort the connection.
func Recover(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				log.Error("panic recovered",
					logger.String("route", c.Path()),
					logger.Any("panic", r),
					logger.Stack("stack"))
				err = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}()
			return next(c)
		}
	}
}
