// Package middleware holds the echo middleware shared by the storefront and
// dashboard routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the user id, store id
// and role in the context.  Handlers read them through UserID, StoreID and
// Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			uid, _ := claims.UserID()
			c.Set(ctxUserID, uid)
			c.Set(ctxStoreID, claims.StoreID)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}
