package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ctxUserID  = "user_id"
	ctxStoreID = "store_id"
	ctxRole    = "role"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
	v, ok := c.Get(ctxUserID).(uint64)
	return v, ok && v != 0
}

// StoreID returns the store the authenticated user belongs to.
func StoreID(c echo.Context) (uint64, bool) {
	v, ok := c.Get(ctxStoreID).(uint64)
	return v, ok && v != 0
}

// Role returns the authenticated user's role or "".
func Role(c echo.Context) string {
	v, _ := c.Get(ctxRole).(string)
	return v
}

// identity names the caller for rate-limit and cache keys.  Anonymous
// callers share "guest".
func identity(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
