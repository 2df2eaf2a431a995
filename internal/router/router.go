// Package router registers every HTTP route on the echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/handler"
	"github.com/iliyamo/equipment-rental/internal/middleware"
	"github.com/iliyamo/equipment-rental/internal/model"
)

// RegisterRoutes registers the probes.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers login, token rotation and logout under /v1/auth
// plus the protected /v1/me.  Logout takes either a refresh token or a
// bearer, so it stays outside the JWT group.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleOwner, model.RoleStaff))
	auth.GET("/me", a.Me)
}

// RegisterStorefront registers the public per-store routes.  limiter wraps
// the whole group; cache only fronts the availability GET and invalidate
// clears it after a checkout.
func RegisterStorefront(e *echo.Echo, s *handler.StorefrontHandler, limiter, cache, invalidate echo.MiddlewareFunc) {
	g := e.Group("/v1/stores/:slug", limiter)
	g.GET("/availability", s.Availability, cache)
	g.POST("/quote", s.Quote)
	g.POST("/reservations", s.Checkout, invalidate)
}
