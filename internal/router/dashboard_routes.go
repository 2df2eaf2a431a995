package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/handler"
	"github.com/iliyamo/equipment-rental/internal/middleware"
	"github.com/iliyamo/equipment-rental/internal/model"
)

// RegisterDashboard registers the store staff routes under /v1/dashboard.
// All routes require a valid JWT; creating accounts is owner only.
func RegisterDashboard(e *echo.Echo, d *handler.DashboardHandler, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group(
		"/v1/dashboard",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner, model.RoleStaff),
	)
	g.GET("/reservations", d.ListReservations)
	g.GET("/reservations/:id", d.GetReservation)
	g.PATCH("/reservations/:id/status", d.UpdateStatus)
	g.POST("/reservations/:id/payments", d.RecordPayment)
	g.POST("/reservations/:id/deposit/:action", d.DepositAction)

	g.POST("/users", a.CreateUser, middleware.RequireRole(model.RoleOwner))
}
