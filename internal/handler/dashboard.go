package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/equipment-rental/internal/logger"
	"github.com/iliyamo/equipment-rental/internal/middleware"
	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/repository"
	"github.com/iliyamo/equipment-rental/internal/service"
)

type ReservationManager interface {
	List(ctx context.Context, storeID uint64, q service.ListQuery) (repository.ReservationPage, service.ListQuery, error)
	Get(ctx context.Context, storeID, id uint64) (*service.ReservationDetail, error)
	ChangeStatus(ctx context.Context, storeID, id, actor uint64, to model.ReservationStatus) (*service.ReservationDetail, error)
}

type PaymentManager interface {
	RecordPayment(ctx context.Context, storeID, reservationID, actor uint64, in service.PaymentInput) (*service.ReservationDetail, error)
	ApplyDeposit(ctx context.Context, storeID, reservationID, actor uint64, action service.DepositAction, in service.DepositInput) (*service.ReservationDetail, error)
}

// DashboardHandler serves the store staff routes.  Every handler reads the
// store from the access token, so a user only ever sees their own store.
type DashboardHandler struct {
	Reservations ReservationManager
	Payments     PaymentManager
	Log          *logger.Logger
}

// NewDashboardHandler panics if a dependency is missing.
func NewDashboardHandler(r ReservationManager, p PaymentManager, log *logger.Logger) *DashboardHandler {
	if r == nil || p == nil {
		panic("nil service passed to NewDashboardHandler")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DashboardHandler{Reservations: r, Payments: p, Log: log}
}

type statusReq struct {
	Status string `json:"status"`
}

type paymentReq struct {
	Type   string          `json:"type"`
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
	PaidAt *time.Time      `json:"paidAt"`
}

type depositReq struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
	Method string          `json:"method"`
}

// caller returns the store and user ids set by JWTAuth.
func caller(c echo.Context) (storeID, userID uint64, ok bool) {
	storeID, ok1 := middleware.StoreID(c)
	userID, ok2 := middleware.UserID(c)
	return storeID, userID, ok1 && ok2
}

// ListReservations handles GET /v1/dashboard/reservations.
func (h *DashboardHandler) ListReservations(c echo.Context) error {
	storeID, _, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("pageSize"))
	result, q, err := h.Reservations.List(c.Request().Context(), storeID, service.ListQuery{
		Status:   c.QueryParam("status"),
		Period:   c.QueryParam("period"),
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Sort:     c.QueryParam("sort"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}

	rows := make([]reservationView, 0, len(result.Rows))
	for i := range result.Rows {
		rows = append(rows, newReservationView(&result.Rows[i]))
	}
	counts := make(map[string]int64, len(model.ReservationStatuses))
	for _, s := range model.ReservationStatuses {
		counts[string(s)] = result.Counts[s]
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":     rows,
		"total":    result.Total,
		"counts":   counts,
		"page":     q.Page,
		"pageSize": q.PageSize,
		"status":   q.Status,
		"period":   q.Period,
		"sort":     q.Sort,
	})
}

// GetReservation handles GET /v1/dashboard/reservations/:id.
func (h *DashboardHandler) GetReservation(c echo.Context) error {
	storeID, _, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	d, err := h.Reservations.Get(c.Request().Context(), storeID, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newDetailView(d))
}

// UpdateStatus handles PATCH /v1/dashboard/reservations/:id/status.
func (h *DashboardHandler) UpdateStatus(c echo.Context) error {
	storeID, userID, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status required"})
	}
	to := model.ReservationStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	d, err := h.Reservations.ChangeStatus(c.Request().Context(), storeID, id, userID, to)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newDetailView(d))
}

// RecordPayment handles POST /v1/dashboard/reservations/:id/payments.
func (h *DashboardHandler) RecordPayment(c echo.Context) error {
	storeID, userID, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	d, err := h.Payments.RecordPayment(c.Request().Context(), storeID, id, userID, service.PaymentInput{
		Type:   model.PaymentType(strings.ToLower(strings.TrimSpace(req.Type))),
		Method: model.PaymentMethod(strings.ToLower(strings.TrimSpace(req.Method))),
		Amount: req.Amount,
		Notes:  req.Notes,
		PaidAt: req.PaidAt,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, newDetailView(d))
}

// DepositAction handles POST /v1/dashboard/reservations/:id/deposit/:action
// where action is hold, card-saved, authorize, capture, release or fail.
// Only capture reads amount and reason from the body.
func (h *DashboardHandler) DepositAction(c echo.Context) error {
	storeID, userID, ok := caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	action, ok := service.ParseDepositAction(c.Param("action"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown deposit action"})
	}
	var req depositReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	d, err := h.Payments.ApplyDeposit(c.Request().Context(), storeID, id, userID, action, service.DepositInput{
		Amount: req.Amount,
		Reason: req.Reason,
		Method: model.PaymentMethod(strings.ToLower(strings.TrimSpace(req.Method))),
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newDetailView(d))
}
