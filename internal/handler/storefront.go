package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/logger"
	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/service"
)

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, storeSlug, startRaw, endRaw string, productIDs []uint64) (*service.AvailabilityResponse, error)
}

type Quoter interface {
	Quote(ctx context.Context, storeSlug string, req service.QuoteRequest) (*service.QuoteResponse, error)
}

type Booker interface {
	Checkout(ctx context.Context, storeSlug string, req service.CheckoutRequest) (*model.Reservation, error)
}

// StorefrontHandler serves the unauthenticated per-store routes.
type StorefrontHandler struct {
	Checker  AvailabilityChecker
	Quotes   Quoter
	Bookings Booker
	Log      *logger.Logger
}

// NewStorefrontHandler panics if a dependency is missing.
func NewStorefrontHandler(a AvailabilityChecker, q Quoter, b Booker, log *logger.Logger) *StorefrontHandler {
	if a == nil || q == nil || b == nil {
		panic("nil service passed to NewStorefrontHandler")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StorefrontHandler{Checker: a, Quotes: q, Bookings: b, Log: log}
}

// Availability handles GET /v1/stores/:slug/availability.
//
// Query: startDate, endDate (ISO datetime or YYYY-MM-DD, read in the store
// timezone when no offset is given) and an optional comma separated
// productIds filter.
func (h *StorefrontHandler) Availability(c echo.Context) error {
	ids, err := parseIDList(c.QueryParam("productIds"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid productIds"})
	}
	resp, err := h.Checker.CheckAvailability(c.Request().Context(),
		c.Param("slug"), c.QueryParam("startDate"), c.QueryParam("endDate"), ids)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Quote handles POST /v1/stores/:slug/quote.
func (h *StorefrontHandler) Quote(c echo.Context) error {
	var req service.QuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	resp, err := h.Quotes.Quote(c.Request().Context(), c.Param("slug"), req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newQuoteView(resp))
}

// Checkout handles POST /v1/stores/:slug/reservations and answers 201 with
// the pending reservation.
func (h *StorefrontHandler) Checkout(c echo.Context) error {
	var req service.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	res, err := h.Bookings.Checkout(c.Request().Context(), c.Param("slug"), req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, newReservationView(res))
}

func parseIDList(raw string) ([]uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil || id == 0 {
			return nil, strconv.ErrSyntax
		}
		ids = append(ids, id)
	}
	return ids, nil
}
