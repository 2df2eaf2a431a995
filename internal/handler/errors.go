package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/logger"
	"github.com/iliyamo/equipment-rental/internal/service"
)

// writeError maps service errors to status codes.  Anything unrecognised is
// logged and reported as a 500 without detail.
func writeError(c echo.Context, log *logger.Logger, err error) error {
	var short *service.ShortageError
	switch {
	case errors.As(err, &short):
		body := echo.Map{
			"error":     "insufficient_stock",
			"message":   short.Error(),
			"productId": short.ProductID,
			"requested": short.Requested,
			"available": short.Available,
		}
		if short.CombinationKey != "" {
			body["combinationKey"] = short.CombinationKey
		}
		return c.JSON(http.StatusConflict, body)
	case errors.Is(err, service.ErrStoreNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidPeriod),
		errors.Is(err, service.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrOutsideHours),
		errors.Is(err, service.ErrAdvanceNotice):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	log.Error("request failed",
		logger.String("route", c.Path()),
		logger.ErrorF(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}
