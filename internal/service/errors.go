package service

import (
	"errors"
	"fmt"
)

// Client-error and not-found classes.  Handlers map them to HTTP codes with
// errors.Is; details are attached by wrapping.
var (
	ErrInvalidPeriod       = errors.New("invalid period")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrStoreNotFound       = errors.New("store not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidPayment      = errors.New("invalid payment")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOutsideHours        = errors.New("outside business hours")
	ErrAdvanceNotice       = errors.New("advance notice not met")
)

// ShortageError reports one checkout line that cannot be served.  It
// matches ErrInsufficientStock under errors.Is.
type ShortageError struct {
	ProductID      uint64
	CombinationKey string
	Requested      int
	Available      int
}

func (e *ShortageError) Error() string {
	if e.CombinationKey != "" {
		return fmt.Sprintf("insufficient stock for product %d (%s): requested %d, available %d",
			e.ProductID, e.CombinationKey, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *ShortageError) Unwrap() error { return ErrInsufficientStock }
