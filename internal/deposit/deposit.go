// Package deposit holds the state machine of a reservation's deposit hold.
package deposit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/equipment-rental/internal/model"
)

var (
	// ErrInvalidTransition is returned for a move the state machine forbids.
	ErrInvalidTransition = errors.New("invalid deposit transition")
	// ErrInvalidCapture is returned when a capture request is malformed.
	ErrInvalidCapture = errors.New("invalid deposit capture")
)

var transitions = map[model.DepositStatus][]model.DepositStatus{
	model.DepositNone:       {model.DepositPending},
	model.DepositPending:    {model.DepositCardSaved, model.DepositFailed},
	model.DepositCardSaved:  {model.DepositAuthorized, model.DepositFailed},
	model.DepositAuthorized: {model.DepositCaptured, model.DepositReleased, model.DepositFailed},
	// a failed hold may be retried from scratch
	model.DepositFailed: {model.DepositPending},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to model.DepositStatus) bool {
	if from == "" {
		from = model.DepositNone
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns to.
func Transition(from, to model.DepositStatus) (model.DepositStatus, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// IsTerminal reports whether no further move exists for the hold.
func IsTerminal(s model.DepositStatus) bool {
	return s == model.DepositCaptured || s == model.DepositReleased
}

// CapturePlan splits a capture into the captured amount and the remainder
// that must be returned through a deposit_return payment.
type CapturePlan struct {
	Captured decimal.Decimal
	Returned decimal.Decimal
}

// PlanCapture validates a capture of amount against the held deposit.  A
// reason is mandatory and 0 < amount <= held.
func PlanCapture(held, amount decimal.Decimal, reason string) (CapturePlan, error) {
	if strings.TrimSpace(reason) == "" {
		return CapturePlan{}, fmt.Errorf("%w: reason is required", ErrInvalidCapture)
	}
	if !amount.IsPositive() {
		return CapturePlan{}, fmt.Errorf("%w: amount must be positive", ErrInvalidCapture)
	}
	if amount.GreaterThan(held) {
		return CapturePlan{}, fmt.Errorf("%w: amount exceeds held deposit", ErrInvalidCapture)
	}
	return CapturePlan{Captured: amount, Returned: held.Sub(amount)}, nil
}
