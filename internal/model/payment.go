package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType classifies a payment record.
type PaymentType string

const (
	PaymentRental         PaymentType = "rental"
	PaymentDeposit        PaymentType = "deposit"
	PaymentDepositReturn  PaymentType = "deposit_return"
	PaymentDamage         PaymentType = "damage"
	PaymentDepositHold    PaymentType = "deposit_hold"
	PaymentDepositCapture PaymentType = "deposit_capture"
	PaymentAdjustment     PaymentType = "adjustment"
)

// PaymentStatus is the settlement state of a payment record.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
	MethodTransfer PaymentMethod = "transfer"
	MethodCheck    PaymentMethod = "check"
	MethodStripe   PaymentMethod = "stripe"
	MethodOther    PaymentMethod = "other"
)

// ValidPaymentType reports whether t is a known payment type.
func ValidPaymentType(t PaymentType) bool {
	switch t {
	case PaymentRental, PaymentDeposit, PaymentDepositReturn, PaymentDamage,
		PaymentDepositHold, PaymentDepositCapture, PaymentAdjustment:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer, MethodCheck, MethodStripe, MethodOther:
		return true
	}
	return false
}

// Payment is one ledger entry attached to a reservation.  Amount is
// signed only for adjustments.
type Payment struct {
	ID            uint64          // payments.id
	ReservationID uint64          // payments.reservation_id
	Type          PaymentType     // payments.type
	Method        PaymentMethod   // payments.method
	Status        PaymentStatus   // payments.status
	Amount        decimal.Decimal // payments.amount
	Notes         *string         // payments.notes (nullable)
	PaidAt        *time.Time      // payments.paid_at (nullable)
	CreatedAt     time.Time       // payments.created_at
}

// DepositStatus is the state of a reservation's deposit hold.
type DepositStatus string

const (
	DepositNone       DepositStatus = "none"
	DepositPending    DepositStatus = "pending"
	DepositCardSaved  DepositStatus = "card_saved"
	DepositAuthorized DepositStatus = "authorized"
	DepositCaptured   DepositStatus = "captured"
	DepositReleased   DepositStatus = "released"
	DepositFailed     DepositStatus = "failed"
)
