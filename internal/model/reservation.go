package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusOngoing   ReservationStatus = "ongoing"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusRejected  ReservationStatus = "rejected"
)

// ReservationStatuses lists every status in display order.
var ReservationStatuses = []ReservationStatus{
	StatusPending, StatusConfirmed, StatusOngoing, StatusCompleted, StatusCancelled, StatusRejected,
}

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	for _, v := range ReservationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Reservation is a customer's booking of one or more products over a
// period [StartDate, EndDate).
//
// Fields:
//  ID            – primary key identifier.
//  StoreID       – owning store.
//  Number        – human facing reservation number.
//  Status        – lifecycle state.
//  StartDate     – pickup instant (UTC).
//  EndDate       – return instant (UTC).
//  CustomerName  – customer full name.
//  CustomerEmail – customer email.
//  Subtotal      – rental amount due.
//  DepositAmount – deposit due.
//  TotalAmount   – subtotal + deposit.
//  DepositStatus – deposit hold state.
//  Items         – reservation_items rows.
type Reservation struct {
	ID            uint64            // reservations.id
	StoreID       uint64            // reservations.store_id
	Number        string            // reservations.number
	Status        ReservationStatus // reservations.status
	StartDate     time.Time         // reservations.start_date
	EndDate       time.Time         // reservations.end_date
	CustomerName  string            // reservations.customer_name
	CustomerEmail string            // reservations.customer_email
	Subtotal      decimal.Decimal   // reservations.subtotal
	DepositAmount decimal.Decimal   // reservations.deposit_amount
	TotalAmount   decimal.Decimal   // reservations.total_amount
	DepositStatus DepositStatus     // reservations.deposit_status
	Items         []ReservationItem // reservation_items rows
	CreatedAt     time.Time         // reservations.created_at
	UpdatedAt     time.Time         // reservations.updated_at
}

// ReservationItem is one line of a reservation.  ProductID is nil for
// custom line items, which never consume inventory.
type ReservationItem struct {
	ID             uint64          // reservation_items.id
	ReservationID  uint64          // reservation_items.reservation_id
	ProductID      *uint64         // reservation_items.product_id (nullable)
	Quantity       int             // reservation_items.quantity
	CombinationKey *string         // reservation_items.combination_key (nullable)
	UnitPrice      decimal.Decimal // reservation_items.unit_price
	TotalPrice     decimal.Decimal // reservation_items.total_price
	Description    string          // reservation_items.description
}
