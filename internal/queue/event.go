// Package queue defines the domain events exchanged over RabbitMQ, the
// publisher used by the service layer and the background consumer that
// writes the store activity log.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Event types.  Each type is published to a durable queue of the same name.
const (
	ReservationCreated = "reservation.created"
	PaymentRecorded    = "payment.recorded"
	DepositChanged     = "deposit.changed"
	StatusChanged      = "reservation.status_changed"
)

// Queues lists every queue the consumer listens on.
var Queues = []string{ReservationCreated, PaymentRecorded, DepositChanged, StatusChanged}

// Event is published after a reservation or its ledger changes.  It carries
// enough information for downstream consumers to log, notify or trigger
// analytics without querying the primary database.  Monetary values are
// two-decimal strings.
type Event struct {
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	OccurredAt        time.Time `json:"occurred_at"`
	StoreID           uint64    `json:"store_id"`
	ReservationID     uint64    `json:"reservation_id"`
	ReservationNumber string    `json:"reservation_number,omitempty"`
	Status            string    `json:"status,omitempty"`
	DepositStatus     string    `json:"deposit_status,omitempty"`
	PaymentType       string    `json:"payment_type,omitempty"`
	PaymentMethod     string    `json:"payment_method,omitempty"`
	Amount            string    `json:"amount,omitempty"`
	Total             string    `json:"total,omitempty"`
	StartDate         string    `json:"start_date,omitempty"`
	EndDate           string    `json:"end_date,omitempty"`
	Actor             uint64    `json:"actor,omitempty"`
}

// NewEvent returns an event of the given type with a fresh id.
func NewEvent(typ string, at time.Time, storeID, reservationID uint64) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          typ,
		OccurredAt:    at.UTC(),
		StoreID:       storeID,
		ReservationID: reservationID,
	}
}
