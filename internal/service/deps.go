// Package service orchestrates the storefront and dashboard use cases.  It
// loads rows through the repositories, runs the pure availability, pricing,
// ledger and deposit components over them and publishes domain events.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/queue"
	"github.com/iliyamo/equipment-rental/internal/repository"
)

// Clock returns the current instant.  Services take one so "now" is an
// explicit input.
type Clock func() time.Time

// SystemClock is the production clock.
func SystemClock() time.Time { return time.Now().UTC() }

type StoreReader interface {
	GetBySlug(ctx context.Context, slug string) (*model.Store, error)
	GetByID(ctx context.Context, id uint64) (*model.Store, error)
}

type ProductReader interface {
	ListActive(ctx context.Context, storeID uint64, ids []uint64) ([]model.Product, error)
	UnitsByProduct(ctx context.Context, ids []uint64) (map[uint64][]model.ProductUnit, error)
}

type ReservationStore interface {
	ListOverlapping(ctx context.Context, storeID uint64, start, end time.Time, statuses []model.ReservationStatus) ([]model.Reservation, error)
	Checkout(ctx context.Context, storeID uint64, start, end time.Time, blocking []model.ReservationStatus, build repository.CheckoutFunc) (*model.Reservation, error)
	GetByID(ctx context.Context, storeID, id uint64) (*model.Reservation, error)
	Search(ctx context.Context, q repository.ReservationSearchQuery) (repository.ReservationPage, error)
	Mutate(ctx context.Context, storeID, id uint64, fn repository.MutateFunc) (*model.Reservation, []model.Payment, error)
}

type PaymentReader interface {
	ListByReservation(ctx context.Context, reservationID uint64) ([]model.Payment, error)
}

// EventPublisher is satisfied by *queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

func storeErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrStoreNotFound
	}
	return err
}

func reservationErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrReservationNotFound
	}
	return err
}
