package service

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/queue"
	"github.com/iliyamo/equipment-rental/internal/repository"
)

type fakeStores struct {
	store *model.Store
}

func (f *fakeStores) GetBySlug(_ context.Context, slug string) (*model.Store, error) {
	if f.store == nil || f.store.Slug != slug {
		return nil, repository.ErrNotFound
	}
	s := *f.store
	return &s, nil
}

func (f *fakeStores) GetByID(_ context.Context, id uint64) (*model.Store, error) {
	if f.store == nil || f.store.ID != id {
		return nil, repository.ErrNotFound
	}
	s := *f.store
	return &s, nil
}

type fakeProducts struct {
	products []model.Product
	units    map[uint64][]model.ProductUnit
}

func (f *fakeProducts) ListActive(_ context.Context, storeID uint64, ids []uint64) ([]model.Product, error) {
	return lo.Filter(f.products, func(p model.Product, _ int) bool {
		return p.StoreID == storeID && p.Status == model.ProductActive && (len(ids) == 0 || lo.Contains(ids, p.ID))
	}), nil
}

func (f *fakeProducts) UnitsByProduct(_ context.Context, ids []uint64) (map[uint64][]model.ProductUnit, error) {
	return lo.PickByKeys(f.units, ids), nil
}

// fakeReservations mimics the repository transactions in memory.
type fakeReservations struct {
	existing []model.Reservation
	inserted []model.Reservation
	current  *model.Reservation
	payments []model.Payment
	page     repository.ReservationPage
	lastQ    repository.ReservationSearchQuery
	nextID   uint64
}

func (f *fakeReservations) ListOverlapping(_ context.Context, storeID uint64, start, end time.Time, statuses []model.ReservationStatus) ([]model.Reservation, error) {
	return lo.Filter(f.existing, func(r model.Reservation, _ int) bool {
		return r.StoreID == storeID && lo.Contains(statuses, r.Status) && r.StartDate.Before(end) && start.Before(r.EndDate)
	}), nil
}

func (f *fakeReservations) Checkout(ctx context.Context, storeID uint64, start, end time.Time, blocking []model.ReservationStatus, build repository.CheckoutFunc) (*model.Reservation, error) {
	existing, _ := f.ListOverlapping(ctx, storeID, start, end, blocking)
	res, err := build(existing)
	if err != nil {
		return nil, err
	}
	f.nextID++
	res.ID = f.nextID
	f.inserted = append(f.inserted, *res)
	return res, nil
}

func (f *fakeReservations) GetByID(_ context.Context, storeID, id uint64) (*model.Reservation, error) {
	if f.current == nil || f.current.ID != id || f.current.StoreID != storeID {
		return nil, repository.ErrNotFound
	}
	r := *f.current
	return &r, nil
}

func (f *fakeReservations) Search(_ context.Context, q repository.ReservationSearchQuery) (repository.ReservationPage, error) {
	f.lastQ = q
	return f.page, nil
}

func (f *fakeReservations) Mutate(_ context.Context, storeID, id uint64, fn repository.MutateFunc) (*model.Reservation, []model.Payment, error) {
	if f.current == nil || f.current.ID != id || f.current.StoreID != storeID {
		return nil, nil, repository.ErrNotFound
	}
	res := *f.current
	payments := append([]model.Payment(nil), f.payments...)
	change, err := fn(&res, payments)
	if err != nil {
		return nil, nil, err
	}
	if change.Status != nil {
		res.Status = *change.Status
	}
	if change.DepositStatus != nil {
		res.DepositStatus = *change.DepositStatus
	}
	for _, p := range change.Payments {
		p.ID = uint64(len(payments) + 1)
		p.ReservationID = res.ID
		payments = append(payments, p)
	}
	f.current = &res
	f.payments = payments
	return &res, payments, nil
}

func (f *fakeReservations) ListByReservation(_ context.Context, reservationID uint64) ([]model.Payment, error) {
	return lo.Filter(f.payments, func(p model.Payment, _ int) bool { return p.ReservationID == reservationID }), nil
}

type fakePublisher struct {
	events []queue.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev queue.Event) error {
	f.events = append(f.events, ev)
	return f.err
}
