package service

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/iliyamo/equipment-rental/internal/availability"
	"github.com/iliyamo/equipment-rental/internal/businesshours"
	"github.com/iliyamo/equipment-rental/internal/model"
)

// Period is the normalised query window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AdvanceNotice reports whether the pickup honours the store's minimum
// notice.
type AdvanceNotice struct {
	Valid          bool      `json:"valid"`
	MinimumMinutes int       `json:"minimumMinutes"`
	EarliestStart  time.Time `json:"earliestStart"`
}

// AvailabilityResponse is returned by CheckAvailability.  The validation
// blocks are informational; they never change the computed quantities.
type AvailabilityResponse struct {
	Products                []availability.ProductAvailability `json:"products"`
	Period                  Period                             `json:"period"`
	BusinessHoursValidation businesshours.PeriodResult         `json:"businessHoursValidation"`
	AdvanceNoticeValidation AdvanceNotice                      `json:"advanceNoticeValidation"`
}

// AvailabilityService answers storefront availability queries.
type AvailabilityService struct {
	stores       StoreReader
	products     ProductReader
	reservations ReservationStore
	now          Clock
}

// NewAvailabilityService wires the service; a nil clock means SystemClock.
func NewAvailabilityService(stores StoreReader, products ProductReader, reservations ReservationStore, now Clock) *AvailabilityService {
	if now == nil {
		now = SystemClock
	}
	return &AvailabilityService{stores: stores, products: products, reservations: reservations, now: now}
}

// CheckAvailability computes per-product and per-combination availability
// of the store's active products over [startRaw, endRaw).  productIDs, when
// non-empty, restricts the result.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, storeSlug, startRaw, endRaw string, productIDs []uint64) (*AvailabilityResponse, error) {
	store, err := s.stores.GetBySlug(ctx, storeSlug)
	if err != nil {
		return nil, storeErr(err)
	}
	start, end, err := ParsePeriod(startRaw, endRaw, businesshours.ResolveLocation(store.Timezone))
	if err != nil {
		return nil, err
	}

	products, err := s.products.ListActive(ctx, store.ID, lo.Uniq(productIDs))
	if err != nil {
		return nil, err
	}
	result, err := computeAvailability(ctx, s.products, s.reservations, store, products, start, end)
	if err != nil {
		return nil, err
	}

	return &AvailabilityResponse{
		Products:                result,
		Period:                  Period{Start: start, End: end},
		BusinessHoursValidation: businesshours.ValidatePeriod(start, end, store.Settings.BusinessHours, store.Timezone),
		AdvanceNoticeValidation: advanceNotice(store.Settings, start, s.now()),
	}, nil
}

// computeAvailability loads units and overlapping blocking reservations for
// products and runs the calculator.
func computeAvailability(ctx context.Context, pr ProductReader, rs ReservationStore, store *model.Store, products []model.Product, start, end time.Time) ([]availability.ProductAvailability, error) {
	if len(products) == 0 {
		return []availability.ProductAvailability{}, nil
	}
	units, err := loadUnits(ctx, pr, products)
	if err != nil {
		return nil, err
	}
	blocking := availability.BlockingStatuses(store.Settings.PendingBlocks())
	reservations, err := rs.ListOverlapping(ctx, store.ID, start, end, blocking)
	if err != nil {
		return nil, err
	}
	return availability.Calculate(availability.Input{
		Start:        start,
		End:          end,
		Products:     products,
		Units:        units,
		Reservations: reservations,
		Blocking:     blocking,
	}), nil
}

func loadUnits(ctx context.Context, pr ProductReader, products []model.Product) (map[uint64][]model.ProductUnit, error) {
	tracked := lo.FilterMap(products, func(p model.Product, _ int) (uint64, bool) { return p.ID, p.TrackUnits })
	if len(tracked) == 0 {
		return map[uint64][]model.ProductUnit{}, nil
	}
	return pr.UnitsByProduct(ctx, tracked)
}

func advanceNotice(settings model.StoreSettings, start, now time.Time) AdvanceNotice {
	minutes := max(0, settings.AdvanceNoticeMinutes)
	earliest := now.UTC().Add(time.Duration(minutes) * time.Minute)
	return AdvanceNotice{
		Valid:          !start.Before(earliest),
		MinimumMinutes: minutes,
		EarliestStart:  earliest,
	}
}
