package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/equipment-rental/internal/availability"
	"github.com/iliyamo/equipment-rental/internal/businesshours"
	"github.com/iliyamo/equipment-rental/internal/logger"
	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/pricing"
	"github.com/iliyamo/equipment-rental/internal/queue"
)

// Customer identifies who is booking.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CheckoutRequest is the storefront booking payload.
type CheckoutRequest struct {
	StartDate string      `json:"startDate"`
	EndDate   string      `json:"endDate"`
	Customer  Customer    `json:"customer"`
	Lines     []QuoteLine `json:"lines"`
}

// CheckoutService creates storefront reservations.
type CheckoutService struct {
	stores       StoreReader
	products     ProductReader
	reservations ReservationStore
	publisher    EventPublisher
	log          *logger.Logger
	now          Clock
}

func NewCheckoutService(stores StoreReader, products ProductReader, reservations ReservationStore, publisher EventPublisher, log *logger.Logger, now Clock) *CheckoutService {
	if now == nil {
		now = SystemClock
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CheckoutService{stores: stores, products: products, reservations: reservations, publisher: publisher, log: log, now: now}
}

// demandKey identifies one inventory pool a line draws from.
type demandKey struct {
	productID uint64
	combo     string
}

// Checkout validates the request, prices each line and inserts a pending
// reservation.  Availability is recomputed inside the repository
// transaction from the locked overlapping reservations, so two concurrent
// bookers cannot both take the last unit.
func (s *CheckoutService) Checkout(ctx context.Context, storeSlug string, req CheckoutRequest) (*model.Reservation, error) {
	store, err := s.stores.GetBySlug(ctx, storeSlug)
	if err != nil {
		return nil, storeErr(err)
	}
	start, end, err := ParsePeriod(req.StartDate, req.EndDate, businesshours.ResolveLocation(store.Timezone))
	if err != nil {
		return nil, err
	}
	customer, err := validateCustomer(req.Customer)
	if err != nil {
		return nil, err
	}
	if err := validateLines(req.Lines); err != nil {
		return nil, err
	}

	if hours := businesshours.ValidatePeriod(start, end, store.Settings.BusinessHours, store.Timezone); !hours.Valid {
		return nil, fmt.Errorf("%w: %s", ErrOutsideHours, strings.Join(hours.Errors, ", "))
	}
	now := s.now()
	if notice := advanceNotice(store.Settings, start, now); !notice.Valid {
		return nil, fmt.Errorf("%w: earliest pickup is %s", ErrAdvanceNotice, notice.EarliestStart.Format(time.RFC3339))
	}

	byID, err := loadLineProducts(ctx, s.products, store.ID, req.Lines)
	if err != nil {
		return nil, err
	}
	products := make([]model.Product, 0, len(byID))
	for _, p := range byID {
		products = append(products, p)
	}
	units, err := loadUnits(ctx, s.products, products)
	if err != nil {
		return nil, err
	}

	items, demand, subtotal, deposit := s.priceLines(store, byID, req.Lines, start, end)
	blocking := availability.BlockingStatuses(store.Settings.PendingBlocks())

	res, err := s.reservations.Checkout(ctx, store.ID, start, end, blocking,
		func(existing []model.Reservation) (*model.Reservation, error) {
			avail := availability.Calculate(availability.Input{
				Start: start, End: end, Products: products, Units: units,
				Reservations: existing, Blocking: blocking,
			})
			if err := checkDemand(avail, demand); err != nil {
				return nil, err
			}
			return &model.Reservation{
				StoreID:       store.ID,
				Number:        reservationNumber(now),
				Status:        model.StatusPending,
				StartDate:     start,
				EndDate:       end,
				CustomerName:  customer.Name,
				CustomerEmail: customer.Email,
				Subtotal:      subtotal,
				DepositAmount: deposit,
				TotalAmount:   subtotal.Add(deposit),
				DepositStatus: model.DepositNone,
				Items:         items,
				CreatedAt:     now,
				UpdatedAt:     now,
			}, nil
		})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation created",
		logger.Uint64("store_id", store.ID),
		logger.Uint64("reservation_id", res.ID),
		logger.String("number", res.Number))

	ev := queue.NewEvent(queue.ReservationCreated, now, store.ID, res.ID)
	ev.ReservationNumber = res.Number
	ev.Status = string(res.Status)
	ev.Total = money(res.TotalAmount)
	ev.StartDate = start.Format(time.RFC3339)
	ev.EndDate = end.Format(time.RFC3339)
	publish(ctx, s.publisher, ev)
	return res, nil
}

// priceLines turns request lines into reservation items and the demand per
// inventory pool.
func (s *CheckoutService) priceLines(store *model.Store, byID map[uint64]model.Product, lines []QuoteLine, start, end time.Time) ([]model.ReservationItem, map[demandKey]int, decimal.Decimal, decimal.Decimal) {
	var (
		items    = make([]model.ReservationItem, 0, len(lines))
		demand   = make(map[demandKey]int, len(lines))
		subtotal = decimal.Zero
		deposit  = decimal.Zero
		loc      = businesshours.ResolveLocation(store.Timezone)
	)
	for _, line := range lines {
		p := byID[line.ProductID]
		q := pricing.QuoteProduct(p, start.In(loc), end.In(loc), line.Quantity, store.Settings.EnforceStrictTiers)

		pid := p.ID
		item := model.ReservationItem{
			ProductID:   &pid,
			Quantity:    line.Quantity,
			UnitPrice:   q.Subtotal.Div(decimal.NewFromInt(int64(line.Quantity))),
			TotalPrice:  q.Subtotal,
			Description: p.Name,
		}
		key := demandKey{productID: p.ID}
		if p.TrackUnits && len(line.Attributes) > 0 && len(p.BookingAttributeAxes) > 0 {
			combo := availability.CombinationKey(p.BookingAttributeAxes, line.Attributes)
			item.CombinationKey = &combo
			key.combo = combo
		}
		items = append(items, item)
		demand[key] += line.Quantity
		subtotal = subtotal.Add(q.Subtotal)
		deposit = deposit.Add(q.Deposit)
	}
	return items, demand, subtotal, deposit
}

// checkDemand verifies every pool, and every product as a whole, can serve
// the requested quantities.
func checkDemand(avail []availability.ProductAvailability, demand map[demandKey]int) error {
	byProduct := make(map[uint64]availability.ProductAvailability, len(avail))
	for _, pa := range avail {
		byProduct[pa.ProductID] = pa
	}
	perProduct := make(map[uint64]int)
	for key, qty := range demand {
		perProduct[key.productID] += qty
		if key.combo == "" {
			continue
		}
		pa := byProduct[key.productID]
		if free := pa.AvailableFor(key.combo); qty > free {
			return &ShortageError{ProductID: key.productID, CombinationKey: key.combo, Requested: qty, Available: free}
		}
	}
	for id, qty := range perProduct {
		if free := byProduct[id].AvailableQuantity; qty > free {
			return &ShortageError{ProductID: id, Requested: qty, Available: free}
		}
	}
	return nil
}

func validateCustomer(c Customer) (Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Name == "" {
		return c, fmt.Errorf("%w: customer name is required", ErrInvalidRequest)
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return c, fmt.Errorf("%w: customer email is invalid", ErrInvalidRequest)
	}
	return c, nil
}

// reservationNumber returns "R-YYYYMMDD-XXXXXXXX" with a random suffix.
func reservationNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "R-" + now.UTC().Format("20060102") + "-" + suffix
}
