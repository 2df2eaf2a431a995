package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/iliyamo/equipment-rental/internal/ledger"
	"github.com/iliyamo/equipment-rental/internal/logger"
	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/queue"
	"github.com/iliyamo/equipment-rental/internal/repository"
)

// statusTransitions lists the statuses each status may move to.  Statuses
// without an entry are terminal.
var statusTransitions = map[model.ReservationStatus][]model.ReservationStatus{
	model.StatusPending:   {model.StatusConfirmed, model.StatusRejected, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusOngoing, model.StatusCancelled},
	model.StatusOngoing:   {model.StatusCompleted},
}

// CanTransition reports whether a reservation may move from -> to.
func CanTransition(from, to model.ReservationStatus) bool {
	return slices.Contains(statusTransitions[from], to)
}

// ListQuery holds the raw dashboard list parameters.
type ListQuery struct {
	Status   string
	Period   string
	Search   string
	Sort     string
	Page     int
	PageSize int
}

const maxPageSize = 100

// ReservationDetail is a reservation with its ledger view.
type ReservationDetail struct {
	Reservation *model.Reservation
	Payments    []model.Payment
	Summary     ledger.Summary
	Actions     []ledger.Action
	// Transitions lists the statuses the reservation may move to next.
	Transitions []model.ReservationStatus
}

// ReservationService backs the dashboard reservation screens.  Every call is
// scoped to the caller's store.
type ReservationService struct {
	reservations ReservationStore
	payments     PaymentReader
	publisher    EventPublisher
	log          *logger.Logger
	now          Clock
}

func NewReservationService(reservations ReservationStore, payments PaymentReader, publisher EventPublisher, log *logger.Logger, now Clock) *ReservationService {
	if now == nil {
		now = SystemClock
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReservationService{reservations: reservations, payments: payments, publisher: publisher, log: log, now: now}
}

// List returns one page of the store's reservations plus status counts.
func (s *ReservationService) List(ctx context.Context, storeID uint64, q ListQuery) (repository.ReservationPage, ListQuery, error) {
	q.Status = strings.ToLower(strings.TrimSpace(q.Status))
	if q.Status != "" && q.Status != "all" && !model.ReservationStatus(q.Status).Valid() {
		return repository.ReservationPage{}, q, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, q.Status)
	}
	q.Period = strings.ToLower(strings.TrimSpace(q.Period))
	switch q.Period {
	case "":
		q.Period = "all"
	case "upcoming", "ongoing", "past", "all":
	default:
		return repository.ReservationPage{}, q, fmt.Errorf("%w: unknown period %q", ErrInvalidRequest, q.Period)
	}
	switch q.Sort {
	case "newest", "oldest", "start_asc", "start_desc":
	default:
		q.Sort = "newest"
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	page, err := s.reservations.Search(ctx, repository.ReservationSearchQuery{
		StoreID:  storeID,
		Status:   q.Status,
		Period:   q.Period,
		Search:   q.Search,
		Sort:     q.Sort,
		Page:     q.Page,
		PageSize: q.PageSize,
		Now:      s.now(),
	})
	return page, q, err
}

// Get loads a reservation with its payments and ledger summary.
func (s *ReservationService) Get(ctx context.Context, storeID, id uint64) (*ReservationDetail, error) {
	res, err := s.reservations.GetByID(ctx, storeID, id)
	if err != nil {
		return nil, reservationErr(err)
	}
	payments, err := s.payments.ListByReservation(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	return detail(res, payments), nil
}

// ChangeStatus moves a reservation along its lifecycle.
func (s *ReservationService) ChangeStatus(ctx context.Context, storeID, id, actor uint64, to model.ReservationStatus) (*ReservationDetail, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	var from model.ReservationStatus
	res, payments, err := s.reservations.Mutate(ctx, storeID, id,
		func(res *model.Reservation, _ []model.Payment) (repository.Change, error) {
			from = res.Status
			if !CanTransition(res.Status, to) {
				return repository.Change{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, to)
			}
			return repository.Change{Status: &to}, nil
		})
	if err != nil {
		return nil, reservationErr(err)
	}

	s.log.Info("reservation status changed",
		logger.Uint64("reservation_id", res.ID),
		logger.String("from", string(from)),
		logger.String("to", string(to)),
		logger.Uint64("actor", actor))

	ev := queue.NewEvent(queue.StatusChanged, s.now(), storeID, res.ID)
	ev.ReservationNumber = res.Number
	ev.Status = string(to)
	ev.Actor = actor
	publish(ctx, s.publisher, ev)
	return detail(res, payments), nil
}

func detail(res *model.Reservation, payments []model.Payment) *ReservationDetail {
	summary := ledger.Summarize(res.Subtotal, res.DepositAmount, payments)
	next := statusTransitions[res.Status]
	if next == nil {
		next = []model.ReservationStatus{}
	}
	return &ReservationDetail{
		Reservation: res,
		Payments:    payments,
		Summary:     summary,
		Actions:     ledger.Actions(summary),
		Transitions: next,
	}
}
