package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/equipment-rental/internal/deposit"
	"github.com/iliyamo/equipment-rental/internal/ledger"
	"github.com/iliyamo/equipment-rental/internal/logger"
	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/queue"
	"github.com/iliyamo/equipment-rental/internal/repository"
)

// PaymentInput is a manual ledger entry from the dashboard.
type PaymentInput struct {
	Type   model.PaymentType
	Method model.PaymentMethod
	Amount decimal.Decimal
	Notes  string
	PaidAt *time.Time
}

// DepositAction names a deposit hold operation.
type DepositAction string

const (
	DepositHold      DepositAction = "hold"
	DepositCardSaved DepositAction = "card-saved"
	DepositAuthorize DepositAction = "authorize"
	DepositCapture   DepositAction = "capture"
	DepositRelease   DepositAction = "release"
	DepositFail      DepositAction = "fail"
)

var depositTargets = map[DepositAction]model.DepositStatus{
	DepositHold:      model.DepositPending,
	DepositCardSaved: model.DepositCardSaved,
	DepositAuthorize: model.DepositAuthorized,
	DepositCapture:   model.DepositCaptured,
	DepositRelease:   model.DepositReleased,
	DepositFail:      model.DepositFailed,
}

// ParseDepositAction validates an action name.
func ParseDepositAction(s string) (DepositAction, bool) {
	a := DepositAction(strings.ToLower(strings.TrimSpace(s)))
	_, ok := depositTargets[a]
	return a, ok
}

// DepositInput carries the optional capture parameters.
type DepositInput struct {
	Amount decimal.Decimal
	Reason string
	Method model.PaymentMethod
}

// PaymentService records ledger entries and drives the deposit state
// machine.  Validation runs against the ledger read under the reservation
// row lock.
type PaymentService struct {
	reservations ReservationStore
	publisher    EventPublisher
	log          *logger.Logger
	now          Clock
}

func NewPaymentService(reservations ReservationStore, publisher EventPublisher, log *logger.Logger, now Clock) *PaymentService {
	if now == nil {
		now = SystemClock
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PaymentService{reservations: reservations, publisher: publisher, log: log, now: now}
}

// ValidatePayment checks in against the current ledger summary.
func ValidatePayment(in PaymentInput, s ledger.Summary) error {
	switch in.Type {
	case model.PaymentRental, model.PaymentDeposit, model.PaymentDepositReturn, model.PaymentDamage, model.PaymentAdjustment:
	case model.PaymentDepositHold, model.PaymentDepositCapture:
		return fmt.Errorf("%w: %s is recorded through the deposit actions", ErrInvalidPayment, in.Type)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidPayment, in.Type)
	}
	if !model.ValidPaymentMethod(in.Method) {
		return fmt.Errorf("%w: unknown method %q", ErrInvalidPayment, in.Method)
	}
	if in.Type == model.PaymentAdjustment {
		if in.Amount.IsZero() {
			return fmt.Errorf("%w: adjustment amount must not be zero", ErrInvalidPayment)
		}
		return nil
	}
	if in.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidPayment)
	}
	var limit decimal.Decimal
	switch in.Type {
	case model.PaymentRental:
		limit = s.RentalRemaining
	case model.PaymentDeposit:
		limit = s.DepositRemaining
	case model.PaymentDepositReturn:
		limit = s.DepositToReturn
	default:
		return nil
	}
	if in.Amount.GreaterThan(limit) {
		return fmt.Errorf("%w: %s amount %s exceeds remaining %s", ErrInvalidPayment, in.Type, money(in.Amount), money(limit))
	}
	return nil
}

// RecordPayment validates and stores a completed payment.
func (s *PaymentService) RecordPayment(ctx context.Context, storeID, reservationID, actor uint64, in PaymentInput) (*ReservationDetail, error) {
	now := s.now()
	paidAt := now
	if in.PaidAt != nil {
		paidAt = in.PaidAt.UTC()
	}
	var recorded model.Payment

	res, payments, err := s.reservations.Mutate(ctx, storeID, reservationID,
		func(res *model.Reservation, payments []model.Payment) (repository.Change, error) {
			summary := ledger.Summarize(res.Subtotal, res.DepositAmount, payments)
			if err := ValidatePayment(in, summary); err != nil {
				return repository.Change{}, err
			}
			recorded = model.Payment{
				Type:      in.Type,
				Method:    in.Method,
				Status:    model.PaymentCompleted,
				Amount:    in.Amount,
				Notes:     notes(in.Notes),
				PaidAt:    &paidAt,
				CreatedAt: now,
			}
			return repository.Change{Payments: []model.Payment{recorded}}, nil
		})
	if err != nil {
		return nil, reservationErr(err)
	}

	s.log.Info("payment recorded",
		logger.Uint64("reservation_id", res.ID),
		logger.String("type", string(in.Type)),
		logger.String("amount", money(in.Amount)),
		logger.Uint64("actor", actor))

	ev := queue.NewEvent(queue.PaymentRecorded, now, storeID, res.ID)
	ev.ReservationNumber = res.Number
	ev.PaymentType = string(in.Type)
	ev.PaymentMethod = string(in.Method)
	ev.Amount = money(in.Amount)
	ev.Actor = actor
	publish(ctx, s.publisher, ev)
	return detail(res, payments), nil
}

// ApplyDeposit moves the reservation's deposit hold through its state
// machine.  Hold, authorize, release and fail append a deposit_hold audit
// row.  A hold is refused once any deposit was collected by hand.  Capture
// books the part of the deposit not yet collected, records the retained
// amount as deposit_capture and returns any remainder through a
// deposit_return payment.
func (s *PaymentService) ApplyDeposit(ctx context.Context, storeID, reservationID, actor uint64, action DepositAction, in DepositInput) (*ReservationDetail, error) {
	target, ok := depositTargets[action]
	if !ok {
		return nil, fmt.Errorf("%w: unknown deposit action %q", ErrInvalidRequest, action)
	}
	method := in.Method
	if method == "" {
		method = model.MethodCard
	}
	if !model.ValidPaymentMethod(method) {
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidPayment, method)
	}
	now := s.now()
	var captured deposit.CapturePlan

	res, payments, err := s.reservations.Mutate(ctx, storeID, reservationID,
		func(res *model.Reservation, payments []model.Payment) (repository.Change, error) {
			if !res.DepositAmount.IsPositive() {
				return repository.Change{}, fmt.Errorf("%w: reservation has no deposit", ErrInvalidPayment)
			}
			from := res.DepositStatus
			if from == "" {
				from = model.DepositNone
			}
			next, err := deposit.Transition(from, target)
			if err != nil {
				return repository.Change{}, err
			}
			change := repository.Change{DepositStatus: &next}

			row := func(t model.PaymentType, status model.PaymentStatus, amount decimal.Decimal, note string) model.Payment {
				p := model.Payment{Type: t, Method: method, Status: status, Amount: amount, Notes: notes(note), CreatedAt: now}
				if status == model.PaymentCompleted {
					p.PaidAt = &now
				}
				return p
			}

			held := res.DepositAmount
			sum := ledger.Summarize(res.Subtotal, held, payments)
			switch action {
			case DepositHold:
				if sum.DepositCollected.IsPositive() {
					return repository.Change{}, fmt.Errorf("%w: deposit already collected (%s)", ErrInvalidPayment, money(sum.DepositCollected))
				}
				change.Payments = append(change.Payments, row(model.PaymentDepositHold, model.PaymentPending, held, ""))
			case DepositAuthorize:
				change.Payments = append(change.Payments, row(model.PaymentDepositHold, model.PaymentAuthorized, held, ""))
			case DepositRelease:
				change.Payments = append(change.Payments, row(model.PaymentDepositHold, model.PaymentCancelled, held, in.Reason))
			case DepositFail:
				change.Payments = append(change.Payments, row(model.PaymentDepositHold, model.PaymentFailed, held, in.Reason))
			case DepositCapture:
				plan, err := deposit.PlanCapture(held, in.Amount, in.Reason)
				if err != nil {
					return repository.Change{}, err
				}
				captured = plan
				if sum.DepositRemaining.IsPositive() {
					change.Payments = append(change.Payments, row(model.PaymentDeposit, model.PaymentCompleted, sum.DepositRemaining, ""))
				}
				change.Payments = append(change.Payments,
					row(model.PaymentDepositCapture, model.PaymentCompleted, plan.Captured, in.Reason))
				if plan.Returned.IsPositive() {
					change.Payments = append(change.Payments,
						row(model.PaymentDepositReturn, model.PaymentCompleted, plan.Returned, "uncaptured deposit remainder"))
				}
			}
			return change, nil
		})
	if err != nil {
		if errors.Is(err, deposit.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTransition, err)
		}
		if errors.Is(err, deposit.ErrInvalidCapture) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayment, err)
		}
		return nil, reservationErr(err)
	}

	fields := []logger.Field{
		logger.Uint64("reservation_id", res.ID),
		logger.String("deposit_status", string(res.DepositStatus)),
		logger.Uint64("actor", actor),
	}
	if action == DepositCapture {
		fields = append(fields, logger.String("captured", money(captured.Captured)), logger.String("returned", money(captured.Returned)))
	}
	s.log.Info("deposit changed", fields...)

	ev := queue.NewEvent(queue.DepositChanged, now, storeID, res.ID)
	ev.ReservationNumber = res.Number
	ev.DepositStatus = string(res.DepositStatus)
	if action == DepositCapture {
		ev.Amount = money(captured.Captured)
	}
	ev.Actor = actor
	publish(ctx, s.publisher, ev)
	return detail(res, payments), nil
}

func notes(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
