package handler

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/equipment-rental/internal/ledger"
	"github.com/iliyamo/equipment-rental/internal/model"
	"github.com/iliyamo/equipment-rental/internal/pricing"
	"github.com/iliyamo/equipment-rental/internal/service"
)

// Monetary values leave the API as strings with exactly two decimals.

func money(d decimal.Decimal) string { return d.StringFixed(2) }

type itemView struct {
	ID             uint64  `json:"id"`
	ProductID      *uint64 `json:"productId"`
	Description    string  `json:"description"`
	Quantity       int     `json:"quantity"`
	CombinationKey *string `json:"combinationKey,omitempty"`
	UnitPrice      string  `json:"unitPrice"`
	TotalPrice     string  `json:"totalPrice"`
}

type reservationView struct {
	ID            uint64     `json:"id"`
	Number        string     `json:"number"`
	Status        string     `json:"status"`
	StartDate     time.Time  `json:"startDate"`
	EndDate       time.Time  `json:"endDate"`
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
	Subtotal      string     `json:"subtotal"`
	DepositAmount string     `json:"depositAmount"`
	TotalAmount   string     `json:"totalAmount"`
	DepositStatus string     `json:"depositStatus"`
	Items         []itemView `json:"items"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func newReservationView(r *model.Reservation) reservationView {
	return reservationView{
		ID:            r.ID,
		Number:        r.Number,
		Status:        string(r.Status),
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		Subtotal:      money(r.Subtotal),
		DepositAmount: money(r.DepositAmount),
		TotalAmount:   money(r.TotalAmount),
		DepositStatus: string(r.DepositStatus),
		Items: lo.Map(r.Items, func(it model.ReservationItem, _ int) itemView {
			return itemView{
				ID:             it.ID,
				ProductID:      it.ProductID,
				Description:    it.Description,
				Quantity:       it.Quantity,
				CombinationKey: it.CombinationKey,
				UnitPrice:      money(it.UnitPrice),
				TotalPrice:     money(it.TotalPrice),
			}
		}),
		CreatedAt: r.CreatedAt,
	}
}

type paymentView struct {
	ID        uint64     `json:"id"`
	Type      string     `json:"type"`
	Method    string     `json:"method"`
	Status    string     `json:"status"`
	Amount    string     `json:"amount"`
	Notes     *string    `json:"notes"`
	PaidAt    *time.Time `json:"paidAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

type summaryView struct {
	Subtotal                string `json:"subtotal"`
	Deposit                 string `json:"deposit"`
	RentalPaid              string `json:"rentalPaid"`
	DepositCollected        string `json:"depositCollected"`
	DepositReturned         string `json:"depositReturned"`
	DamagesPaid             string `json:"damagesPaid"`
	RentalRemaining         string `json:"rentalRemaining"`
	DepositRemaining        string `json:"depositRemaining"`
	DepositToReturn         string `json:"depositToReturn"`
	IsRentalFullyPaid       bool   `json:"isRentalFullyPaid"`
	IsDepositFullyCollected bool   `json:"isDepositFullyCollected"`
	IsDepositFullyReturned  bool   `json:"isDepositFullyReturned"`
}

func newSummaryView(s ledger.Summary) summaryView {
	return summaryView{
		Subtotal:                money(s.Subtotal),
		Deposit:                 money(s.Deposit),
		RentalPaid:              money(s.RentalPaid),
		DepositCollected:        money(s.DepositCollected),
		DepositReturned:         money(s.DepositReturned),
		DamagesPaid:             money(s.DamagesPaid),
		RentalRemaining:         money(s.RentalRemaining),
		DepositRemaining:        money(s.DepositRemaining),
		DepositToReturn:         money(s.DepositToReturn),
		IsRentalFullyPaid:       s.IsRentalFullyPaid,
		IsDepositFullyCollected: s.IsDepositFullyCollected,
		IsDepositFullyReturned:  s.IsDepositFullyReturned,
	}
}

type detailView struct {
	Reservation reservationView           `json:"reservation"`
	Payments    []paymentView             `json:"payments"`
	Summary     summaryView               `json:"summary"`
	Actions     []ledger.Action           `json:"actions"`
	Transitions []model.ReservationStatus `json:"transitions"`
}

func newDetailView(d *service.ReservationDetail) detailView {
	return detailView{
		Reservation: newReservationView(d.Reservation),
		Payments: lo.Map(d.Payments, func(p model.Payment, _ int) paymentView {
			return paymentView{
				ID:        p.ID,
				Type:      string(p.Type),
				Method:    string(p.Method),
				Status:    string(p.Status),
				Amount:    money(p.Amount),
				Notes:     p.Notes,
				PaidAt:    p.PaidAt,
				CreatedAt: p.CreatedAt,
			}
		}),
		Summary:     newSummaryView(d.Summary),
		Actions:     d.Actions,
		Transitions: d.Transitions,
	}
}

type quoteLineView struct {
	ProductID         uint64            `json:"productId"`
	RateBased         bool              `json:"rateBased"`
	PricingUnit       model.PricingMode `json:"pricingUnit,omitempty"`
	Duration          int               `json:"duration"`
	RawDuration       int               `json:"rawDuration"`
	Snapped           bool              `json:"snapped"`
	Quantity          int               `json:"quantity"`
	OriginalSubtotal  string            `json:"originalSubtotal"`
	Subtotal          string            `json:"subtotal"`
	Savings           string            `json:"savings"`
	DiscountPercent   string            `json:"discountPercent"`
	AppliedBreakpoint int               `json:"appliedBreakpoint"`
	Deposit           string            `json:"deposit"`
}

type quoteView struct {
	Period           service.Period  `json:"period"`
	Lines            []quoteLineView `json:"lines"`
	OriginalSubtotal string          `json:"originalSubtotal"`
	Subtotal         string          `json:"subtotal"`
	Savings          string          `json:"savings"`
	Deposit          string          `json:"deposit"`
	Total            string          `json:"total"`
	StrictTiers      bool            `json:"strictTiers"`
}

func newQuoteView(q *service.QuoteResponse) quoteView {
	return quoteView{
		Period: q.Period,
		Lines: lo.Map(q.Lines, func(l pricing.Quote, _ int) quoteLineView {
			return quoteLineView{
				ProductID:         l.ProductID,
				RateBased:         l.RateBased,
				PricingUnit:       l.PricingUnit,
				Duration:          l.Duration,
				RawDuration:       l.RawDuration,
				Snapped:           l.Snapped,
				Quantity:          l.Quantity,
				OriginalSubtotal:  money(l.OriginalSubtotal),
				Subtotal:          money(l.Subtotal),
				Savings:           money(l.Savings),
				DiscountPercent:   money(l.DiscountPercent),
				AppliedBreakpoint: l.AppliedBreakpoint,
				Deposit:           money(l.Deposit),
			}
		}),
		OriginalSubtotal: money(q.OriginalSubtotal),
		Subtotal:         money(q.Subtotal),
		Savings:          money(q.Savings),
		Deposit:          money(q.Deposit),
		Total:            money(q.Total),
		StrictTiers:      q.StrictTiers,
	}
}
