// Package ledger folds a reservation's payment records into the totals the
// dashboard needs.  Which actions an operator may take is derived only from
// the resulting Summary, never from raw payment rows.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// Summary is the aggregated state of a reservation's payments.
type Summary struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	Deposit          decimal.Decimal `json:"deposit"`
	RentalPaid       decimal.Decimal `json:"rentalPaid"`
	DepositCollected decimal.Decimal `json:"depositCollected"`
	DepositReturned  decimal.Decimal `json:"depositReturned"`
	DamagesPaid      decimal.Decimal `json:"damagesPaid"`
	RentalRemaining  decimal.Decimal `json:"rentalRemaining"`
	DepositRemaining decimal.Decimal `json:"depositRemaining"`
	DepositToReturn  decimal.Decimal `json:"depositToReturn"`

	IsRentalFullyPaid       bool `json:"isRentalFullyPaid"`
	IsDepositFullyCollected bool `json:"isDepositFullyCollected"`
	IsDepositFullyReturned  bool `json:"isDepositFullyReturned"`
}

// Summarize sums completed payments by type.
func Summarize(subtotal, deposit decimal.Decimal, payments []model.Payment) Summary {
	s := Summary{
		Subtotal:         subtotal,
		Deposit:          deposit,
		RentalPaid:       decimal.Zero,
		DepositCollected: decimal.Zero,
		DepositReturned:  decimal.Zero,
		DamagesPaid:      decimal.Zero,
	}
	for _, p := range payments {
		if p.Status != model.PaymentCompleted {
			continue
		}
		switch p.Type {
		case model.PaymentRental:
			s.RentalPaid = s.RentalPaid.Add(p.Amount)
		case model.PaymentDeposit:
			s.DepositCollected = s.DepositCollected.Add(p.Amount)
		case model.PaymentDepositReturn:
			s.DepositReturned = s.DepositReturned.Add(p.Amount)
		case model.PaymentDamage:
			s.DamagesPaid = s.DamagesPaid.Add(p.Amount)
		}
	}

	s.RentalRemaining = nonNegative(subtotal.Sub(s.RentalPaid))
	s.DepositRemaining = nonNegative(deposit.Sub(s.DepositCollected))
	s.DepositToReturn = s.DepositCollected.Sub(s.DepositReturned)

	s.IsRentalFullyPaid = !s.RentalRemaining.IsPositive()
	s.IsDepositFullyCollected = !s.DepositRemaining.IsPositive()
	s.IsDepositFullyReturned = !s.DepositToReturn.IsPositive() && s.DepositCollected.IsPositive()
	return s
}

// Action is an operation the dashboard may offer on a reservation.
type Action string

const (
	ActionRecordRentalPayment Action = "record_rental_payment"
	ActionCollectDeposit      Action = "collect_deposit"
	ActionReturnDeposit       Action = "return_deposit"
	ActionRecordDamage        Action = "record_damage"
)

// Actions lists the ledger actions permitted by s.
func Actions(s Summary) []Action {
	out := make([]Action, 0, 4)
	if !s.IsRentalFullyPaid {
		out = append(out, ActionRecordRentalPayment)
	}
	if s.Deposit.IsPositive() && !s.IsDepositFullyCollected {
		out = append(out, ActionCollectDeposit)
	}
	if s.DepositToReturn.IsPositive() {
		out = append(out, ActionReturnDeposit, ActionRecordDamage)
	}
	return out
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
