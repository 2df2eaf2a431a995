package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Rate is a flat price for PeriodMinutes of rental.
type Rate struct {
	PeriodMinutes int
	Price         decimal.Decimal
}

// RateSchedule prices durations in minutes.  The base price per base
// period is itself an implicit rate.
type RateSchedule struct {
	BasePrice         decimal.Decimal
	BasePeriodMinutes int
	Quantity          int
	Rates             []Rate
}

// NewRateSchedule orders rates by ascending period and drops invalid ones.
func NewRateSchedule(basePrice decimal.Decimal, basePeriodMinutes, quantity int, rates []Rate) RateSchedule {
	sorted := make([]Rate, 0, len(rates))
	for _, r := range rates {
		if r.PeriodMinutes > 0 && !r.Price.IsNegative() {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PeriodMinutes < sorted[j].PeriodMinutes })
	return RateSchedule{
		BasePrice:         basePrice,
		BasePeriodMinutes: max(1, basePeriodMinutes),
		Quantity:          max(1, quantity),
		Rates:             sorted,
	}
}

// Breakpoints are the base period plus every rate period.
func (s RateSchedule) Breakpoints() []int {
	bps := []int{s.BasePeriodMinutes}
	for _, r := range s.Rates {
		bps = append(bps, r.PeriodMinutes)
	}
	return normalizeBreakpoints(bps)
}

// Select returns the rate with the largest period <= minutes, falling back
// to the base rate.  On equal periods the explicit rate wins.
func (s RateSchedule) Select(minutes int) (Rate, bool) {
	best := Rate{PeriodMinutes: s.BasePeriodMinutes, Price: s.BasePrice}
	explicit := false
	for _, r := range s.Rates {
		if r.PeriodMinutes > minutes {
			break
		}
		if r.PeriodMinutes >= best.PeriodMinutes || best.PeriodMinutes > minutes {
			best, explicit = r, true
		}
	}
	return best, explicit
}

// ValueAt prices minutes proportionally to the selected rate:
// price / period * minutes * quantity.  Savings are measured against the
// base rate's linear cost for the same duration.
func (s RateSchedule) ValueAt(minutes int) Result {
	minutes = max(1, minutes)
	qty := decimal.NewFromInt(int64(max(1, s.Quantity)))
	mins := decimal.NewFromInt(int64(minutes))

	original := s.BasePrice.Mul(mins).Mul(qty).Div(decimal.NewFromInt(int64(s.BasePeriodMinutes)))
	if original.IsNegative() {
		original = decimal.Zero
	}

	rate, explicit := s.Select(minutes)
	subtotal := rate.Price.Mul(mins).Mul(qty).Div(decimal.NewFromInt(int64(rate.PeriodMinutes)))
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}

	savings := original.Sub(subtotal)
	if savings.IsNegative() {
		savings = decimal.Zero
	}
	pct := decimal.Zero
	if original.IsPositive() {
		pct = clampPercent(savings.Mul(hundred).Div(original))
	}

	applied := 0
	if explicit {
		applied = rate.PeriodMinutes
	}
	return Result{
		Duration:          minutes,
		RawDuration:       minutes,
		Quantity:          max(1, s.Quantity),
		OriginalSubtotal:  original,
		Subtotal:          subtotal,
		Savings:           savings,
		DiscountPercent:   pct,
		AppliedBreakpoint: applied,
	}
}

// CalculateRate prices minutes with optional strict snapping.
func CalculateRate(basePrice decimal.Decimal, basePeriodMinutes int, rates []Rate, minutes, quantity int, strict bool) Result {
	return Resolve(NewRateSchedule(basePrice, basePeriodMinutes, quantity, rates), max(1, minutes), strict)
}
