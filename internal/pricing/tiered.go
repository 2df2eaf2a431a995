package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Tier is a discount bracket: durations of at least MinDuration pricing
// units receive DiscountPercent off the base price.
type Tier struct {
	MinDuration     int
	DiscountPercent decimal.Decimal
}

// TierSchedule prices durations expressed in the product's pricing unit.
type TierSchedule struct {
	BasePrice decimal.Decimal
	Quantity  int
	Tiers     []Tier
}

// NewTierSchedule copies tiers and orders them by ascending MinDuration.
func NewTierSchedule(basePrice decimal.Decimal, quantity int, tiers []Tier) TierSchedule {
	sorted := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t.MinDuration > 0 {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinDuration < sorted[j].MinDuration })
	return TierSchedule{BasePrice: basePrice, Quantity: max(1, quantity), Tiers: sorted}
}

// Breakpoints are the single base unit plus every tier's MinDuration.
func (s TierSchedule) Breakpoints() []int {
	if len(s.Tiers) == 0 {
		return nil
	}
	bps := []int{1}
	for _, t := range s.Tiers {
		bps = append(bps, t.MinDuration)
	}
	return normalizeBreakpoints(bps)
}

// Select returns the tier with the largest MinDuration <= duration.
func (s TierSchedule) Select(duration int) (Tier, bool) {
	var (
		best  Tier
		found bool
	)
	for _, t := range s.Tiers {
		if t.MinDuration > duration {
			break
		}
		best, found = t, true
	}
	return best, found
}

// ValueAt prices duration units without snapping.
func (s TierSchedule) ValueAt(duration int) Result {
	duration = max(1, duration)
	qty := max(1, s.Quantity)

	original := s.BasePrice.Mul(decimal.NewFromInt(int64(duration))).Mul(decimal.NewFromInt(int64(qty)))
	if original.IsNegative() {
		original = decimal.Zero
	}

	pct := decimal.Zero
	applied := 0
	if t, ok := s.Select(duration); ok {
		pct = clampPercent(t.DiscountPercent)
		applied = t.MinDuration
	}
	subtotal := original.Mul(hundred.Sub(pct)).Div(hundred)

	return Result{
		Duration:          duration,
		RawDuration:       duration,
		Quantity:          qty,
		OriginalSubtotal:  original,
		Subtotal:          subtotal,
		Savings:           original.Sub(subtotal),
		DiscountPercent:   pct,
		AppliedBreakpoint: applied,
	}
}

// CalculateTiered prices duration with optional strict-tier snapping.
func CalculateTiered(basePrice decimal.Decimal, tiers []Tier, duration, quantity int, strict bool) Result {
	return Resolve(NewTierSchedule(basePrice, quantity, tiers), max(1, duration), strict)
}
