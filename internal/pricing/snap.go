// Package pricing computes rental prices.  Two schedules exist: discount
// tiers over a per-unit base price, and explicit flat rates per period of
// minutes.  Both share one snapping primitive used when a store forces
// customers onto the nearest bracket.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Result is the priced outcome of a duration.  Amounts keep full precision;
// callers round or format them at the boundary.
type Result struct {
	Duration         int             `json:"duration"`
	RawDuration      int             `json:"rawDuration"`
	Snapped          bool            `json:"snapped"`
	Quantity         int             `json:"quantity"`
	OriginalSubtotal decimal.Decimal `json:"originalSubtotal"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Savings          decimal.Decimal `json:"savings"`
	DiscountPercent  decimal.Decimal `json:"discountPercent"`
	// AppliedBreakpoint is the tier minDuration or rate period that priced
	// the duration, or 0 when the base price applied.
	AppliedBreakpoint int `json:"appliedBreakpoint"`
}

// Snappable is a schedule whose valid durations are a list of breakpoints.
type Snappable interface {
	Breakpoints() []int
	ValueAt(duration int) Result
}

// Snap returns the smallest breakpoint >= raw.  A raw duration beyond the
// largest breakpoint is returned unchanged.  Non-positive breakpoints are
// ignored.
func Snap(breakpoints []int, raw int) int {
	bps := normalizeBreakpoints(breakpoints)
	for _, bp := range bps {
		if bp >= raw {
			return bp
		}
	}
	return raw
}

// Resolve prices raw against s, snapping first when strict is set.
func Resolve(s Snappable, raw int, strict bool) Result {
	d := raw
	if strict {
		d = Snap(s.Breakpoints(), raw)
	}
	r := s.ValueAt(d)
	r.RawDuration = raw
	r.Snapped = d != raw
	return r
}

func normalizeBreakpoints(in []int) []int {
	out := make([]int, 0, len(in))
	seen := make(map[int]struct{}, len(in))
	for _, bp := range in {
		if bp <= 0 {
			continue
		}
		if _, ok := seen[bp]; ok {
			continue
		}
		seen[bp] = struct{}{}
		out = append(out, bp)
	}
	sort.Ints(out)
	return out
}

var hundred = decimal.NewFromInt(100)

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
