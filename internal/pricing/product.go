package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// Quote is the price of renting a product for a period.
type Quote struct {
	ProductID   uint64            `json:"productId"`
	RateBased   bool              `json:"rateBased"`
	PricingUnit model.PricingMode `json:"pricingUnit,omitempty"`
	Result
	Deposit decimal.Decimal `json:"deposit"`
}

// DurationUnits converts [start, end) into whole pricing units, rounding
// up and never returning less than one.  Days and weeks are calendar days
// in start's location, so a day that gains or loses an hour to a DST
// change still counts as one day.
func DurationUnits(start, end time.Time, mode model.PricingMode) int {
	if mode == model.PricingHour {
		return max(1, int(math.Ceil(end.Sub(start).Hours()-1e-9)))
	}
	step := 1
	if mode == model.PricingWeek {
		step = 7
	}
	end = end.In(start.Location())
	n := civilDays(start, end) / step
	for start.AddDate(0, 0, n*step).Before(end) {
		n++
	}
	return max(1, n)
}

// civilDays is the number of date changes between a and b.
func civilDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// DurationMinutes converts [start, end) into whole minutes, rounding up
// and never returning less than one.
func DurationMinutes(start, end time.Time) int {
	return max(1, int(math.Ceil(end.Sub(start).Minutes()-1e-9)))
}

// TiersFromModel keeps the discount tiers of a product.
func TiersFromModel(in []model.PricingTier) []Tier {
	out := make([]Tier, 0, len(in))
	for _, t := range in {
		if t.MinDuration <= 0 {
			continue
		}
		out = append(out, Tier{MinDuration: t.MinDuration, DiscountPercent: t.DiscountPercent})
	}
	return out
}

// RatesFromModel keeps the explicit period/price entries of a product.
func RatesFromModel(in []model.PricingTier) []Rate {
	out := make([]Rate, 0, len(in))
	for _, t := range in {
		if t.Period == nil || t.Price == nil {
			continue
		}
		out = append(out, Rate{PeriodMinutes: *t.Period, Price: *t.Price})
	}
	return out
}

// QuoteProduct prices quantity units of p over [start, end).  Pass the
// bounds in the store's location so day counts follow its calendar.
func QuoteProduct(p model.Product, start, end time.Time, quantity int, strictTiers bool) Quote {
	quantity = max(1, quantity)
	q := Quote{
		ProductID: p.ID,
		Deposit:   p.Deposit.Mul(decimal.NewFromInt(int64(quantity))),
	}
	if p.IsRateBased() {
		q.RateBased = true
		q.Result = CalculateRate(p.Price, *p.BasePeriodMinutes, RatesFromModel(p.Tiers),
			DurationMinutes(start, end), quantity, strictTiers)
		return q
	}
	mode := p.PricingMode
	if mode == "" {
		mode = model.PricingDay
	}
	q.PricingUnit = mode
	q.Result = CalculateTiered(p.Price, TiersFromModel(p.Tiers),
		DurationUnits(start, end, mode), quantity, strictTiers)
	return q
}
