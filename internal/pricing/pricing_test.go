package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/equipment-rental/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertAmount(t *testing.T, want string, got decimal.Decimal, msg ...interface{}) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msg...)
}

var weekTiers = []Tier{
	{MinDuration: 7, DiscountPercent: dec("20")},
	{MinDuration: 3, DiscountPercent: dec("10")},
}

func TestSnap(t *testing.T) {
	bps := []int{7, 3, 1, 3, 0, -2}
	tests := []struct{ raw, want int }{
		{1, 1}, {2, 3}, {3, 3}, {4, 7}, {7, 7}, {8, 8}, {40, 40},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Snap(bps, tt.raw), "raw=%d", tt.raw)
	}
	assert.Equal(t, 5, Snap(nil, 5))
}

func TestCalculateTiered_StrictExample(t *testing.T) {
	r := CalculateTiered(dec("15"), weekTiers, 5, 1, true)
	assert.Equal(t, 7, r.Duration)
	assert.Equal(t, 5, r.RawDuration)
	assert.True(t, r.Snapped)
	assertAmount(t, "20.00", r.DiscountPercent)
	assertAmount(t, "105.00", r.OriginalSubtotal)
	assertAmount(t, "84.00", r.Subtotal)
	assertAmount(t, "21.00", r.Savings)
	assert.Equal(t, 7, r.AppliedBreakpoint)
}

func TestCalculateTiered_NotStrict(t *testing.T) {
	r := CalculateTiered(dec("15"), weekTiers, 5, 2, false)
	assert.Equal(t, 5, r.Duration)
	assert.False(t, r.Snapped)
	assertAmount(t, "10.00", r.DiscountPercent)
	assertAmount(t, "150.00", r.OriginalSubtotal)
	assertAmount(t, "135.00", r.Subtotal)
	assertAmount(t, "15.00", r.Savings)
}

func TestCalculateTiered_BelowFirstTier(t *testing.T) {
	r := CalculateTiered(dec("15"), weekTiers, 1, 1, true)
	assert.Equal(t, 1, r.Duration)
	assert.False(t, r.Snapped)
	assert.True(t, r.DiscountPercent.IsZero())
	assertAmount(t, "15.00", r.Subtotal)
	assert.Equal(t, 0, r.AppliedBreakpoint)

	snapped := CalculateTiered(dec("15"), weekTiers, 2, 1, true)
	assert.Equal(t, 3, snapped.Duration)
	assertAmount(t, "40.50", snapped.Subtotal)
}

func TestCalculateTiered_BeyondLargestTier(t *testing.T) {
	r := CalculateTiered(dec("15"), weekTiers, 12, 1, true)
	assert.Equal(t, 12, r.Duration)
	assert.False(t, r.Snapped)
	assertAmount(t, "20.00", r.DiscountPercent)
	assertAmount(t, "144.00", r.Subtotal)
}

func TestCalculateTiered_NoTiers(t *testing.T) {
	r := CalculateTiered(dec("9.99"), nil, 3, 1, true)
	assert.Equal(t, 3, r.Duration)
	assertAmount(t, "29.97", r.Subtotal)
	assert.True(t, r.Savings.IsZero())
}

func TestCalculateTiered_ClampsInputs(t *testing.T) {
	r := CalculateTiered(dec("10"), nil, 0, -3, false)
	assert.Equal(t, 1, r.Duration)
	assert.Equal(t, 1, r.Quantity)
	assertAmount(t, "10.00", r.Subtotal)

	over := CalculateTiered(dec("10"), []Tier{{MinDuration: 1, DiscountPercent: dec("150")}}, 2, 1, false)
	assert.False(t, over.Subtotal.IsNegative())
	assertAmount(t, "100.00", over.DiscountPercent)
}

func TestCalculateTiered_Monotonic(t *testing.T) {
	tiers := []Tier{
		{MinDuration: 2, DiscountPercent: dec("5")},
		{MinDuration: 5, DiscountPercent: dec("12.5")},
		{MinDuration: 14, DiscountPercent: dec("30")},
	}
	for _, strict := range []bool{false, true} {
		prev := decimal.Zero
		for d := 1; d <= 30; d++ {
			r := CalculateTiered(dec("20"), tiers, d, 1, strict)
			assert.False(t, r.DiscountPercent.LessThan(prev), "strict=%v d=%d", strict, d)
			assert.GreaterOrEqual(t, r.Duration, d)
			prev = r.DiscountPercent
		}
	}
}

func TestCalculateTiered_Idempotent(t *testing.T) {
	a := CalculateTiered(dec("15"), weekTiers, 5, 3, true)
	b := CalculateTiered(dec("15"), weekTiers, 5, 3, true)
	assert.Equal(t, a, b)
}

func TestTierSchedule_Select(t *testing.T) {
	s := NewTierSchedule(dec("1"), 1, weekTiers)
	_, ok := s.Select(2)
	assert.False(t, ok)
	tier, ok := s.Select(6)
	require.True(t, ok)
	assert.Equal(t, 3, tier.MinDuration)
	tier, ok = s.Select(100)
	require.True(t, ok)
	assert.Equal(t, 7, tier.MinDuration)
	assert.Equal(t, []int{1, 3, 7}, s.Breakpoints())
}

var hourlyRates = []Rate{
	{PeriodMinutes: 1440, Price: dec("100")},
	{PeriodMinutes: 240, Price: dec("30")},
}

func TestCalculateRate_Proportional(t *testing.T) {
	r := CalculateRate(dec("10"), 60, hourlyRates, 300, 1, false)
	assert.Equal(t, 300, r.Duration)
	assert.Equal(t, 240, r.AppliedBreakpoint)
	assertAmount(t, "50.00", r.OriginalSubtotal)
	assertAmount(t, "37.50", r.Subtotal)
	assertAmount(t, "12.50", r.Savings)
	assertAmount(t, "25.00", r.DiscountPercent)
}

func TestCalculateRate_StrictSnapsToPeriod(t *testing.T) {
	r := CalculateRate(dec("10"), 60, hourlyRates, 300, 1, true)
	assert.Equal(t, 1440, r.Duration)
	assert.True(t, r.Snapped)
	assertAmount(t, "100.00", r.Subtotal)
	assertAmount(t, "240.00", r.OriginalSubtotal)
	assertAmount(t, "140.00", r.Savings)
	assertAmount(t, "58.33", r.DiscountPercent)

	short := CalculateRate(dec("10"), 60, hourlyRates, 30, 2, true)
	assert.Equal(t, 60, short.Duration)
	assert.Equal(t, 0, short.AppliedBreakpoint)
	assertAmount(t, "20.00", short.Subtotal)
	assert.True(t, short.Savings.IsZero())
}

func TestCalculateRate_BeyondLargestPeriod(t *testing.T) {
	r := CalculateRate(dec("10"), 60, hourlyRates, 2000, 1, true)
	assert.Equal(t, 2000, r.Duration)
	assert.False(t, r.Snapped)
	assert.Equal(t, 1440, r.AppliedBreakpoint)
	assertAmount(t, "138.89", r.Subtotal)
}

func TestCalculateRate_ExpensiveRateHasNoNegativeSavings(t *testing.T) {
	rates := []Rate{{PeriodMinutes: 120, Price: dec("50")}}
	r := CalculateRate(dec("10"), 60, rates, 120, 1, false)
	assertAmount(t, "50.00", r.Subtotal)
	assert.True(t, r.Savings.IsZero())
	assert.True(t, r.DiscountPercent.IsZero())
}

func TestCalculateRate_BreakpointsIncludeBase(t *testing.T) {
	s := NewRateSchedule(dec("10"), 60, 1, append(hourlyRates, Rate{PeriodMinutes: 0, Price: dec("1")}))
	assert.Equal(t, []int{60, 240, 1440}, s.Breakpoints())
}

func TestDurationUnits(t *testing.T) {
	start := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DurationUnits(start, start, model.PricingDay))
	assert.Equal(t, 1, DurationUnits(start, start.Add(24*time.Hour), model.PricingDay))
	assert.Equal(t, 2, DurationUnits(start, start.Add(25*time.Hour), model.PricingDay))
	assert.Equal(t, 2, DurationUnits(start, start.Add(90*time.Minute), model.PricingHour))
	assert.Equal(t, 2, DurationUnits(start, start.AddDate(0, 0, 8), model.PricingWeek))
	assert.Equal(t, 3, DurationUnits(start, start.AddDate(0, 0, 3), ""))
	assert.Equal(t, 90, DurationMinutes(start, start.Add(90*time.Minute)))
	assert.Equal(t, 1, DurationMinutes(start, start))
}

func TestDurationUnits_CalendarDaysAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	fallBack := time.Date(2026, 10, 24, 10, 0, 0, 0, berlin)
	end := time.Date(2026, 10, 25, 10, 0, 0, 0, berlin)
	require.Equal(t, 25*time.Hour, end.Sub(fallBack))
	assert.Equal(t, 1, DurationUnits(fallBack, end, model.PricingDay))
	assert.Equal(t, 1, DurationUnits(fallBack, end.UTC(), model.PricingDay), "end is read in start's location")
	assert.Equal(t, 2, DurationUnits(fallBack, end.Add(time.Minute), model.PricingDay))
	assert.Equal(t, 25, DurationUnits(fallBack, end, model.PricingHour))

	springForward := time.Date(2026, 3, 28, 10, 0, 0, 0, berlin)
	assert.Equal(t, 1, DurationUnits(springForward, springForward.AddDate(0, 0, 1), model.PricingDay))
	assert.Equal(t, 1, DurationUnits(springForward, springForward.AddDate(0, 0, 7), model.PricingWeek))
}

func TestQuoteProduct(t *testing.T) {
	start := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)
	p := model.Product{
		ID:          4,
		Price:       dec("15"),
		Deposit:     dec("50"),
		PricingMode: model.PricingDay,
		Tiers: []model.PricingTier{
			{MinDuration: 3, DiscountPercent: dec("10")},
			{MinDuration: 7, DiscountPercent: dec("20")},
		},
	}
	q := QuoteProduct(p, start, start.AddDate(0, 0, 5), 1, true)
	assert.False(t, q.RateBased)
	assert.Equal(t, model.PricingDay, q.PricingUnit)
	assertAmount(t, "84.00", q.Subtotal)
	assertAmount(t, "50.00", q.Deposit)

	period := 60
	price := dec("25")
	rateProduct := model.Product{
		ID:                5,
		Price:             dec("10"),
		Deposit:           dec("20"),
		BasePeriodMinutes: &period,
		Tiers:             []model.PricingTier{{Period: ptrInt(240), Price: &price}},
	}
	rq := QuoteProduct(rateProduct, start, start.Add(4*time.Hour), 2, false)
	assert.True(t, rq.RateBased)
	assertAmount(t, "50.00", rq.Subtotal)
	assertAmount(t, "80.00", rq.OriginalSubtotal)
	assertAmount(t, "40.00", rq.Deposit)
}

func ptrInt(v int) *int { return &v }
