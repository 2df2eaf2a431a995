package businesshours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/equipment-rental/internal/model"
)

func weekdayHours() model.BusinessHours {
	h := model.BusinessHours{Enabled: true}
	for d := 1; d <= 6; d++ {
		h.Schedule[d] = model.DaySchedule{IsOpen: true, OpenTime: "09:00", CloseTime: "18:00"}
	}
	h.Schedule[0] = model.DaySchedule{IsOpen: false}
	return h
}

func TestValidateInstant(t *testing.T) {
	hours := weekdayHours()
	hours.ClosurePeriods = []model.ClosurePeriod{{StartDate: "2026-12-24", EndDate: "2026-12-26"}}

	tests := []struct {
		name string
		at   time.Time
		want Result
	}{
		{"open friday", time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC), Result{Valid: true}},
		{"sunday closed", time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC), Result{Reason: ReasonDayClosed}},
		{"before opening", time.Date(2026, 10, 16, 8, 59, 0, 0, time.UTC), Result{Reason: ReasonOutsideHours}},
		{"opening bound inclusive", time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC), Result{Valid: true}},
		{"closing bound inclusive", time.Date(2026, 10, 16, 18, 0, 59, 0, time.UTC), Result{Valid: true}},
		{"after closing", time.Date(2026, 10, 16, 18, 1, 0, 0, time.UTC), Result{Reason: ReasonOutsideHours}},
		{"closure first day", time.Date(2026, 12, 24, 10, 0, 0, 0, time.UTC), Result{Reason: ReasonClosurePeriod}},
		{"closure last day", time.Date(2026, 12, 26, 10, 0, 0, 0, time.UTC), Result{Reason: ReasonClosurePeriod}},
		{"after closure", time.Date(2026, 12, 28, 10, 0, 0, 0, time.UTC), Result{Valid: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateInstant(tt.at, hours, "UTC"))
		})
	}
}

func TestValidateInstant_Disabled(t *testing.T) {
	hours := weekdayHours()
	hours.Enabled = false
	sunday := time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)
	assert.True(t, ValidateInstant(sunday, hours, "UTC").Valid)
}

func TestValidateInstant_UsesStoreTimezone(t *testing.T) {
	hours := weekdayHours()
	// 23:30 UTC on Sunday is 01:30 Monday in Paris (CEST).
	at := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, Result{Reason: ReasonDayClosed}, ValidateInstant(at, hours, "UTC"))
	assert.Equal(t, Result{Reason: ReasonOutsideHours}, ValidateInstant(at, hours, "Europe/Paris"))
}

func TestResolveLocation_Fallback(t *testing.T) {
	assert.Equal(t, time.Local, ResolveLocation(""))
	assert.Equal(t, time.Local, ResolveLocation("Not/AZone"))
	loc := ResolveLocation("Europe/Paris")
	require.NotNil(t, loc)
	assert.Equal(t, "Europe/Paris", loc.String())
}

func TestValidateInstant_InvalidTimezoneDoesNotPanic(t *testing.T) {
	hours := weekdayHours()
	assert.NotPanics(t, func() {
		ValidateInstant(time.Now(), hours, "Mars/Olympus")
	})
}

func TestValidatePeriod(t *testing.T) {
	hours := weekdayHours()
	start := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC) // Sunday
	end := time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)   // Monday evening

	res := ValidatePeriod(start, end, hours, "UTC")
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"pickup_day_closed", "return_outside_hours"}, res.Errors)

	ok := ValidatePeriod(start.AddDate(0, 0, 1), end.Add(-3*time.Hour), hours, "UTC")
	assert.True(t, ok.Valid)
	assert.Empty(t, ok.Errors)
}

func TestInClosure(t *testing.T) {
	p := model.ClosurePeriod{StartDate: "2026-08-01", EndDate: "2026-08-15"}
	assert.True(t, InClosure("2026-08-01", p))
	assert.True(t, InClosure("2026-08-10", p))
	assert.True(t, InClosure("2026-08-15", p))
	assert.False(t, InClosure("2026-07-31", p))
	assert.False(t, InClosure("2026-08-16", p))
	assert.False(t, InClosure("2026-08-10", model.ClosurePeriod{}))
}
