// Package businesshours decides whether an instant falls inside a store's
// opening hours.  All checks are made in the store's local timezone.
package businesshours

import (
	"time"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// Reason explains why an instant was rejected.
type Reason string

const (
	ReasonClosurePeriod Reason = "closure_period"
	ReasonDayClosed     Reason = "day_closed"
	ReasonOutsideHours  Reason = "outside_hours"
)

const (
	dateKeyLayout = "2006-01-02"
	clockLayout   = "15:04"
)

// Result is the outcome of validating a single instant.
type Result struct {
	Valid  bool   `json:"valid"`
	Reason Reason `json:"reason,omitempty"`
}

// PeriodResult is the outcome of validating a pickup/return pair.  Errors
// holds prefixed reasons such as "pickup_day_closed".
type PeriodResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ResolveLocation loads an IANA timezone.  Empty or unknown names fall
// back to the process local zone instead of failing.
func ResolveLocation(tz string) *time.Location {
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}

// ValidateInstant reports whether t is within the configured hours.
func ValidateInstant(t time.Time, hours model.BusinessHours, tz string) Result {
	if !hours.Enabled {
		return Result{Valid: true}
	}
	local := t.In(ResolveLocation(tz))

	dateKey := local.Format(dateKeyLayout)
	for _, p := range hours.ClosurePeriods {
		if InClosure(dateKey, p) {
			return Result{Valid: false, Reason: ReasonClosurePeriod}
		}
	}

	day := hours.Schedule[int(local.Weekday())]
	if !day.IsOpen {
		return Result{Valid: false, Reason: ReasonDayClosed}
	}

	clock := local.Format(clockLayout)
	if clock < day.OpenTime || clock > day.CloseTime {
		return Result{Valid: false, Reason: ReasonOutsideHours}
	}
	return Result{Valid: true}
}

// ValidatePeriod validates the pickup and return instants of a rental and
// merges their failures.
func ValidatePeriod(start, end time.Time, hours model.BusinessHours, tz string) PeriodResult {
	errs := make([]string, 0, 2)
	if r := ValidateInstant(start, hours, tz); !r.Valid {
		errs = append(errs, "pickup_"+string(r.Reason))
	}
	if r := ValidateInstant(end, hours, tz); !r.Valid {
		errs = append(errs, "return_"+string(r.Reason))
	}
	return PeriodResult{Valid: len(errs) == 0, Errors: errs}
}

// InClosure reports whether a YYYY-MM-DD key lies within an inclusive
// closure period.  Zero-padded date strings order lexically.
func InClosure(dateKey string, p model.ClosurePeriod) bool {
	if p.StartDate == "" || p.EndDate == "" {
		return false
	}
	return dateKey >= p.StartDate && dateKey <= p.EndDate
}
