package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/equipment-rental/internal/queue"
)

const publishTimeout = 3 * time.Second

// localLayouts carry no offset and are read in the store timezone.
var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// ParseInstant accepts an ISO datetime (with or without offset) or a plain
// YYYY-MM-DD date.  Values without an offset are read in loc; a plain date
// is midnight in loc.
func ParseInstant(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: missing date", ErrInvalidPeriod)
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparsable date %q", ErrInvalidPeriod, raw)
}

// ParsePeriod parses both bounds and rejects end <= start.
func ParsePeriod(startRaw, endRaw string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := ParseInstant(startRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseInstant(endRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end must be after start", ErrInvalidPeriod)
	}
	return start, end, nil
}

// publish sends ev within a short budget.  The write it describes has
// already been committed, so a failure is only logged by the publisher.
func publish(ctx context.Context, pub EventPublisher, ev queue.Event) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	_ = pub.Publish(ctx, ev)
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }
