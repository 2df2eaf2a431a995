package model

import "time"

// Store is a tenant of the platform.  Every product, reservation and
// dashboard account belongs to exactly one store.  Settings holds the
// store-level knobs that influence availability and pricing.
//
// Fields:
//  ID        – primary key identifier.
//  Slug      – unique public identifier used by storefront URLs.
//  Name      – display name.
//  Timezone  – IANA timezone name (may be empty or invalid).
//  Settings  – decoded stores.settings JSON column.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Store struct {
	ID        uint64        // stores.id
	Slug      string        // stores.slug
	Name      string        // stores.name
	Timezone  string        // stores.timezone
	Settings  StoreSettings // stores.settings (JSON)
	CreatedAt time.Time     // stores.created_at
	UpdatedAt time.Time     // stores.updated_at
}

// StoreSettings is the JSON document stored alongside each store.
// PendingBlocksAvailability is a pointer so that an absent key keeps
// the default (true).
type StoreSettings struct {
	PendingBlocksAvailability *bool         `json:"pendingBlocksAvailability,omitempty"`
	AdvanceNoticeMinutes      int           `json:"advanceNoticeMinutes"`
	EnforceStrictTiers        bool          `json:"enforceStrictTiers"`
	Currency                  string        `json:"currency"`
	BusinessHours             BusinessHours `json:"businessHours"`
}

// PendingBlocks reports whether pending reservations count against
// inventory.  Defaults to true.
func (s StoreSettings) PendingBlocks() bool {
	if s.PendingBlocksAvailability == nil {
		return true
	}
	return *s.PendingBlocksAvailability
}

// BusinessHours describes a store's weekly opening schedule and its
// closure periods.  Schedule is indexed by weekday (0=Sunday..6=Saturday).
type BusinessHours struct {
	Enabled        bool            `json:"enabled"`
	Schedule       [7]DaySchedule  `json:"schedule"`
	ClosurePeriods []ClosurePeriod `json:"closurePeriods"`
}

// DaySchedule holds the opening window of one weekday.  Times are
// zero-padded "HH:MM" strings in the store's timezone.
type DaySchedule struct {
	IsOpen    bool   `json:"isOpen"`
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

// ClosurePeriod is an inclusive range of "YYYY-MM-DD" dates during which
// the store is closed.
type ClosurePeriod struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason,omitempty"`
}
