package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingMode is the unit a duration-tier product is priced in.
type PricingMode string

const (
	PricingHour PricingMode = "hour"
	PricingDay  PricingMode = "day"
	PricingWeek PricingMode = "week"
)

// ProductStatus marks whether a product is offered on the storefront.
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductArchived ProductStatus = "archived"
)

// UnitStatus is the lifecycle state of a single tracked unit.
type UnitStatus string

const (
	UnitAvailable   UnitStatus = "available"
	UnitMaintenance UnitStatus = "maintenance"
	UnitRetired     UnitStatus = "retired"
)

// Product is a rentable item of a store.  When TrackUnits is set the
// inventory is the set of ProductUnit rows in `available` status; otherwise
// Quantity is the pooled stock.  A non-nil BasePeriodMinutes switches the
// product to rate-based pricing.
//
// Fields:
//  ID                 – primary key identifier.
//  StoreID            – owning store.
//  Name               – display name.
//  Price              – base price per pricing unit (or per base period).
//  Deposit            – deposit required per unit.
//  Quantity           – pooled stock when TrackUnits is false.
//  TrackUnits         – unit-level inventory flag.
//  PricingMode        – hour/day/week for duration-tier pricing.
//  BasePeriodMinutes  – rate-based pricing granularity (nullable).
//  BookingAttributeAxes – ordered attribute dimensions of tracked units.
//  Status             – active/archived.
//  Tiers              – pricing tiers loaded from product_pricing_tiers.
type Product struct {
	ID                   uint64          // products.id
	StoreID              uint64          // products.store_id
	Name                 string          // products.name
	Price                decimal.Decimal // products.price
	Deposit              decimal.Decimal // products.deposit
	Quantity             int             // products.quantity
	TrackUnits           bool            // products.track_units
	PricingMode          PricingMode     // products.pricing_mode
	BasePeriodMinutes    *int            // products.base_period_minutes (nullable)
	BookingAttributeAxes []AttributeAxis // products.booking_attribute_axes (JSON)
	Status               ProductStatus   // products.status
	Tiers                []PricingTier   // product_pricing_tiers rows
	CreatedAt            time.Time       // products.created_at
	UpdatedAt            time.Time       // products.updated_at
}

// IsRateBased reports whether the product uses explicit period/price rates.
func (p Product) IsRateBased() bool {
	return p.BasePeriodMinutes != nil && *p.BasePeriodMinutes > 0
}

// AttributeAxis is one dimension of a unit-tracked product (e.g. size).
type AttributeAxis struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ProductUnit is one physical item of a unit-tracked product.
type ProductUnit struct {
	ID         uint64            // product_units.id
	ProductID  uint64            // product_units.product_id
	Identifier string            // product_units.identifier (serial, label)
	Status     UnitStatus        // product_units.status
	Attributes map[string]string // product_units.attributes (JSON)
}

// PricingTier is a discount bracket or, for rate-based products, an
// explicit rate.  MinDuration is expressed in the product's pricing unit;
// Period is in minutes.
type PricingTier struct {
	ID              uint64           // product_pricing_tiers.id
	ProductID       uint64           // product_pricing_tiers.product_id
	MinDuration     int              // product_pricing_tiers.min_duration
	DiscountPercent decimal.Decimal  // product_pricing_tiers.discount_percent
	Period          *int             // product_pricing_tiers.period (nullable)
	Price           *decimal.Decimal // product_pricing_tiers.price (nullable)
	DisplayOrder    int              // product_pricing_tiers.display_order
}
