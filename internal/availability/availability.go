// Package availability computes how many units of each product remain free
// over a period, given the reservations that overlap it.  Nothing here is
// persisted: results are recomputed from the current rows on every call.
package availability

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// Status tags a product or combination by how much stock is left.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusLimited     Status = "limited"
	StatusUnavailable Status = "unavailable"
)

// Overlaps reports whether [s1, e1) and [s2, e2) intersect.  Ranges that
// only touch at an endpoint do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// BlockingStatuses returns the reservation statuses that consume inventory.
func BlockingStatuses(pendingBlocks bool) []model.ReservationStatus {
	if pendingBlocks {
		return []model.ReservationStatus{model.StatusPending, model.StatusConfirmed, model.StatusOngoing}
	}
	return []model.ReservationStatus{model.StatusConfirmed, model.StatusOngoing}
}

// StatusFor classifies the remaining stock of a pool.
func StatusFor(total, available int) Status {
	switch {
	case available <= 0:
		return StatusUnavailable
	case available < total:
		return StatusLimited
	default:
		return StatusAvailable
	}
}

// Input is everything Calculate needs.  Units is keyed by product id and
// only consulted for unit-tracked products.
type Input struct {
	Start        time.Time
	End          time.Time
	Products     []model.Product
	Units        map[uint64][]model.ProductUnit
	Reservations []model.Reservation
	Blocking     []model.ReservationStatus
}

// CombinationAvailability is the stock of one attribute tuple.
type CombinationAvailability struct {
	CombinationKey     string            `json:"combinationKey"`
	SelectedAttributes map[string]string `json:"selectedAttributes"`
	TotalQuantity      int               `json:"totalQuantity"`
	ReservedQuantity   int               `json:"reservedQuantity"`
	AvailableQuantity  int               `json:"availableQuantity"`
	Status             Status            `json:"status"`

	sortKey string
}

// ProductAvailability is the stock of one product over the queried period.
type ProductAvailability struct {
	ProductID         uint64                    `json:"productId"`
	Name              string                    `json:"name"`
	TotalQuantity     int                       `json:"totalQuantity"`
	ReservedQuantity  int                       `json:"reservedQuantity"`
	AvailableQuantity int                       `json:"availableQuantity"`
	Status            Status                    `json:"status"`
	TrackUnits        bool                      `json:"trackUnits"`
	Combinations      []CombinationAvailability `json:"combinations,omitempty"`
}

// AvailableFor returns the free quantity of a combination.  Untracked
// products and the default key report the product-level figure.
func (p ProductAvailability) AvailableFor(combinationKey string) int {
	if !p.TrackUnits || combinationKey == "" || combinationKey == DefaultCombinationKey {
		return p.AvailableQuantity
	}
	for _, c := range p.Combinations {
		if c.CombinationKey == combinationKey {
			return c.AvailableQuantity
		}
	}
	return 0
}

type comboRef struct {
	productID uint64
	key       string
}

// Calculate subtracts the quantities of blocking, overlapping reservations
// from each product's stock.  Products are returned in input order.
func Calculate(in Input) []ProductAvailability {
	byProduct := make(map[uint64]int)
	byCombo := make(map[comboRef]int)

	for _, r := range in.Reservations {
		if !lo.Contains(in.Blocking, r.Status) {
			continue
		}
		// Rows come from a range query; re-check so boundary semantics
		// never depend on how the query compared timestamps.
		if !Overlaps(r.StartDate, r.EndDate, in.Start, in.End) {
			continue
		}
		for _, it := range r.Items {
			if it.ProductID == nil || it.Quantity <= 0 {
				continue
			}
			key := DefaultCombinationKey
			if it.CombinationKey != nil && *it.CombinationKey != "" {
				key = *it.CombinationKey
			}
			byProduct[*it.ProductID] += it.Quantity
			byCombo[comboRef{*it.ProductID, key}] += it.Quantity
		}
	}

	out := make([]ProductAvailability, 0, len(in.Products))
	for _, p := range in.Products {
		if p.TrackUnits {
			out = append(out, trackedAvailability(p, in.Units[p.ID], byProduct[p.ID], byCombo))
			continue
		}
		reserved := byProduct[p.ID]
		available := max(0, p.Quantity-reserved)
		out = append(out, ProductAvailability{
			ProductID:         p.ID,
			Name:              p.Name,
			TotalQuantity:     p.Quantity,
			ReservedQuantity:  reserved,
			AvailableQuantity: available,
			Status:            StatusFor(p.Quantity, available),
		})
	}
	return out
}

func trackedAvailability(p model.Product, units []model.ProductUnit, reserved int, byCombo map[comboRef]int) ProductAvailability {
	combos := make(map[string]*CombinationAvailability)
	for _, u := range units {
		if u.Status != model.UnitAvailable {
			continue
		}
		key := CombinationKey(p.BookingAttributeAxes, u.Attributes)
		c, ok := combos[key]
		if !ok {
			c = &CombinationAvailability{
				CombinationKey:     key,
				SelectedAttributes: SelectedAttributes(p.BookingAttributeAxes, u.Attributes),
				sortKey:            CombinationSortKey(p.BookingAttributeAxes, u.Attributes),
			}
			combos[key] = c
		}
		c.TotalQuantity++
	}

	list := make([]CombinationAvailability, 0, len(combos))
	matched := 0
	for key, c := range combos {
		c.ReservedQuantity = byCombo[comboRef{p.ID, key}]
		c.AvailableQuantity = max(0, c.TotalQuantity-c.ReservedQuantity)
		c.Status = StatusFor(c.TotalQuantity, c.AvailableQuantity)
		matched += c.ReservedQuantity
		list = append(list, *c)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].sortKey != list[j].sortKey {
			return list[i].sortKey < list[j].sortKey
		}
		return list[i].CombinationKey < list[j].CombinationKey
	})

	total := lo.SumBy(list, func(c CombinationAvailability) int { return c.TotalQuantity })
	available := lo.SumBy(list, func(c CombinationAvailability) int { return c.AvailableQuantity })
	// Reservations whose key matches no current combination (no key chosen,
	// or every unit of that tuple retired) still take stock from the pool.
	if unmatched := reserved - matched; unmatched > 0 {
		available = max(0, available-unmatched)
	}

	return ProductAvailability{
		ProductID:         p.ID,
		Name:              p.Name,
		TotalQuantity:     total,
		ReservedQuantity:  reserved,
		AvailableQuantity: available,
		Status:            StatusFor(total, available),
		TrackUnits:        true,
		Combinations:      list,
	}
}
