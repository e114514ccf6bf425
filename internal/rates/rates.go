// Package rates provides weight-tier by zone charge tables: the base
// transportation rate card and table-priced surcharges share the same shape.
package rates

import (
	"math"

	"github.com/shopspring/decimal"

	raterr "parcel-cost/pkg/errors"
)

// Table is a weight-tier by zone charge table. Tiers are integer pounds;
// fractional billable weights round up to the next tier before lookup.
type Table struct {
	charges map[int]map[int]decimal.Decimal // tier -> zone -> charge
	maxTier int
}

// NewTable creates an empty rate table.
func NewTable() *Table {
	return &Table{charges: make(map[int]map[int]decimal.Decimal)}
}

// Add registers the charge for a weight tier and zone.
func (t *Table) Add(tier, zone int, charge decimal.Decimal) {
	zones, ok := t.charges[tier]
	if !ok {
		zones = make(map[int]decimal.Decimal)
		t.charges[tier] = zones
	}
	zones[zone] = charge
	if tier > t.maxTier {
		t.maxTier = tier
	}
}

// MaxTier returns the highest weight tier present.
func (t *Table) MaxTier() int {
	return t.maxTier
}

// Len returns the number of (tier, zone) cells.
func (t *Table) Len() int {
	n := 0
	for _, zones := range t.charges {
		n += len(zones)
	}
	return n
}

// Tier buckets a billable weight into the table's tier granularity,
// rounding fractional pounds up.
func Tier(weightLbs float64) int {
	return int(math.Ceil(weightLbs))
}

// Lookup resolves the charge for a billable weight and zone. It fails with
// RATE_NOT_FOUND when the weight exceeds the table's maximum tier or the
// zone is absent; it never extrapolates or defaults to zero.
func (t *Table) Lookup(weightLbs float64, zone int) (decimal.Decimal, error) {
	tier := Tier(weightLbs)
	zones, ok := t.charges[tier]
	if !ok {
		return decimal.Zero, raterr.NewRateNotFound(tier, zone)
	}
	charge, ok := zones[zone]
	if !ok {
		return decimal.Zero, raterr.NewRateNotFound(tier, zone)
	}
	return charge, nil
}
