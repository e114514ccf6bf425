// Package surcharge evaluates carrier surcharge catalogues. A catalogue is
// data: every carrier-specific condition lives in declarative Rule objects
// consumed by one shared evaluator, never in per-carrier code branches.
package surcharge

import (
	"time"

	"github.com/shopspring/decimal"

	"parcel-cost/internal/zone"
)

// FormulaKind selects how a triggered rule's amount is computed.
type FormulaKind string

const (
	FormulaFlat     FormulaKind = "flat"      // constant fee
	FormulaPerPound FormulaKind = "per_pound" // rate × billable weight
	FormulaTable    FormulaKind = "table"     // weight-tier × zone lookup
)

// Formula computes a triggered rule's amount. Table formulas reference an
// auxiliary carrier table by name; the reference is checked at config load.
type Formula struct {
	Kind      FormulaKind
	Amount    decimal.Decimal // flat fee, or per-pound rate
	TableName string          // FormulaTable only
}

// Window is an inclusive calendar-date validity range. Rules without a
// window are always eligible; a windowed rule alongside an always-on
// counterpart models a demand-period surcharge layered atop the standard
// one, and both fire unless the catalogue groups them.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the ship date falls inside the window. Only the
// calendar date matters, not the time of day.
func (w Window) Contains(day time.Time) bool {
	d := day.Truncate(24 * time.Hour)
	return !d.Before(w.Start.Truncate(24*time.Hour)) && !d.After(w.End.Truncate(24*time.Hour))
}

// Trigger is a conjunction of declarative conditions over the shipment's
// resolved rating facts. Nil fields are unconstrained; a zero-value Trigger
// matches every shipment.
type Trigger struct {
	MinBillableWeight *float64 // strictly greater than
	MaxBillableWeight *float64 // at most
	MinActualWeight   *float64 // strictly greater than
	MinLongestSide    *float64 // strictly greater than, inches
	MinGirthLength    *float64 // strictly greater than, inches
	MinVolume         *float64 // strictly greater than, cubic inches
	Zones             []int    // membership, empty means any
	MinZone           *int     // at least
	AreaClasses       []zone.AreaClass
}

// Facts are the resolved rating inputs a trigger is evaluated against.
type Facts struct {
	ActualWeightLbs   float64
	BillableWeightLbs float64
	LongestSideIn     float64
	GirthPlusLengthIn float64
	VolumeCuIn        float64
	Zone              int
	Area              zone.AreaClass
	ShipDate          time.Time
}

// Matches evaluates the conjunction against the facts.
func (t Trigger) Matches(f Facts) bool {
	if t.MinBillableWeight != nil && f.BillableWeightLbs <= *t.MinBillableWeight {
		return false
	}
	if t.MaxBillableWeight != nil && f.BillableWeightLbs > *t.MaxBillableWeight {
		return false
	}
	if t.MinActualWeight != nil && f.ActualWeightLbs <= *t.MinActualWeight {
		return false
	}
	if t.MinLongestSide != nil && f.LongestSideIn <= *t.MinLongestSide {
		return false
	}
	if t.MinGirthLength != nil && f.GirthPlusLengthIn <= *t.MinGirthLength {
		return false
	}
	if t.MinVolume != nil && f.VolumeCuIn <= *t.MinVolume {
		return false
	}
	if len(t.Zones) > 0 && !containsInt(t.Zones, f.Zone) {
		return false
	}
	if t.MinZone != nil && f.Zone < *t.MinZone {
		return false
	}
	if len(t.AreaClasses) > 0 && !containsArea(t.AreaClasses, f.Area) {
		return false
	}
	return true
}

// Rule is one catalogue entry. Catalogue position is the rule's default
// priority and its position in the itemized output.
type Rule struct {
	ID       string
	Trigger  Trigger
	Formula  Formula
	Window   *Window // nil means always active
	Group    string  // exclusivity group, "" means none
	Priority *int    // overrides catalogue order within the group, lower wins
	Discount bool    // negative line item, excluded from some fuel bases
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func containsArea(xs []zone.AreaClass, x zone.AreaClass) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
