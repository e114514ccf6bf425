// Package carrier holds per-carrier rating configuration: dimensional-weight
// policy, fuel policy, zone and rate tables, and the surcharge catalogue.
// Configs are loaded once, validated, and treated as read-only for the life
// of the process; concurrent batch runs share one instance.
package carrier

import (
	"fmt"

	"github.com/shopspring/decimal"

	"parcel-cost/internal/parcel"
	"parcel-cost/internal/rates"
	"parcel-cost/internal/surcharge"
	"parcel-cost/internal/zone"
	raterr "parcel-cost/pkg/errors"
)

// FuelApplication selects where the fuel percentage applies in the cost
// computation. The two modes are not interchangeable; the wrong one changes
// totals materially.
type FuelApplication string

const (
	// FuelBasePlusSurcharges applies fuel to base plus all non-discount
	// surcharges; discount line items are excluded from the fuel base.
	FuelBasePlusSurcharges FuelApplication = "base_plus_surcharges"
	// FuelLast applies fuel to the subtotal of everything else, discounts
	// included, as the final line item.
	FuelLast FuelApplication = "last"
)

// Config is one carrier's complete rating configuration.
type Config struct {
	Name string

	// Dimensional weight policy. ThresholdMetric feeds the strict-> check
	// against DimThreshold (0 means always compare); FactorMetric divided by
	// DimFactor gives the dimensional weight. The two metrics may differ.
	DimFactor       float64
	DimThreshold    float64
	ThresholdMetric parcel.DimMetric
	FactorMetric    parcel.DimMetric

	// Fuel policy. FuelRate is the effective fraction after any contract
	// discount (list rate × retained share).
	FuelRate        decimal.Decimal
	FuelApplication FuelApplication

	// MaxWeightLbs is advisory. Shipments above it still rate through the
	// standard path; the CLI warns, the engine does not.
	MaxWeightLbs float64

	Zones     *zone.Table
	BaseRates *rates.Table
	Rules     []surcharge.Rule

	// Tables holds auxiliary weight×zone tables referenced by name from
	// table-priced surcharge rules.
	Tables map[string]*rates.Table
}

// Validate detects internal inconsistencies at load time, before any
// shipment is evaluated, so a bad shipment never masks a systemic
// configuration bug.
func (c *Config) Validate() error {
	if c.Name == "" {
		return raterr.NewConfiguration("carrier name is required")
	}
	if c.DimFactor <= 0 {
		return raterr.NewConfiguration(fmt.Sprintf("%s: dim factor must be positive, got %v", c.Name, c.DimFactor))
	}
	if c.DimThreshold < 0 {
		return raterr.NewConfiguration(fmt.Sprintf("%s: dim threshold must not be negative, got %v", c.Name, c.DimThreshold))
	}
	if !parcel.KnownMetric(c.ThresholdMetric) {
		return raterr.NewConfiguration(fmt.Sprintf("%s: unknown threshold metric %q", c.Name, c.ThresholdMetric))
	}
	if !parcel.KnownMetric(c.FactorMetric) {
		return raterr.NewConfiguration(fmt.Sprintf("%s: unknown factor metric %q", c.Name, c.FactorMetric))
	}
	if c.FuelRate.IsNegative() {
		return raterr.NewConfiguration(fmt.Sprintf("%s: fuel rate must not be negative, got %s", c.Name, c.FuelRate))
	}
	switch c.FuelApplication {
	case FuelBasePlusSurcharges, FuelLast:
	default:
		return raterr.NewConfiguration(fmt.Sprintf("%s: unknown fuel application mode %q", c.Name, c.FuelApplication))
	}
	if c.Zones == nil || c.Zones.Len() == 0 {
		return raterr.NewConfiguration(fmt.Sprintf("%s: zone table is empty", c.Name))
	}
	if c.BaseRates == nil || c.BaseRates.Len() == 0 {
		return raterr.NewConfiguration(fmt.Sprintf("%s: base rate table is empty", c.Name))
	}

	seen := make(map[string]bool, len(c.Rules))
	for _, r := range c.Rules {
		if r.ID == "" {
			return raterr.NewConfiguration(fmt.Sprintf("%s: surcharge rule with empty id", c.Name))
		}
		if seen[r.ID] {
			return raterr.NewConfiguration(fmt.Sprintf("%s: duplicate surcharge rule id %q", c.Name, r.ID))
		}
		seen[r.ID] = true

		switch r.Formula.Kind {
		case surcharge.FormulaFlat, surcharge.FormulaPerPound:
			if r.Formula.Amount.IsNegative() {
				return raterr.NewConfiguration(fmt.Sprintf("%s: rule %q amount must be declared non-negative (discounts use the discount flag)", c.Name, r.ID))
			}
		case surcharge.FormulaTable:
			if c.Tables[r.Formula.TableName] == nil {
				return raterr.NewConfiguration(fmt.Sprintf("%s: rule %q references missing table %q", c.Name, r.ID, r.Formula.TableName))
			}
		default:
			return raterr.NewConfiguration(fmt.Sprintf("%s: rule %q has unknown formula kind %q", c.Name, r.ID, r.Formula.Kind))
		}

		if r.Window != nil && r.Window.End.Before(r.Window.Start) {
			return raterr.NewConfiguration(fmt.Sprintf("%s: rule %q validity window ends before it starts", c.Name, r.ID))
		}
		if r.Priority != nil && r.Group == "" {
			return raterr.NewConfiguration(fmt.Sprintf("%s: rule %q has a priority but no exclusivity group", c.Name, r.ID))
		}
	}
	return nil
}
