package carrier

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"parcel-cost/internal/parcel"
	"parcel-cost/internal/rates"
	"parcel-cost/internal/surcharge"
	"parcel-cost/internal/zone"
)

// Builtin returns a validated built-in carrier config by name. The built-in
// catalogue covers the three contracted carriers; externally converted rate
// sheets load through LoadFile instead.
func Builtin(name string) (*Config, error) {
	var cfg *Config
	switch name {
	case "lonestar":
		cfg = lonestarConfig()
	case "postal":
		cfg = postalConfig()
	case "maersk-lcl":
		cfg = maerskConfig()
	default:
		return nil, fmt.Errorf("unknown carrier %q (built-ins: %v)", name, BuiltinNames())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BuiltinNames lists the built-in carrier names, sorted.
func BuiltinNames() []string {
	names := []string{"lonestar", "postal", "maersk-lcl"}
	sort.Strings(names)
	return names
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func fp(v float64) *float64      { return &v }

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// lonestarConfig is the regional ground carrier. It ships from two Texas
// production sites, so its zone table is per-origin, and its contract
// applies fuel to base plus surcharges with discounts excluded.
func lonestarConfig() *Config {
	zones := zone.NewTable()
	for _, site := range []parcel.OriginSite{"dallas", "elpaso"} {
		for prefix, e := range map[string]zone.Entry{
			"75":  {Zone: 2},
			"76":  {Zone: 2},
			"77":  {Zone: 3},
			"78":  {Zone: 4},
			"79":  {Zone: 4},
			"870": {Zone: 5, Area: zone.AreaDAS},
			"871": {Zone: 5},
			"873": {Zone: 6, Area: zone.AreaExtendedDAS},
		} {
			// El Paso sits a zone closer to New Mexico prefixes.
			z := e.Zone
			if site == "elpaso" && prefix[0] == '8' && z > 2 {
				z--
			}
			zones.Add(prefix, site, z, e.Area)
		}
	}

	base := rates.NewTable()
	for tier := 1; tier <= 50; tier++ {
		for z := 2; z <= 6; z++ {
			// Rate card: $6.10 floor, 42¢/lb, 55¢ per zone step.
			charge := d("6.10").
				Add(d("0.42").Mul(decimal.NewFromInt(int64(tier - 1)))).
				Add(d("0.55").Mul(decimal.NewFromInt(int64(z - 2))))
			base.Add(tier, z, charge)
		}
	}

	return &Config{
		Name:            "lonestar",
		DimFactor:       250,
		DimThreshold:    1728,
		ThresholdMetric: parcel.MetricCubicVolume,
		FactorMetric:    parcel.MetricCubicVolume,
		FuelRate:        d("0.105"),
		FuelApplication: FuelBasePlusSurcharges,
		MaxWeightLbs:    150,
		Zones:           zones,
		BaseRates:       base,
		Rules: []surcharge.Rule{
			{
				ID:      "das",
				Group:   "delivery-area",
				Trigger: surcharge.Trigger{AreaClasses: []zone.AreaClass{zone.AreaDAS}},
				Formula: surcharge.Formula{Kind: surcharge.FormulaFlat, Amount: d("2.50")},
			},
			{
				ID:      "edas",
				Group:   "delivery-area",
				Trigger: surcharge.Trigger{AreaClasses: []zone.AreaClass{zone.AreaExtendedDAS}},
				Formula: surcharge.Formula{Kind: surcharge.FormulaFlat, Amount: d("4.15")},
			},
			{
				ID:      "oversize",
				Trigger: surcharge.Trigger{MinGirthLength: fp(96)},
				Formula: surcharge.Formula{Kind: surcharge.FormulaFlat, Amount: d("16.00")},
			},
			{
				ID:      "peak-oversize",
				Trigger: surcharge.Trigger{MinGirthLength: fp(96)},
				Formula: surcharge.Formula{Kind: surcharge.FormulaFlat, Amount: d("6.25")},
				Window:  &surcharge.Window{Start: date(2025, time.October, 1), End: date(2026, time.January, 15)},
			},
			{
				ID:      "heavy-handling",
				Trigger: surcharge.Trigger{MinActualWeight: fp(70)},
				Formula: surcharge.Formula{Kind: surcharge.FormulaPerPound, Amount: d("0.08")},
			},
		},
	}
}

// postalConfig is the postal carrier: single national origin, a larger dim
// divisor, no fuel program (rate zero, applied last for uniformity).
func postalConfig() *Config {
	zones := zone.NewTable()
	prefixZones := map[string]int{
		"7": 1, "8": 2, "6": 2, "9": 4, "0": 5, "1": 5, "2": 4, "3": 3, "4": 3, "5": 2,
	}
	for prefix, z := range prefixZones {
		zones.Add(prefix, "national", z, zone.AreaNone)
	}

	base := rates.NewTable()
	for tier := 1; tier <= 70; tier++ {
		for z := 1; z <= 5; z++ {
			charge := d("4.63").
				Add(d("0.38").Mul(decimal.NewFromInt(int64(tier - 1)))).
				Add(d("0.85").Mul(decimal.NewFromInt(int64(z - 1))))
			base.Add(tier, z, charge)
		}
	}

	return &Config{
		Name:            "postal",
		DimFactor:       166,
		DimThreshold:    1728,
		ThresholdMetric: parcel.MetricCubicVolume,
		FactorMetric:    parcel.MetricCubicVolume,
		FuelRate:        decimal.Zero,
		FuelApplication: FuelLast,
		MaxWeightLbs:    70,
		Zones:           zones,
		BaseRates:       base,
		Rules: []surcharge.Rule{
			{
				ID:      "nonstandard-length",
				Trigger: surcharge.Trigger{MinLongestSide: fp(22)},
				Formula: surcharge.Formula{Kind: surcharge.FormulaFlat, Amount: d("4.00")},
			},
			{
				ID:      "nonmachinable",
				Trigger: surcharge.Trigger{MinGirthLength: fp(108)},
				Formula: surcharge.Formula{Kind: surcharge.FormulaFlat, Amount: d("4.00")},
			},
		},
	}
}

// maerskConfig is the ocean consolidation / last-mile carrier. The US
// contract caps at 70 lbs (advisory only), divides volume by 250 for dim
// weight, and retains 65% of the 19.5% list fuel rate after discount.
func maerskConfig() *Config {
	zones := zone.NewTable()
	for prefix, e := range map[string]zone.Entry{
		"750": {Zone: 5},
		"751": {Zone: 5},
		"752": {Zone: 5},
		"770": {Zone: 6},
		"871": {Zone: 7, Area: zone.AreaDAS},
		"873": {Zone: 8, Area: zone.AreaExtendedDAS},
		"900": {Zone: 8},
	} {
		zones.Add(prefix, "port-houston", e.Zone, e.Area)
	}

	base := rates.NewTable()
	for tier := 1; tier <= 70; tier++ {
		for z := 5; z <= 8; z++ {
			charge := d("8.20").
				Add(d("0.60").Mul(decimal.NewFromInt(int64(tier - 1)))).
				Add(d("0.45").Mul(decimal.NewFromInt(int64(z - 5))))
			base.Add(tier, z, charge)
		}
	}

	demandDAS := rates.NewTable()
	for tier := 1; tier <= 70; tier++ {
		for z := 5; z <= 8; z++ {
			demandDAS.Add(tier, z, d("1.90").Add(d("0.35").Mul(decimal.NewFromInt(int64(z-5)))))
		}
	}

	return &Config{
		Name:            "maersk-lcl",
		DimFactor:       250,
		DimThreshold:    1728,
		ThresholdMetric: parcel.MetricCubicVolume,
		FactorMetric:    parcel.MetricCubicVolume,
		FuelRate:        d("0.127"), // 19.5% list × 65% retained after contract discount
		FuelApplication: FuelLast,
		MaxWeightLbs:    70,
		Zones:           zones,
		BaseRates:       base,
		Tables: map[string]*rates.Table{
			"demand-das": demandDAS,
		},
		Rules: []surcharge.Rule{
			{
				ID:      "remote-area",
				Trigger: surcharge.Trigger{AreaClasses: []zone.AreaClass{zone.AreaDAS, zone.AreaExtendedDAS}},
				Formula: surcharge.Formula{Kind: surcharge.FormulaFlat, Amount: d("3.30")},
			},
			{
				ID:      "demand-remote-area",
				Trigger: surcharge.Trigger{AreaClasses: []zone.AreaClass{zone.AreaDAS, zone.AreaExtendedDAS}},
				Formula: surcharge.Formula{Kind: surcharge.FormulaTable, TableName: "demand-das"},
				Window:  &surcharge.Window{Start: date(2025, time.July, 1), End: date(2025, time.December, 31)},
			},
			{
				ID:       "consolidation-credit",
				Discount: true,
				Trigger:  surcharge.Trigger{MinZone: intp(7)},
				Formula:  surcharge.Formula{Kind: surcharge.FormulaFlat, Amount: d("1.10")},
			},
		},
	}
}

func intp(v int) *int { return &v }
