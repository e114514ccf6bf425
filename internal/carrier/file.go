package carrier

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"parcel-cost/internal/parcel"
	"parcel-cost/internal/rates"
	"parcel-cost/internal/surcharge"
	"parcel-cost/internal/zone"
	raterr "parcel-cost/pkg/errors"
)

// fileConfig is the YAML shape for externally authored carrier configs,
// typically produced by converting a carrier-published rate spreadsheet.
// Charges and rates are strings so they parse as exact decimals.
type fileConfig struct {
	Name            string                   `yaml:"name"`
	DimFactor       float64                  `yaml:"dim_factor"`
	DimThreshold    float64                  `yaml:"dim_threshold"`
	ThresholdMetric string                   `yaml:"threshold_metric"`
	FactorMetric    string                   `yaml:"factor_metric"`
	FuelRate        string                   `yaml:"fuel_rate"`
	FuelApplication string                   `yaml:"fuel_application"`
	MaxWeightLbs    float64                  `yaml:"max_weight_lbs"`
	Zones           []fileZoneRow            `yaml:"zones"`
	BaseRates       []fileRateRow            `yaml:"base_rates"`
	Tables          map[string][]fileRateRow `yaml:"tables"`
	Rules           []fileRule               `yaml:"rules"`
}

type fileZoneRow struct {
	Zip    string `yaml:"zip"` // exact zip or prefix
	Origin string `yaml:"origin"`
	Zone   int    `yaml:"zone"`
	Area   string `yaml:"area"`
}

type fileRateRow struct {
	Tier   int    `yaml:"tier"`
	Zone   int    `yaml:"zone"`
	Charge string `yaml:"charge"`
}

type fileRule struct {
	ID       string      `yaml:"id"`
	Group    string      `yaml:"group"`
	Priority *int        `yaml:"priority"`
	Discount bool        `yaml:"discount"`
	Window   *fileWindow `yaml:"window"`
	Trigger  fileTrigger `yaml:"trigger"`
	Formula  fileFormula `yaml:"formula"`
}

type fileWindow struct {
	Start string `yaml:"start"` // 2006-01-02
	End   string `yaml:"end"`
}

type fileTrigger struct {
	MinBillableWeight *float64 `yaml:"min_billable_weight"`
	MaxBillableWeight *float64 `yaml:"max_billable_weight"`
	MinActualWeight   *float64 `yaml:"min_actual_weight"`
	MinLongestSide    *float64 `yaml:"min_longest_side"`
	MinGirthLength    *float64 `yaml:"min_girth_length"`
	MinVolume         *float64 `yaml:"min_volume"`
	Zones             []int    `yaml:"zones"`
	MinZone           *int     `yaml:"min_zone"`
	AreaClasses       []string `yaml:"area_classes"`
}

type fileFormula struct {
	Kind   string `yaml:"kind"` // flat, per_pound, table
	Amount string `yaml:"amount"`
	Table  string `yaml:"table"`
}

// LoadFile reads, converts, and validates a YAML carrier config. Parse and
// conversion failures surface as CONFIGURATION_ERROR, same as semantic
// inconsistencies, since both mean the carrier cannot be rated against.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, raterr.NewConfiguration(fmt.Sprintf("reading %s: %v", path, err))
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, raterr.NewConfiguration(fmt.Sprintf("parsing %s: %v", path, err))
	}
	cfg, err := fc.toConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (fc fileConfig) toConfig() (*Config, error) {
	fuelRate := decimal.Zero
	if fc.FuelRate != "" {
		var err error
		fuelRate, err = decimal.NewFromString(fc.FuelRate)
		if err != nil {
			return nil, raterr.NewConfiguration(fmt.Sprintf("%s: bad fuel rate %q", fc.Name, fc.FuelRate))
		}
	}

	zones := zone.NewTable()
	for _, row := range fc.Zones {
		zones.Add(row.Zip, parcel.OriginSite(row.Origin), row.Zone, zone.AreaClass(row.Area))
	}

	base, err := toRateTable(fc.Name, "base_rates", fc.BaseRates)
	if err != nil {
		return nil, err
	}
	tables := make(map[string]*rates.Table, len(fc.Tables))
	for name, rows := range fc.Tables {
		t, err := toRateTable(fc.Name, name, rows)
		if err != nil {
			return nil, err
		}
		tables[name] = t
	}

	rules := make([]surcharge.Rule, 0, len(fc.Rules))
	for _, fr := range fc.Rules {
		r, err := fr.toRule(fc.Name)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}

	return &Config{
		Name:            fc.Name,
		DimFactor:       fc.DimFactor,
		DimThreshold:    fc.DimThreshold,
		ThresholdMetric: parcel.DimMetric(fc.ThresholdMetric),
		FactorMetric:    parcel.DimMetric(fc.FactorMetric),
		FuelRate:        fuelRate,
		FuelApplication: FuelApplication(fc.FuelApplication),
		MaxWeightLbs:    fc.MaxWeightLbs,
		Zones:           zones,
		BaseRates:       base,
		Tables:          tables,
		Rules:           rules,
	}, nil
}

func toRateTable(carrierName, tableName string, rows []fileRateRow) (*rates.Table, error) {
	t := rates.NewTable()
	for _, row := range rows {
		charge, err := decimal.NewFromString(row.Charge)
		if err != nil {
			return nil, raterr.NewConfiguration(fmt.Sprintf("%s: table %s tier %d zone %d: bad charge %q",
				carrierName, tableName, row.Tier, row.Zone, row.Charge))
		}
		t.Add(row.Tier, row.Zone, charge)
	}
	return t, nil
}

func (fr fileRule) toRule(carrierName string) (surcharge.Rule, error) {
	var window *surcharge.Window
	if fr.Window != nil {
		start, err := time.Parse("2006-01-02", fr.Window.Start)
		if err != nil {
			return surcharge.Rule{}, raterr.NewConfiguration(fmt.Sprintf("%s: rule %q: bad window start %q", carrierName, fr.ID, fr.Window.Start))
		}
		end, err := time.Parse("2006-01-02", fr.Window.End)
		if err != nil {
			return surcharge.Rule{}, raterr.NewConfiguration(fmt.Sprintf("%s: rule %q: bad window end %q", carrierName, fr.ID, fr.Window.End))
		}
		window = &surcharge.Window{Start: start, End: end}
	}

	amount := decimal.Zero
	if fr.Formula.Amount != "" {
		var err error
		amount, err = decimal.NewFromString(fr.Formula.Amount)
		if err != nil {
			return surcharge.Rule{}, raterr.NewConfiguration(fmt.Sprintf("%s: rule %q: bad amount %q", carrierName, fr.ID, fr.Formula.Amount))
		}
	}

	areas := make([]zone.AreaClass, 0, len(fr.Trigger.AreaClasses))
	for _, a := range fr.Trigger.AreaClasses {
		areas = append(areas, zone.AreaClass(a))
	}

	return surcharge.Rule{
		ID:       fr.ID,
		Group:    fr.Group,
		Priority: fr.Priority,
		Discount: fr.Discount,
		Window:   window,
		Trigger: surcharge.Trigger{
			MinBillableWeight: fr.Trigger.MinBillableWeight,
			MaxBillableWeight: fr.Trigger.MaxBillableWeight,
			MinActualWeight:   fr.Trigger.MinActualWeight,
			MinLongestSide:    fr.Trigger.MinLongestSide,
			MinGirthLength:    fr.Trigger.MinGirthLength,
			MinVolume:         fr.Trigger.MinVolume,
			Zones:             fr.Trigger.Zones,
			MinZone:           fr.Trigger.MinZone,
			AreaClasses:       areas,
		},
		Formula: surcharge.Formula{
			Kind:      surcharge.FormulaKind(fr.Formula.Kind),
			Amount:    amount,
			TableName: fr.Formula.Table,
		},
	}, nil
}
