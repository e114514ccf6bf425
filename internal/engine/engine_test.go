package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"parcel-cost/internal/carrier"
	"parcel-cost/internal/parcel"
	"parcel-cost/internal/rates"
	"parcel-cost/internal/surcharge"
	"parcel-cost/internal/zone"
	raterr "parcel-cost/pkg/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func fp(v float64) *float64      { return &v }

// testConfig builds a minimal single-origin carrier covering zones 5-6 and
// tiers 1-80, with the dim policy and fuel mode left for the caller to tune.
func testConfig() *carrier.Config {
	zones := zone.NewTable()
	zones.Add("750", "origin", 5, zone.AreaNone)
	zones.Add("873", "origin", 6, zone.AreaExtendedDAS)

	base := rates.NewTable()
	for tier := 1; tier <= 80; tier++ {
		for z := 5; z <= 6; z++ {
			base.Add(tier, z, d("8.20").
				Add(d("0.60").Mul(decimal.NewFromInt(int64(tier-1)))).
				Add(d("0.45").Mul(decimal.NewFromInt(int64(z-5)))))
		}
	}

	return &carrier.Config{
		Name:            "test",
		DimFactor:       250,
		DimThreshold:    1728,
		ThresholdMetric: parcel.MetricCubicVolume,
		FactorMetric:    parcel.MetricCubicVolume,
		FuelRate:        d("0.127"),
		FuelApplication: carrier.FuelLast,
		Zones:           zones,
		BaseRates:       base,
	}
}

func testShipment() parcel.Shipment {
	return parcel.Shipment{
		LengthIn:       12,
		WidthIn:        10,
		HeightIn:       8,
		WeightLbs:      3,
		DestinationZip: "75023",
		Origin:         "origin",
		ShipDate:       time.Date(2025, time.November, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestEvaluateOneKnownScenario(t *testing.T) {
	// 12x10x8 at 3 lbs: volume 960 is under the 1728 threshold, so actual
	// weight rates at tier 3 / zone 5 = $9.40, fuel-last at 12.7% adds $1.19.
	cfg := testConfig()
	b, err := EvaluateOne(testShipment(), cfg)
	if err != nil {
		t.Fatalf("EvaluateOne: %v", err)
	}

	if b.Zone != 5 {
		t.Errorf("Zone = %d, want 5", b.Zone)
	}
	if b.Area != zone.AreaNone {
		t.Errorf("Area = %q, want none", b.Area)
	}
	if b.UsesDimWeight {
		t.Error("UsesDimWeight = true, want false")
	}
	if b.BillableWeightLbs != 3 {
		t.Errorf("BillableWeightLbs = %v, want 3", b.BillableWeightLbs)
	}
	if b.DimWeightLbs != 0 {
		t.Errorf("DimWeightLbs = %v, want 0 below threshold", b.DimWeightLbs)
	}
	if len(b.Surcharges) != 0 {
		t.Errorf("Surcharges = %v, want none", b.Surcharges)
	}
	if !b.BaseCharge.Equal(d("9.40")) {
		t.Errorf("BaseCharge = %s, want 9.40", b.BaseCharge)
	}
	if !b.Subtotal.Equal(d("9.40")) {
		t.Errorf("Subtotal = %s, want 9.40", b.Subtotal)
	}
	if !b.FuelCharge.Equal(d("1.19")) {
		t.Errorf("FuelCharge = %s, want 1.19", b.FuelCharge)
	}
	if !b.Total.Equal(d("10.59")) {
		t.Errorf("Total = %s, want 10.59", b.Total)
	}
}

func TestBillableWeightThresholdBoundary(t *testing.T) {
	cfg := testConfig()

	// Exactly at the threshold: strict >, so dim weight is not considered.
	s := testShipment()
	s.LengthIn, s.WidthIn, s.HeightIn = 12, 12, 12 // 1728 exactly
	billable, dim, usesDim := BillableWeight(s, cfg)
	if usesDim || dim != 0 || billable != s.WeightLbs {
		t.Errorf("at threshold: got (%v, %v, %v), want actual weight only", billable, dim, usesDim)
	}

	// One cubic inch over: 1729/250 = 6.916 beats 3 lbs actual.
	s.LengthIn = 1729.0 / 144.0
	billable, dim, usesDim = BillableWeight(s, cfg)
	if !usesDim {
		t.Fatal("above threshold with light package: want dim weight")
	}
	if billable != dim {
		t.Errorf("billable %v should equal dim %v", billable, dim)
	}
}

func TestBillableWeightZeroThresholdAlwaysCompares(t *testing.T) {
	cfg := testConfig()
	cfg.DimThreshold = 0

	s := testShipment() // volume 960, dim = 3.84
	billable, dim, usesDim := BillableWeight(s, cfg)
	if !usesDim {
		t.Fatal("zero threshold must always compare dim weight")
	}
	if dim != 960.0/250.0 || billable != dim {
		t.Errorf("got billable %v dim %v, want 3.84", billable, dim)
	}
}

func TestBillableWeightTieResolvesToActual(t *testing.T) {
	cfg := testConfig()
	cfg.DimThreshold = 0

	s := testShipment()
	s.WeightLbs = 960.0 / 250.0 // dim == actual
	billable, dim, usesDim := BillableWeight(s, cfg)
	if usesDim {
		t.Error("tie must resolve to actual weight")
	}
	if billable != s.WeightLbs || dim != s.WeightLbs {
		t.Errorf("got billable %v dim %v, want both %v", billable, dim, s.WeightLbs)
	}
}

func TestDimWeightMonotonicity(t *testing.T) {
	// For fixed dimensions, increasing actual weight flips usesDim from
	// true to false exactly once and never back.
	cfg := testConfig()
	cfg.DimThreshold = 0

	s := testShipment() // dim weight 3.84
	flips := 0
	prev := true
	for w := 0.5; w <= 10; w += 0.25 {
		s.WeightLbs = w
		_, _, usesDim := BillableWeight(s, cfg)
		if usesDim && !prev {
			t.Fatalf("usesDim flipped back to true at weight %v", w)
		}
		if !usesDim && prev {
			flips++
		}
		prev = usesDim
	}
	if flips != 1 {
		t.Errorf("usesDim flipped %d times, want exactly 1", flips)
	}
}

func TestSplitMetricConfig(t *testing.T) {
	// Threshold checks girth+length while the formula divides volume: the
	// calculator must not assume both point at the same metric.
	cfg := testConfig()
	cfg.ThresholdMetric = parcel.MetricGirthPlusLength
	cfg.DimThreshold = 40

	s := testShipment() // girth+length 12+2*(10+8) = 48 > 40, volume 960
	billable, dim, usesDim := BillableWeight(s, cfg)
	if !usesDim {
		t.Fatal("girth threshold exceeded: want dim weight")
	}
	if dim != 960.0/250.0 {
		t.Errorf("dim = %v, want volume/250 = 3.84", dim)
	}
	if billable != dim {
		t.Errorf("billable = %v, want %v", billable, dim)
	}
}

func TestFuelModes(t *testing.T) {
	// Same catalogue, same shipment, different fuel application modes. The
	// carrier has a $2.00 surcharge and a $1.00 discount on a $9.40 base.
	rules := []surcharge.Rule{
		{ID: "handling", Formula: surcharge.Formula{Kind: surcharge.FormulaFlat, Amount: d("2.00")}},
		{ID: "credit", Discount: true, Formula: surcharge.Formula{Kind: surcharge.FormulaFlat, Amount: d("1.00")}},
	}

	// LAST: fuel base is the full subtotal, discounts included.
	cfg := testConfig()
	cfg.Rules = rules
	cfg.FuelRate = d("0.10")
	cfg.FuelApplication = carrier.FuelLast
	b, err := EvaluateOne(testShipment(), cfg)
	if err != nil {
		t.Fatalf("EvaluateOne(last): %v", err)
	}
	if !b.Subtotal.Equal(d("10.40")) {
		t.Errorf("last: Subtotal = %s, want 10.40", b.Subtotal)
	}
	if !b.FuelCharge.Equal(d("1.04")) {
		t.Errorf("last: FuelCharge = %s, want 1.04", b.FuelCharge)
	}
	if !b.Total.Equal(d("11.44")) {
		t.Errorf("last: Total = %s, want 11.44", b.Total)
	}

	// BASE_PLUS_SURCHARGES: the discount is excluded from the fuel base,
	// so fuel is 10% of 11.40 even though the subtotal is 10.40.
	cfg = testConfig()
	cfg.Rules = rules
	cfg.FuelRate = d("0.10")
	cfg.FuelApplication = carrier.FuelBasePlusSurcharges
	b, err = EvaluateOne(testShipment(), cfg)
	if err != nil {
		t.Fatalf("EvaluateOne(base_plus_surcharges): %v", err)
	}
	if !b.Subtotal.Equal(d("10.40")) {
		t.Errorf("bps: Subtotal = %s, want 10.40", b.Subtotal)
	}
	if !b.FuelCharge.Equal(d("1.14")) {
		t.Errorf("bps: FuelCharge = %s, want 1.14", b.FuelCharge)
	}
	if !b.Total.Equal(d("11.54")) {
		t.Errorf("bps: Total = %s, want 11.54", b.Total)
	}
}

func TestSubtotalInvariant(t *testing.T) {
	cfg := testConfig()
	cfg.Rules = []surcharge.Rule{
		{ID: "remote", Trigger: surcharge.Trigger{AreaClasses: []zone.AreaClass{zone.AreaExtendedDAS}}, Formula: surcharge.Formula{Kind: surcharge.FormulaFlat, Amount: d("4.15")}},
		{ID: "per-lb", Trigger: surcharge.Trigger{MinBillableWeight: fp(2)}, Formula: surcharge.Formula{Kind: surcharge.FormulaPerPound, Amount: d("0.08")}},
	}

	s := testShipment()
	s.DestinationZip = "87301"
	b, err := EvaluateOne(s, cfg)
	if err != nil {
		t.Fatalf("EvaluateOne: %v", err)
	}
	if !b.Subtotal.Equal(b.BaseCharge.Add(b.SurchargeTotal())) {
		t.Errorf("Subtotal %s != base %s + surcharges %s", b.Subtotal, b.BaseCharge, b.SurchargeTotal())
	}
	if !b.Total.Equal(b.Subtotal.Add(b.FuelCharge)) {
		t.Errorf("Total %s != subtotal %s + fuel %s", b.Total, b.Subtotal, b.FuelCharge)
	}
}

func TestMaxWeightIsAdvisoryOnly(t *testing.T) {
	// A shipment at the carrier's stated max rates through the standard
	// path with no implicit surcharge or rejection.
	cfg := testConfig()
	cfg.MaxWeightLbs = 70

	s := testShipment()
	s.WeightLbs = 70
	b, err := EvaluateOne(s, cfg)
	if err != nil {
		t.Fatalf("EvaluateOne at max weight: %v", err)
	}
	if len(b.Surcharges) != 0 {
		t.Errorf("no surcharge should fire at max weight, got %v", b.Surcharges)
	}
	if b.BillableWeightLbs != 70 {
		t.Errorf("BillableWeightLbs = %v, want 70", b.BillableWeightLbs)
	}
}

func TestEvaluateOneErrorPaths(t *testing.T) {
	cfg := testConfig()

	s := testShipment()
	s.WeightLbs = -1
	if _, err := EvaluateOne(s, cfg); !raterr.IsCode(err, raterr.CodeInvalidShipment) {
		t.Errorf("bad weight: expected INVALID_SHIPMENT, got %v", err)
	}

	s = testShipment()
	s.DestinationZip = "10001"
	if _, err := EvaluateOne(s, cfg); !raterr.IsCode(err, raterr.CodeUnresolvedZone) {
		t.Errorf("uncovered zip: expected UNRESOLVED_ZONE, got %v", err)
	}

	s = testShipment()
	s.WeightLbs = 500
	if _, err := EvaluateOne(s, cfg); !raterr.IsCode(err, raterr.CodeRateNotFound) {
		t.Errorf("weight beyond table: expected RATE_NOT_FOUND, got %v", err)
	}
}
