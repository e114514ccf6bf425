// Package parcel defines the shipment input model and the derived physical
// metrics carrier rules key off.
package parcel

import (
	"fmt"
	"sort"
	"time"

	raterr "parcel-cost/pkg/errors"
)

// OriginSite identifies the production site a shipment leaves from.
// Multi-origin carriers map the same destination zip to different zones per
// site, so the origin travels with the shipment rather than the config.
type OriginSite string

// DimMetric names a derived physical quantity of a shipment. Carrier configs
// reference metrics by name so the threshold check and the dim-weight formula
// can feed off different quantities.
type DimMetric string

const (
	MetricCubicVolume     DimMetric = "cubic_volume"      // L × W × H, cubic inches
	MetricLongestSide     DimMetric = "longest_side"      // inches
	MetricGirthPlusLength DimMetric = "girth_plus_length" // longest + 2×(other two), inches
	MetricSecondLongest   DimMetric = "second_longest"    // inches
)

// KnownMetric reports whether m names a metric the engine can derive.
func KnownMetric(m DimMetric) bool {
	switch m {
	case MetricCubicVolume, MetricLongestSide, MetricGirthPlusLength, MetricSecondLongest:
		return true
	}
	return false
}

// Shipment is the immutable rating input. All dimensional and weight fields
// are in inches and pounds.
type Shipment struct {
	LengthIn          float64
	WidthIn           float64
	HeightIn          float64
	WeightLbs         float64
	DestinationZip    string
	DestinationRegion string // display only, never used for zone resolution
	Origin            OriginSite
	ShipDate          time.Time
}

// Validate enforces the structural preconditions. It runs before any table
// lookup so a malformed row fails with INVALID_SHIPMENT rather than a
// misleading zone or rate error.
func (s Shipment) Validate() error {
	switch {
	case s.LengthIn <= 0:
		return raterr.NewInvalidShipment("length_in", fmt.Sprintf("length must be positive, got %v", s.LengthIn))
	case s.WidthIn <= 0:
		return raterr.NewInvalidShipment("width_in", fmt.Sprintf("width must be positive, got %v", s.WidthIn))
	case s.HeightIn <= 0:
		return raterr.NewInvalidShipment("height_in", fmt.Sprintf("height must be positive, got %v", s.HeightIn))
	case s.WeightLbs <= 0:
		return raterr.NewInvalidShipment("weight_lbs", fmt.Sprintf("weight must be positive, got %v", s.WeightLbs))
	}
	if len(s.DestinationZip) != 5 {
		return raterr.NewInvalidShipment("destination_zip", fmt.Sprintf("zip must be exactly 5 digits, got %q", s.DestinationZip))
	}
	for _, c := range s.DestinationZip {
		if c < '0' || c > '9' {
			return raterr.NewInvalidShipment("destination_zip", fmt.Sprintf("zip must be exactly 5 digits, got %q", s.DestinationZip))
		}
	}
	if s.ShipDate.IsZero() {
		return raterr.NewInvalidShipment("ship_date", "ship date is required")
	}
	return nil
}

// Volume returns the bounding-box volume in cubic inches.
func (s Shipment) Volume() float64 {
	return s.LengthIn * s.WidthIn * s.HeightIn
}

// sortedSides returns the three side lengths in descending order.
func (s Shipment) sortedSides() [3]float64 {
	sides := [3]float64{s.LengthIn, s.WidthIn, s.HeightIn}
	sort.Sort(sort.Reverse(sort.Float64Slice(sides[:])))
	return sides
}

// LongestSide returns the longest side in inches.
func (s Shipment) LongestSide() float64 {
	return s.sortedSides()[0]
}

// SecondLongestSide returns the second-longest side in inches.
func (s Shipment) SecondLongestSide() float64 {
	return s.sortedSides()[1]
}

// GirthPlusLength returns length plus girth, the metric most carriers use
// for oversize checks: longest side + 2 × (sum of the other two).
func (s Shipment) GirthPlusLength() float64 {
	sides := s.sortedSides()
	return sides[0] + 2*(sides[1]+sides[2])
}

// Metric derives the named metric. Unknown names return 0; configs are
// validated against KnownMetric at load time so this cannot happen for a
// loaded carrier.
func (s Shipment) Metric(m DimMetric) float64 {
	switch m {
	case MetricCubicVolume:
		return s.Volume()
	case MetricLongestSide:
		return s.LongestSide()
	case MetricGirthPlusLength:
		return s.GirthPlusLength()
	case MetricSecondLongest:
		return s.SecondLongestSide()
	}
	return 0
}
