package parcel

import (
	"testing"
	"time"

	raterr "parcel-cost/pkg/errors"
)

func validShipment() Shipment {
	return Shipment{
		LengthIn:       12,
		WidthIn:        10,
		HeightIn:       8,
		WeightLbs:      3,
		DestinationZip: "75023",
		Origin:         "dallas",
		ShipDate:       time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Shipment)
		field  string
	}{
		{"zero length", func(s *Shipment) { s.LengthIn = 0 }, "length_in"},
		{"negative width", func(s *Shipment) { s.WidthIn = -1 }, "width_in"},
		{"zero height", func(s *Shipment) { s.HeightIn = 0 }, "height_in"},
		{"zero weight", func(s *Shipment) { s.WeightLbs = 0 }, "weight_lbs"},
		{"short zip", func(s *Shipment) { s.DestinationZip = "7502" }, "destination_zip"},
		{"long zip", func(s *Shipment) { s.DestinationZip = "750231" }, "destination_zip"},
		{"alpha zip", func(s *Shipment) { s.DestinationZip = "75O23" }, "destination_zip"},
		{"no ship date", func(s *Shipment) { s.ShipDate = time.Time{} }, "ship_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validShipment()
			tt.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !raterr.IsCode(err, raterr.CodeInvalidShipment) {
				t.Fatalf("expected INVALID_SHIPMENT, got %v", err)
			}
		})
	}
}

func TestValidateAcceptsZeroPaddedZip(t *testing.T) {
	s := validShipment()
	s.DestinationZip = "00501"
	if err := s.Validate(); err != nil {
		t.Fatalf("zero-padded zip should validate: %v", err)
	}
}

func TestDerivedMetrics(t *testing.T) {
	s := Shipment{LengthIn: 8, WidthIn: 20, HeightIn: 6}

	if got := s.Volume(); got != 960 {
		t.Errorf("Volume = %v, want 960", got)
	}
	// Longest side is the 20in width, not the length field.
	if got := s.LongestSide(); got != 20 {
		t.Errorf("LongestSide = %v, want 20", got)
	}
	if got := s.SecondLongestSide(); got != 8 {
		t.Errorf("SecondLongestSide = %v, want 8", got)
	}
	// 20 + 2*(8+6)
	if got := s.GirthPlusLength(); got != 48 {
		t.Errorf("GirthPlusLength = %v, want 48", got)
	}

	if got := s.Metric(MetricCubicVolume); got != 960 {
		t.Errorf("Metric(cubic_volume) = %v, want 960", got)
	}
	if got := s.Metric(MetricGirthPlusLength); got != 48 {
		t.Errorf("Metric(girth_plus_length) = %v, want 48", got)
	}
}

func TestKnownMetric(t *testing.T) {
	for _, m := range []DimMetric{MetricCubicVolume, MetricLongestSide, MetricGirthPlusLength, MetricSecondLongest} {
		if !KnownMetric(m) {
			t.Errorf("KnownMetric(%q) = false", m)
		}
	}
	if KnownMetric("girth") {
		t.Error("KnownMetric(girth) should be false")
	}
}
