package zone

import (
	"testing"

	raterr "parcel-cost/pkg/errors"
)

func TestResolveExactBeatsPrefix(t *testing.T) {
	tbl := NewTable()
	tbl.Add("75", "dallas", 2, AreaNone)
	tbl.Add("750", "dallas", 3, AreaDAS)
	tbl.Add("75023", "dallas", 4, AreaExtendedDAS)

	tests := []struct {
		zip  string
		zone int
		area AreaClass
	}{
		{"75023", 4, AreaExtendedDAS}, // exact
		{"75024", 3, AreaDAS},         // longest prefix 750
		{"75900", 2, AreaNone},        // prefix 75
	}
	for _, tt := range tests {
		e, err := tbl.Resolve(tt.zip, "dallas")
		if err != nil {
			t.Fatalf("Resolve(%s): %v", tt.zip, err)
		}
		if e.Zone != tt.zone || e.Area != tt.area {
			t.Errorf("Resolve(%s) = zone %d area %q, want zone %d area %q", tt.zip, e.Zone, e.Area, tt.zone, tt.area)
		}
	}
}

func TestResolvePerOrigin(t *testing.T) {
	tbl := NewTable()
	tbl.Add("871", "dallas", 5, AreaNone)
	tbl.Add("871", "elpaso", 3, AreaNone)

	if e, err := tbl.Resolve("87101", "dallas"); err != nil || e.Zone != 5 {
		t.Errorf("dallas origin: got (%v, %v), want zone 5", e, err)
	}
	if e, err := tbl.Resolve("87101", "elpaso"); err != nil || e.Zone != 3 {
		t.Errorf("elpaso origin: got (%v, %v), want zone 3", e, err)
	}
}

func TestResolveUnresolved(t *testing.T) {
	tbl := NewTable()
	tbl.Add("75", "dallas", 2, AreaNone)

	// Zip not covered by any prefix.
	_, err := tbl.Resolve("99901", "dallas")
	if !raterr.IsCode(err, raterr.CodeUnresolvedZone) {
		t.Fatalf("expected UNRESOLVED_ZONE, got %v", err)
	}

	// Known zip, unknown origin. Never fall back to another origin's map.
	_, err = tbl.Resolve("75023", "elpaso")
	if !raterr.IsCode(err, raterr.CodeUnresolvedZone) {
		t.Fatalf("expected UNRESOLVED_ZONE for unknown origin, got %v", err)
	}
}
