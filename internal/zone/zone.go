// Package zone resolves destination zips to carrier zones and delivery-area
// classifications.
package zone

import (
	"parcel-cost/internal/parcel"
	raterr "parcel-cost/pkg/errors"
)

// AreaClass is the delivery-area surcharge classification of a destination
// zip. It is a property of the zip, not of the shipment.
type AreaClass string

const (
	AreaNone        AreaClass = ""
	AreaDAS         AreaClass = "DAS"
	AreaExtendedDAS AreaClass = "EDAS"
)

// Entry is one resolved zone table row.
type Entry struct {
	Zone int
	Area AreaClass
}

// Table maps (zip or zip prefix, origin site) to a zone entry. Exact zips win
// over prefixes; among prefixes the longest match wins. A zip absent for the
// requested origin is an explicit unresolved condition, never a default.
type Table struct {
	byOrigin map[parcel.OriginSite]map[string]Entry
}

// NewTable creates an empty zone table.
func NewTable() *Table {
	return &Table{byOrigin: make(map[parcel.OriginSite]map[string]Entry)}
}

// Add registers a zip or zip prefix for an origin site. The last Add for a
// given (key, origin) pair wins; configs are expected to carry each pair at
// most once.
func (t *Table) Add(zipOrPrefix string, origin parcel.OriginSite, zone int, area AreaClass) {
	entries, ok := t.byOrigin[origin]
	if !ok {
		entries = make(map[string]Entry)
		t.byOrigin[origin] = entries
	}
	entries[zipOrPrefix] = Entry{Zone: zone, Area: area}
}

// Origins returns the number of origin sites present in the table.
func (t *Table) Origins() int {
	return len(t.byOrigin)
}

// Len returns the total number of entries across origins.
func (t *Table) Len() int {
	n := 0
	for _, entries := range t.byOrigin {
		n += len(entries)
	}
	return n
}

// Resolve maps a destination zip and origin site to a zone entry. It fails
// with UNRESOLVED_ZONE when no exact zip and no prefix covers the pair.
func (t *Table) Resolve(zip string, origin parcel.OriginSite) (Entry, error) {
	entries, ok := t.byOrigin[origin]
	if !ok {
		return Entry{}, raterr.NewUnresolvedZone(zip, string(origin))
	}
	// Exact match first, then longest prefix.
	for l := len(zip); l >= 1; l-- {
		if e, ok := entries[zip[:l]]; ok {
			return e, nil
		}
	}
	return Entry{}, raterr.NewUnresolvedZone(zip, string(origin))
}
