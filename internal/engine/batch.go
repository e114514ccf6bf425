package engine

import (
	"runtime"
	"sync"

	"parcel-cost/internal/carrier"
	"parcel-cost/internal/parcel"
	"parcel-cost/internal/surcharge"
	"parcel-cost/internal/zone"
)

// EvaluateMany rates an ordered collection of shipments and returns one
// RowResult per input, index-aligned. Rows are processed through a staged
// column-at-a-time pipeline and the work is chunked across goroutines; the
// config is immutable so chunks share it without locks.
//
// Every stage calls the same functions as EvaluateOne, so batch output is
// bit-identical to running the scalar path row by row. A malformed or
// unresolvable row yields a per-row error and the remaining rows still rate.
func EvaluateMany(shipments []parcel.Shipment, cfg *carrier.Config) []RowResult {
	results := make([]RowResult, len(shipments))
	if len(shipments) == 0 {
		return results
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(shipments) + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}

	var wg sync.WaitGroup
	for lo := 0; lo < len(shipments); lo += chunk {
		hi := lo + chunk
		if hi > len(shipments) {
			hi = len(shipments)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			evaluateColumns(shipments[lo:hi], cfg, results[lo:hi])
		}(lo, hi)
	}
	wg.Wait()
	return results
}

// minChunk keeps goroutine overhead below the per-row work for small batches.
const minChunk = 1024

// evaluateColumns runs the staged pipeline over one slice of rows. Each
// stage fills a column for every still-live row before the next stage runs;
// a row that fails a stage records its error and drops out of later stages.
func evaluateColumns(shipments []parcel.Shipment, cfg *carrier.Config, out []RowResult) {
	n := len(shipments)
	live := make([]bool, n)
	entries := make([]zone.Entry, n)
	billable := make([]float64, n)
	dims := make([]float64, n)
	usesDim := make([]bool, n)

	// Stage 1: structural validation.
	for i := range shipments {
		if err := shipments[i].Validate(); err != nil {
			out[i] = RowResult{Err: err}
			continue
		}
		live[i] = true
	}

	// Stage 2: zone column.
	for i := range shipments {
		if !live[i] {
			continue
		}
		entry, err := cfg.Zones.Resolve(shipments[i].DestinationZip, shipments[i].Origin)
		if err != nil {
			out[i] = RowResult{Err: err}
			live[i] = false
			continue
		}
		entries[i] = entry
	}

	// Stage 3: billable weight columns.
	for i := range shipments {
		if !live[i] {
			continue
		}
		billable[i], dims[i], usesDim[i] = BillableWeight(shipments[i], cfg)
	}

	// Stage 4: surcharges, base rate, and aggregation.
	for i := range shipments {
		if !live[i] {
			continue
		}
		s := shipments[i]
		facts := surcharge.Facts{
			ActualWeightLbs:   s.WeightLbs,
			BillableWeightLbs: billable[i],
			LongestSideIn:     s.LongestSide(),
			GirthPlusLengthIn: s.GirthPlusLength(),
			VolumeCuIn:        s.Volume(),
			Zone:              entries[i].Zone,
			Area:              entries[i].Area,
			ShipDate:          s.ShipDate,
		}
		items, err := surcharge.Evaluate(cfg.Rules, facts, cfg.Tables)
		if err != nil {
			out[i] = RowResult{Err: err}
			continue
		}
		base, err := cfg.BaseRates.Lookup(billable[i], entries[i].Zone)
		if err != nil {
			out[i] = RowResult{Err: err}
			continue
		}
		b := &Breakdown{
			Carrier:           cfg.Name,
			Zone:              entries[i].Zone,
			Area:              entries[i].Area,
			BillableWeightLbs: billable[i],
			DimWeightLbs:      dims[i],
			UsesDimWeight:     usesDim[i],
			Surcharges:        items,
			BaseCharge:        base,
		}
		b.Subtotal = base.Add(b.SurchargeTotal())
		b.FuelCharge = fuelCharge(base, items, b.Subtotal, cfg)
		b.Total = b.Subtotal.Add(b.FuelCharge)
		out[i] = RowResult{Breakdown: b}
	}
}
