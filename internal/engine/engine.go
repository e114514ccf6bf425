package engine

import (
	"parcel-cost/internal/carrier"
	"parcel-cost/internal/parcel"
	"parcel-cost/internal/surcharge"
)

// EvaluateOne rates a single shipment against a carrier config.
//
// The pipeline is: validate, resolve zone, derive billable weight, evaluate
// the surcharge catalogue, look up the base rate, then aggregate with the
// fuel charge. Errors carry one of the four rating codes and surface before
// any partial breakdown is produced.
func EvaluateOne(s parcel.Shipment, cfg *carrier.Config) (*Breakdown, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	entry, err := cfg.Zones.Resolve(s.DestinationZip, s.Origin)
	if err != nil {
		return nil, err
	}

	billable, dim, usesDim := BillableWeight(s, cfg)

	facts := surcharge.Facts{
		ActualWeightLbs:   s.WeightLbs,
		BillableWeightLbs: billable,
		LongestSideIn:     s.LongestSide(),
		GirthPlusLengthIn: s.GirthPlusLength(),
		VolumeCuIn:        s.Volume(),
		Zone:              entry.Zone,
		Area:              entry.Area,
		ShipDate:          s.ShipDate,
	}
	items, err := surcharge.Evaluate(cfg.Rules, facts, cfg.Tables)
	if err != nil {
		return nil, err
	}

	base, err := cfg.BaseRates.Lookup(billable, entry.Zone)
	if err != nil {
		return nil, err
	}

	b := &Breakdown{
		Carrier:           cfg.Name,
		Zone:              entry.Zone,
		Area:              entry.Area,
		BillableWeightLbs: billable,
		DimWeightLbs:      dim,
		UsesDimWeight:     usesDim,
		Surcharges:        items,
		BaseCharge:        base,
	}
	b.Subtotal = base.Add(b.SurchargeTotal())
	b.FuelCharge = fuelCharge(base, items, b.Subtotal, cfg)
	b.Total = b.Subtotal.Add(b.FuelCharge)
	return b, nil
}
