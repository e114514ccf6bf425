package engine

import (
	"parcel-cost/internal/carrier"
	"parcel-cost/internal/parcel"
)

// BillableWeight derives the weight a shipment rates at.
//
// The carrier's threshold metric is checked strictly greater than
// DimThreshold (a zero threshold means "always compare"). When the check
// passes, dimensional weight is the factor metric divided by DimFactor and
// billable weight is the larger of actual and dimensional; a tie resolves to
// actual, so usesDim requires dim strictly greater. When the check fails,
// dimensional weight is not considered and dim is reported as 0.
func BillableWeight(s parcel.Shipment, cfg *carrier.Config) (billable, dim float64, usesDim bool) {
	thresholdVal := s.Metric(cfg.ThresholdMetric)
	if cfg.DimThreshold != 0 && thresholdVal <= cfg.DimThreshold {
		return s.WeightLbs, 0, false
	}
	dim = s.Metric(cfg.FactorMetric) / cfg.DimFactor
	if dim > s.WeightLbs {
		return dim, dim, true
	}
	return s.WeightLbs, dim, false
}
