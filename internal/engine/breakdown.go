// Package engine computes itemized expected-cost breakdowns for shipments.
// Evaluation is a pure function of (shipment, carrier config): no component
// keeps per-shipment state, so batch runs parallelize freely over one shared
// config.
package engine

import (
	"github.com/shopspring/decimal"

	"parcel-cost/internal/surcharge"
	"parcel-cost/internal/zone"
)

// Breakdown is the itemized rating output for one shipment.
//
// Subtotal is always BaseCharge plus the sum of every surcharge line item,
// discounts included. Total is Subtotal plus FuelCharge in both fuel modes;
// the modes differ only in the base the fuel percentage applies to.
type Breakdown struct {
	Carrier           string               `json:"carrier"`
	Zone              int                  `json:"zone"`
	Area              zone.AreaClass       `json:"area_class,omitempty"`
	BillableWeightLbs float64              `json:"billable_weight_lbs"`
	DimWeightLbs      float64              `json:"dim_weight_lbs"`
	UsesDimWeight     bool                 `json:"uses_dim_weight"`
	Surcharges        []surcharge.LineItem `json:"surcharges"`
	BaseCharge        decimal.Decimal      `json:"base_charge"`
	Subtotal          decimal.Decimal      `json:"subtotal"`
	FuelCharge        decimal.Decimal      `json:"fuel_charge"`
	Total             decimal.Decimal      `json:"total"`
}

// SurchargeTotal sums all surcharge line items, discounts included.
func (b *Breakdown) SurchargeTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range b.Surcharges {
		sum = sum.Add(item.Amount)
	}
	return sum
}

// RowResult pairs one input row with either its breakdown or its error.
// Batch evaluation returns one RowResult per shipment, index-aligned with
// the input; a failed row never halts the rest of the batch.
type RowResult struct {
	Breakdown *Breakdown
	Err       error
}
