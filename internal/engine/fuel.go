package engine

import (
	"github.com/shopspring/decimal"

	"parcel-cost/internal/carrier"
	"parcel-cost/internal/surcharge"
)

// fuelCharge computes the fuel line item for the carrier's configured
// application mode, rounded to cents.
//
// FuelBasePlusSurcharges applies the rate to base plus non-discount
// surcharges only; contract discounts never shrink that carrier's fuel
// base. FuelLast applies the rate to the full subtotal, discounts included,
// as the final line item.
func fuelCharge(base decimal.Decimal, items []surcharge.LineItem, subtotal decimal.Decimal, cfg *carrier.Config) decimal.Decimal {
	var fuelBase decimal.Decimal
	switch cfg.FuelApplication {
	case carrier.FuelBasePlusSurcharges:
		fuelBase = base
		for _, item := range items {
			if !item.Discount {
				fuelBase = fuelBase.Add(item.Amount)
			}
		}
	default: // carrier.FuelLast
		fuelBase = subtotal
	}
	return fuelBase.Mul(cfg.FuelRate).Round(2)
}
