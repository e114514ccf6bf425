// Package reconcile compares engine-computed expected totals against the
// amounts a carrier actually invoiced. It never judges the invoice correct;
// it only reports where the two disagree beyond tolerance.
package reconcile

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"parcel-cost/internal/engine"
)

// Outcome classifies one reconciled shipment.
type Outcome string

const (
	OutcomeMatch        Outcome = "match"
	OutcomeOvercharged  Outcome = "overcharged"  // invoiced above expected
	OutcomeUndercharged Outcome = "undercharged" // invoiced below expected
	OutcomeError        Outcome = "error"        // shipment failed to rate
)

// Tolerance bounds how far an invoiced amount may drift from the expected
// total and still count as a match. A row matches when it is inside either
// bound.
type Tolerance struct {
	Absolute decimal.Decimal // dollars
	Relative decimal.Decimal // fraction of the expected total
}

// DefaultTolerance matches invoices within 5 cents or 0.5%.
func DefaultTolerance() Tolerance {
	return Tolerance{
		Absolute: decimal.RequireFromString("0.05"),
		Relative: decimal.RequireFromString("0.005"),
	}
}

// Pair joins one rated shipment with its invoiced amount.
type Pair struct {
	TrackingID string
	Result     engine.RowResult
	Invoiced   decimal.Decimal
}

// Row is one reconciled shipment.
type Row struct {
	TrackingID string          `json:"tracking_id"`
	Outcome    Outcome         `json:"outcome"`
	Expected   decimal.Decimal `json:"expected"`
	Invoiced   decimal.Decimal `json:"invoiced"`
	Delta      decimal.Decimal `json:"delta"` // invoiced - expected
	Err        string          `json:"error,omitempty"`
}

// Report is the full reconciliation result for one run.
type Report struct {
	RunID        uuid.UUID     `json:"run_id"`
	GeneratedAt  time.Time     `json:"generated_at"`
	Rows         []Row         `json:"rows"`
	Matched      int           `json:"matched"`
	Overcharged  int           `json:"overcharged"`
	Undercharged int           `json:"undercharged"`
	Errored      int           `json:"errored"`
	Discounts    DiscountStats `json:"discounts"`
}

// Reconcile classifies every pair against the tolerance and derives the
// observed-discount statistics. Rating errors become error rows; they never
// abort the run.
func Reconcile(pairs []Pair, tol Tolerance) *Report {
	report := &Report{
		RunID:       uuid.New(),
		GeneratedAt: time.Now().UTC(),
		Rows:        make([]Row, 0, len(pairs)),
	}
	var observed []decimal.Decimal

	for _, p := range pairs {
		if p.Result.Err != nil {
			report.Rows = append(report.Rows, Row{
				TrackingID: p.TrackingID,
				Outcome:    OutcomeError,
				Invoiced:   p.Invoiced,
				Err:        p.Result.Err.Error(),
			})
			report.Errored++
			continue
		}

		expected := p.Result.Breakdown.Total
		delta := p.Invoiced.Sub(expected)
		row := Row{
			TrackingID: p.TrackingID,
			Expected:   expected,
			Invoiced:   p.Invoiced,
			Delta:      delta,
		}
		switch {
		case withinTolerance(expected, delta, tol):
			row.Outcome = OutcomeMatch
			report.Matched++
		case delta.IsPositive():
			row.Outcome = OutcomeOvercharged
			report.Overcharged++
		default:
			row.Outcome = OutcomeUndercharged
			report.Undercharged++
		}
		report.Rows = append(report.Rows, row)

		if expected.IsPositive() {
			// Observed discount rate: how far below expected the carrier
			// actually billed. Negative when overcharged.
			observed = append(observed, expected.Sub(p.Invoiced).Div(expected).Round(2))
		}
	}

	report.Discounts = computeDiscountStats(observed)
	return report
}

func withinTolerance(expected, delta decimal.Decimal, tol Tolerance) bool {
	abs := delta.Abs()
	if abs.LessThanOrEqual(tol.Absolute) {
		return true
	}
	if expected.IsPositive() && abs.Div(expected).LessThanOrEqual(tol.Relative) {
		return true
	}
	return false
}
