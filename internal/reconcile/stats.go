package reconcile

import (
	"github.com/shopspring/decimal"
)

// DiscountStats summarizes the discount rates observed across a run:
// historically these fed contract renegotiation, where the modal rate
// matters more than the mean because most lanes bill at exactly one
// contracted percentage.
type DiscountStats struct {
	Samples int             `json:"samples"`
	Average decimal.Decimal `json:"average"`
	Mode    decimal.Decimal `json:"mode"`
}

// computeDiscountStats derives the average and modal observed discount from
// per-row rates already rounded to two places. Mode ties break toward the
// smaller rate so reruns are deterministic.
func computeDiscountStats(observed []decimal.Decimal) DiscountStats {
	stats := DiscountStats{Samples: len(observed)}
	if len(observed) == 0 {
		return stats
	}

	sum := decimal.Zero
	counts := make(map[string]int, len(observed))
	for _, rate := range observed {
		sum = sum.Add(rate)
		counts[rate.String()]++
	}
	stats.Average = sum.Div(decimal.NewFromInt(int64(len(observed)))).Round(4)

	var mode decimal.Decimal
	best := 0
	for key, n := range counts {
		rate := decimal.RequireFromString(key)
		if n > best || (n == best && rate.LessThan(mode)) {
			mode, best = rate, n
		}
	}
	stats.Mode = mode
	return stats
}
