package surcharge

import (
	"github.com/shopspring/decimal"

	"parcel-cost/internal/rates"
	raterr "parcel-cost/pkg/errors"
)

// LineItem is one triggered surcharge amount, rounded to cents. Discount
// items carry negative amounts.
type LineItem struct {
	RuleID   string
	Amount   decimal.Decimal
	Discount bool
}

// Evaluate runs the catalogue against the resolved facts and returns the
// triggered line items in catalogue order.
//
// Rules whose validity window excludes the ship date are skipped. Within an
// exclusivity group exactly one rule fires: the group's triggered rule with
// the best explicit priority, breaking ties by catalogue order. Rules with
// no group stack freely, so a demand-period variant fires alongside its
// standard counterpart unless the catalogue places both in one group.
//
// tables resolves FormulaTable references; callers pass the carrier's
// auxiliary tables. A table lookup miss propagates as RATE_NOT_FOUND.
func Evaluate(rules []Rule, f Facts, tables map[string]*rates.Table) ([]LineItem, error) {
	// First pass: eligibility and triggers.
	fired := make([]bool, len(rules))
	for i, r := range rules {
		if r.Window != nil && !r.Window.Contains(f.ShipDate) {
			continue
		}
		fired[i] = r.Trigger.Matches(f)
	}

	// Second pass: group resolution. The winner per group is the triggered
	// rule with the lowest explicit priority, then the earliest catalogue
	// position; explicit priorities beat implicit ones.
	winners := make(map[string]int)
	for i, r := range rules {
		if !fired[i] || r.Group == "" {
			continue
		}
		j, seen := winners[r.Group]
		if !seen || better(rules[i], i, rules[j], j) {
			winners[r.Group] = i
		}
	}
	for i, r := range rules {
		if fired[i] && r.Group != "" && winners[r.Group] != i {
			fired[i] = false
		}
	}

	// Emit in catalogue order so the itemized breakdown is reproducible.
	items := make([]LineItem, 0, len(rules))
	for i, r := range rules {
		if !fired[i] {
			continue
		}
		amount, err := amountFor(r, f, tables)
		if err != nil {
			return nil, err
		}
		items = append(items, LineItem{RuleID: r.ID, Amount: amount, Discount: r.Discount})
	}
	return items, nil
}

// better reports whether candidate rule a (at catalogue index ai) outranks
// the current winner b (at index bi) within their shared group.
func better(a Rule, ai int, b Rule, bi int) bool {
	switch {
	case a.Priority != nil && b.Priority != nil:
		if *a.Priority != *b.Priority {
			return *a.Priority < *b.Priority
		}
		return ai < bi
	case a.Priority != nil:
		return true
	case b.Priority != nil:
		return false
	default:
		return ai < bi
	}
}

func amountFor(r Rule, f Facts, tables map[string]*rates.Table) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch r.Formula.Kind {
	case FormulaPerPound:
		amount = r.Formula.Amount.Mul(decimal.NewFromFloat(f.BillableWeightLbs))
	case FormulaTable:
		t, ok := tables[r.Formula.TableName]
		if !ok {
			return decimal.Zero, raterr.NewConfiguration("rule " + r.ID + " references unknown table " + r.Formula.TableName)
		}
		charge, err := t.Lookup(f.BillableWeightLbs, f.Zone)
		if err != nil {
			return decimal.Zero, err
		}
		amount = charge
	default: // FormulaFlat
		amount = r.Formula.Amount
	}
	amount = amount.Round(2)
	if r.Discount {
		amount = amount.Neg()
	}
	return amount, nil
}
