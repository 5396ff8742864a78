package recalc

import (
	"github.com/shopspring/decimal"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// Rescale returns a copy of t with recurring fees scaled from the table's
// normalized headcount to headcount. Implementation fees are one-time and
// left alone, as are cells without an amount. Subtotals and totals are not
// touched; run Recalculate on the result.
//
// When the table has no known positive headcount the copy only records the
// new headcount.
func Rescale(t *model.ComparisonTable, headcount float64) *model.ComparisonTable {
	out := t.Clone()
	old := t.NormalizedHeadcount
	out.NormalizedHeadcount = model.Float(headcount)
	if old == nil || *old <= 0 || headcount <= 0 || *old == headcount {
		return out
	}

	ratio := decimal.NewFromFloat(headcount).Div(decimal.NewFromFloat(*old))
	for si := range out.Sections {
		s := &out.Sections[si]
		if !model.IsRecurringSection(s.Name) {
			continue
		}
		for ri := range s.Rows {
			row := &s.Rows[ri]
			if row.IsSubtotal {
				continue
			}
			for vi := range row.Values {
				v := &row.Values[vi]
				if v.Amount == nil || *v.Amount == 0 {
					continue
				}
				scaled := decimal.NewFromFloat(*v.Amount).Mul(ratio).Round(0).InexactFloat64()
				v.Amount = &scaled
				v.Display = model.FormatCurrency(scaled)
			}
		}
	}
	return out
}
