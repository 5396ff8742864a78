package recalc

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// result is a running sum plus the number of unconfirmed addends behind it.
type result struct {
	sum decimal.Decimal
	tbc int
}

func (r result) add(o result) result {
	return result{sum: r.sum.Add(o.sum), tbc: r.tbc + o.tbc}
}

func (r result) amount() float64 {
	return r.sum.InexactFloat64()
}

// contribute folds one cell into r. Cells with no amount either count as a
// categorical zero or as one unconfirmed item.
func (r result) contribute(v model.VendorValue) result {
	switch {
	case v.Amount != nil:
		r.sum = r.sum.Add(decimal.NewFromFloat(*v.Amount))
	case v.IsUnconfirmed():
		r.tbc++
	}
	return r
}

// sumSection sums one vendor column over the section's visible data rows and
// returns the ids of the rows that took part.
func sumSection(s model.TableSection, vendorIdx int, hidden model.HiddenRows) (result, []string) {
	var r result
	var ids []string
	for _, row := range s.Rows {
		if row.IsSubtotal || hidden.Has(row.ID) {
			continue
		}
		ids = append(ids, row.ID)
		if vendorIdx < len(row.Values) {
			r = r.contribute(row.Values[vendorIdx])
		}
	}
	return r, ids
}

// discountSkipDisplays are discount cells that mean "no discount offered".
var discountSkipDisplays = map[string]bool{
	"n/a":          true,
	"-":            true,
	"not included": true,
}

// sumDiscounts sums a vendor's enabled, visible discount rows.
func sumDiscounts(s *model.TableSection, vendor string, vendorIdx int, toggles model.DiscountToggles, hidden model.HiddenRows) result {
	var r result
	if s == nil {
		return r
	}
	for _, row := range s.Rows {
		if row.IsSubtotal || hidden.Has(row.ID) || !toggles.Enabled(vendor, row.ID) {
			continue
		}
		if vendorIdx >= len(row.Values) {
			continue
		}
		v := row.Values[vendorIdx]
		if v.Status == model.StatusNA || v.Status == model.StatusNotIncluded {
			continue
		}
		if discountSkipDisplays[strings.ToLower(strings.TrimSpace(v.Display))] {
			continue
		}
		r = r.contribute(v)
	}
	return r
}
