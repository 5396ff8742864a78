// Package recalc derives every subtotal and total of a comparison table from
// its data rows under the user's discount toggles and hidden rows.
package recalc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// Formulas of the Totals rows.
const (
	FormulaYear1BeforeDiscounts = "software_subtotal + implementation_subtotal + service_subtotal"
	FormulaYear1Discounts       = "SUM(discounts)"
	FormulaYear1                = "year1_before_discounts + year1_discounts"
	FormulaYear2                = "software_subtotal + service_subtotal + year1_discounts"
	FormulaYear3                = "year2"
	FormulaTotal3Yr             = "year1 + year2 + year3"
)

// SubtotalLabel is the label of subtotal rows this package creates.
const SubtotalLabel = "Subtotal"

// subtotalSections always carry a subtotal row after recalculation.
var subtotalSections = map[string]bool{
	model.SectionSoftware:       true,
	model.SectionImplementation: true,
	model.SectionService:        true,
}

var unconfirmedNote = regexp.MustCompile(`^\d+ item\(s\) still unconfirmed$`)

// Recalculate returns a new table whose subtotal and Totals rows are derived
// from t's data rows. Hidden rows and disabled discounts are excluded from
// every aggregate. t is not modified.
func Recalculate(t *model.ComparisonTable, toggles model.DiscountToggles, hidden model.HiddenRows) *model.ComparisonTable {
	out := &model.ComparisonTable{
		Vendors:  append([]string(nil), t.Vendors...),
		Sections: make([]model.TableSection, 0, len(t.Sections)),
	}
	if t.NormalizedHeadcount != nil {
		out.NormalizedHeadcount = model.Float(*t.NormalizedHeadcount)
	}
	if t.AuditLog != nil {
		out.AuditLog = make([]model.CellAuditEvent, len(t.AuditLog))
		for i, e := range t.AuditLog {
			out.AuditLog[i] = e.Clone()
		}
	}

	// Pass 1: section subtotals.
	subtotals := make(map[string][]result, len(t.Sections))
	for _, s := range t.Sections {
		if !s.IsFeeSection() {
			out.Sections = append(out.Sections, s.Clone())
			continue
		}
		section, results := subtotalSection(s, len(t.Vendors), hidden)
		if _, seen := subtotals[s.Name]; !seen {
			subtotals[s.Name] = results
		}
		out.Sections = append(out.Sections, section)
	}

	// Pass 2: totals, reading only from the pass 1 output.
	totals := computeTotals(out, subtotals, toggles, hidden)
	for i := range out.Sections {
		if out.Sections[i].IsTotals() {
			out.Sections[i] = writeTotals(out.Sections[i], totals)
		}
	}
	return out
}

// subtotalSection rebuilds a fee section with its subtotal row recomputed.
func subtotalSection(s model.TableSection, vendors int, hidden model.HiddenRows) (model.TableSection, []result) {
	out := model.TableSection{ID: s.ID, Name: s.Name, Rows: make([]model.TableRow, 0, len(s.Rows)+1)}

	results := make([]result, vendors)
	var ids []string
	for vi := 0; vi < vendors; vi++ {
		results[vi], ids = sumSection(s, vi, hidden)
	}
	formula := "SUM(" + strings.Join(ids, ", ") + ")"

	idx := s.SubtotalIndex()
	for i, row := range s.Rows {
		if i != idx {
			out.Rows = append(out.Rows, row.Clone())
			continue
		}
		out.Rows = append(out.Rows, computedRow(row, vendors, results, formula))
	}
	if idx < 0 && subtotalSections[s.Name] {
		row := model.TableRow{ID: s.SectionID() + "_subtotal", Label: SubtotalLabel, IsSubtotal: true}
		out.Rows = append(out.Rows, computedRow(row, vendors, results, formula))
	}
	return out, results
}

// computedRow returns a copy of row whose cells hold results.
func computedRow(row model.TableRow, vendors int, results []result, formula string) model.TableRow {
	out := model.TableRow{
		ID:         row.ID,
		Label:      row.Label,
		IsSubtotal: row.IsSubtotal,
		IsDiscount: row.IsDiscount,
		Values:     make([]model.VendorValue, vendors),
	}
	for vi := 0; vi < vendors; vi++ {
		var prev model.VendorValue
		if vi < len(row.Values) {
			prev = row.Values[vi]
		}
		out.Values[vi] = computedValue(prev, results[vi], formula)
	}
	return out
}

// computedValue builds a derived cell. Sources and override metadata of the
// previous cell are carried over; everything else is derived from r.
func computedValue(prev model.VendorValue, r result, formula string) model.VendorValue {
	amount := r.amount()
	v := model.VendorValue{
		Amount:      &amount,
		Display:     model.FormatCurrency(amount),
		IsConfirmed: r.tbc == 0,
		Status:      model.StatusCurrency,
	}

	switch {
	case r.tbc > 0:
		v.Note = model.String(fmt.Sprintf("%d item(s) still unconfirmed", r.tbc))
	case prev.Note != nil && !unconfirmedNote.MatchString(*prev.Note):
		v.Note = model.String(*prev.Note)
	}

	if prev.Citation != nil {
		c := *prev.Citation
		v.Citation = &c
	}

	audit := &model.CellAudit{Formula: model.String(formula)}
	if prevAudit := prev.Audit.Clone(); prevAudit != nil {
		audit.Sources = prevAudit.Sources
		audit.Override = prevAudit.Override
	}
	v.Audit = audit
	return v
}

// vendorTotals holds the six Totals results of one vendor.
type vendorTotals map[string]result

func computeTotals(t *model.ComparisonTable, subtotals map[string][]result, toggles model.DiscountToggles, hidden model.HiddenRows) []vendorTotals {
	out := make([]vendorTotals, len(t.Vendors))
	discounts := t.Section(model.SectionDiscounts)

	for vi, vendor := range t.Vendors {
		software := sectionResult(t, subtotals, model.SectionSoftware, vi, hidden, true)
		impl := sectionResult(t, subtotals, model.SectionImplementation, vi, hidden, false)
		service := sectionResult(t, subtotals, model.SectionService, vi, hidden, false)
		discount := sumDiscounts(discounts, vendor, vi, toggles, hidden)

		beforeDiscounts := software.add(impl).add(service)
		year1 := beforeDiscounts.add(discount)
		year2 := software.add(service).add(discount)
		year3 := year2

		out[vi] = vendorTotals{
			model.RowYear1BeforeDiscounts: beforeDiscounts,
			model.RowYear1Discounts:       discount,
			model.RowYear1:                year1,
			model.RowYear2:                year2,
			model.RowYear3:                year3,
			model.RowTotal3Yr:             year1.add(year2).add(year3),
		}
	}
	return out
}

// sectionResult returns a vendor's contribution from the named section. A
// missing section contributes a confirmed zero. When fromSubtotal is set the
// section's pass 1 subtotal is reused; otherwise the data rows are summed
// again.
func sectionResult(t *model.ComparisonTable, subtotals map[string][]result, name string, vendorIdx int, hidden model.HiddenRows, fromSubtotal bool) result {
	if fromSubtotal {
		if results, ok := subtotals[name]; ok && vendorIdx < len(results) {
			return results[vendorIdx]
		}
	}
	s := t.Section(name)
	if s == nil {
		return result{}
	}
	r, _ := sumSection(*s, vendorIdx, hidden)
	return r
}

var totalsFormulas = map[string]string{
	model.RowYear1BeforeDiscounts: FormulaYear1BeforeDiscounts,
	model.RowYear1Discounts:       FormulaYear1Discounts,
	model.RowYear1:                FormulaYear1,
	model.RowYear2:                FormulaYear2,
	model.RowYear3:                FormulaYear3,
	model.RowTotal3Yr:             FormulaTotal3Yr,
}

// writeTotals rebuilds the Totals section with the six well-known rows
// recomputed. Rows with other ids are copied unchanged.
func writeTotals(s model.TableSection, totals []vendorTotals) model.TableSection {
	out := model.TableSection{ID: s.ID, Name: s.Name, Rows: make([]model.TableRow, 0, len(s.Rows))}
	for _, row := range s.Rows {
		formula, known := totalsFormulas[row.ID]
		if !known {
			out.Rows = append(out.Rows, row.Clone())
			continue
		}
		results := make([]result, len(totals))
		for vi := range totals {
			results[vi] = totals[vi][row.ID]
		}
		out.Rows = append(out.Rows, computedRow(row, len(totals), results, formula))
	}
	return out
}
