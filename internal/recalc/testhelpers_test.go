package recalc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

func amountRow(id, label string, amounts ...float64) model.TableRow {
	row := model.TableRow{ID: id, Label: label}
	for _, a := range amounts {
		row.Values = append(row.Values, model.NewAmount(a))
	}
	return row
}

func cellsRow(id, label string, cells ...model.VendorValue) model.TableRow {
	return model.TableRow{ID: id, Label: label, Values: cells}
}

func section(name string, rows ...model.TableRow) model.TableSection {
	return model.TableSection{ID: model.Slug(name), Name: name, Rows: rows}
}

func totalsSection(vendors int) model.TableSection {
	s := model.TableSection{ID: "totals", Name: model.SectionTotals}
	for _, id := range model.TotalsRowIDs {
		s.Rows = append(s.Rows, model.TableRow{
			ID:     id,
			Label:  model.TotalsRowLabels[id],
			Values: make([]model.VendorValue, vendors),
		})
	}
	return s
}

func newTable(vendors []string, sections ...model.TableSection) *model.ComparisonTable {
	return &model.ComparisonTable{Vendors: vendors, Sections: sections}
}

// fullTable has two vendors with software, implementation, service and
// discount rows.
//
//	Acme:   software 12000, impl 5000, service 2000, discount -1000
//	Zenith: software  9000, impl 4000, service 3000, discount  -500
func fullTable() *model.ComparisonTable {
	vendors := []string{"Acme", "Zenith"}
	discount := amountRow("discount_vendorA_1", "Multi-year discount", -1000, -500)
	discount.IsDiscount = true
	return newTable(vendors,
		section(model.SectionSoftware,
			amountRow("sw_core", "Core HR", 10000, 6000),
			amountRow("sw_payroll", "Payroll", 2000, 3000),
		),
		section(model.SectionImplementation,
			amountRow("impl_setup", "Setup", 5000, 4000),
		),
		section(model.SectionService,
			amountRow("svc_support", "Support", 2000, 3000),
		),
		section(model.SectionDiscounts, discount),
		totalsSection(len(vendors)),
	)
}

func cell(t *testing.T, table *model.ComparisonTable, rowID, vendor string) model.VendorValue {
	t.Helper()
	si, ri, ok := table.Locate(rowID)
	require.True(t, ok, "row %q not found", rowID)
	vi := table.VendorIndex(vendor)
	require.GreaterOrEqual(t, vi, 0, "vendor %q not found", vendor)
	return table.Sections[si].Rows[ri].Values[vi]
}

func amountOf(t *testing.T, table *model.ComparisonTable, rowID, vendor string) float64 {
	t.Helper()
	v := cell(t, table, rowID, vendor)
	require.NotNil(t, v.Amount, "row %q vendor %q has no amount", rowID, vendor)
	return *v.Amount
}
