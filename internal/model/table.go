package model

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Recognized section names.
const (
	SectionSoftware       = "Software Fees (Recurring)"
	SectionImplementation = "Implementation Fees (One-Time)"
	SectionService        = "Service Fees (Recurring)"
	SectionDiscounts      = "Discounts"
	SectionTotals         = "Totals"
)

// Row ids of the six computed rows in the Totals section.
const (
	RowYear1BeforeDiscounts = "year1_before_discounts"
	RowYear1Discounts       = "year1_discounts"
	RowYear1                = "year1"
	RowYear2                = "year2"
	RowYear3                = "year3"
	RowTotal3Yr             = "total3yr"
)

// TotalsRowIDs lists the Totals rows in display order.
var TotalsRowIDs = []string{
	RowYear1BeforeDiscounts,
	RowYear1Discounts,
	RowYear1,
	RowYear2,
	RowYear3,
	RowTotal3Yr,
}

// TotalsRowLabels holds the default label of each Totals row.
var TotalsRowLabels = map[string]string{
	RowYear1BeforeDiscounts: "Year 1 Total (Before Discounts)",
	RowYear1Discounts:       "Year 1 Discounts",
	RowYear1:                "Year 1 Total",
	RowYear2:                "Year 2 Total",
	RowYear3:                "Year 3 Total",
	RowTotal3Yr:             "3-Year Total",
}

// TableRow is one line item across all vendors.
type TableRow struct {
	ID         string        `json:"id"`
	Label      string        `json:"label"`
	Values     []VendorValue `json:"values"`
	IsSubtotal bool          `json:"isSubtotal,omitempty"`
	IsDiscount bool          `json:"isDiscount,omitempty"`
}

// TableSection groups the rows of one fee category.
type TableSection struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Rows []TableRow `json:"rows"`
}

// ComparisonTable is the vendor comparison. Every row's Values is index
// aligned with Vendors.
type ComparisonTable struct {
	Vendors             []string         `json:"vendors"`
	NormalizedHeadcount *float64         `json:"normalizedHeadcount"`
	Sections            []TableSection   `json:"sections"`
	AuditLog            []CellAuditEvent `json:"auditLog,omitempty"`
}

// SectionID returns the section's id, deriving a slug from its name when absent.
func (s TableSection) SectionID() string {
	if s.ID != "" {
		return s.ID
	}
	return Slug(s.Name)
}

// IsTotals reports whether the section is the Totals section.
func (s TableSection) IsTotals() bool {
	return s.Name == SectionTotals
}

// IsDiscounts reports whether the section is the Discounts section.
func (s TableSection) IsDiscounts() bool {
	return s.Name == SectionDiscounts
}

// IsFeeSection reports whether the section is summed into a subtotal.
func (s TableSection) IsFeeSection() bool {
	return !s.IsTotals() && !s.IsDiscounts()
}

// SubtotalIndex returns the index of the section's subtotal row or -1.
func (s TableSection) SubtotalIndex() int {
	for i, r := range s.Rows {
		if r.IsSubtotal {
			return i
		}
	}
	return -1
}

// IsComputed reports whether the row's values are written only by the
// recalculation engine.
func (s TableSection) IsComputed(row TableRow) bool {
	return row.IsSubtotal || s.IsTotals()
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases name and joins its alphanumeric runs with underscores.
func Slug(name string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// IsRecurringSection reports whether fees in the named section repeat every
// year and scale with headcount.
func IsRecurringSection(name string) bool {
	return name == SectionSoftware || name == SectionService
}

// Section returns the first section with the given name, or nil.
func (t *ComparisonTable) Section(name string) *TableSection {
	for i := range t.Sections {
		if t.Sections[i].Name == name {
			return &t.Sections[i]
		}
	}
	return nil
}

// VendorIndex returns the column of vendor or -1.
func (t *ComparisonTable) VendorIndex(vendor string) int {
	for i, v := range t.Vendors {
		if v == vendor {
			return i
		}
	}
	return -1
}

// CellRef addresses one cell by row id and vendor name.
type CellRef struct {
	RowID  string `json:"rowId"`
	Vendor string `json:"vendor"`
}

// Locate returns the section and row indexes of rowID.
func (t *ComparisonTable) Locate(rowID string) (sectionIdx, rowIdx int, ok bool) {
	for si, s := range t.Sections {
		for ri, r := range s.Rows {
			if r.ID == rowID {
				return si, ri, true
			}
		}
	}
	return -1, -1, false
}

// CellPath returns the structural path of a cell used by audit events.
func CellPath(sectionID, rowID, vendor string) string {
	return "sections/" + sectionID + "/rows/" + rowID + "/vendors/" + vendor
}

// Validate checks the structural invariants the engines assume: unique vendors,
// unique row ids, and one value per vendor on every row.
func (t *ComparisonTable) Validate() error {
	seenVendor := make(map[string]bool, len(t.Vendors))
	for _, v := range t.Vendors {
		if seenVendor[v] {
			return eris.Errorf("model: duplicate vendor %q", v)
		}
		seenVendor[v] = true
	}

	seenRow := make(map[string]bool)
	for _, s := range t.Sections {
		subtotals := 0
		for _, r := range s.Rows {
			if r.ID == "" {
				return eris.Errorf("model: row without id in section %q", s.Name)
			}
			if seenRow[r.ID] {
				return eris.Errorf("model: duplicate row id %q", r.ID)
			}
			seenRow[r.ID] = true
			if len(r.Values) != len(t.Vendors) {
				return eris.Errorf("model: row %q has %d values for %d vendors", r.ID, len(r.Values), len(t.Vendors))
			}
			if r.IsSubtotal {
				subtotals++
			}
		}
		if s.IsFeeSection() && subtotals > 1 {
			return eris.Errorf("model: section %q has %d subtotal rows", s.Name, subtotals)
		}
	}
	return nil
}
