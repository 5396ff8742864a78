package playbook

import "github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"

// ApplyRules returns a copy of t with the enabled rules applied, and the number
// of cells changed. Rules are tried in the given order. The first matching
// rule whose action changes the cell, or already holds for it, ends the
// search for that cell. Rules with invalid payloads are passed over.
// Computed rows and overridden cells are never touched. t is not modified.
func ApplyRules(t *model.ComparisonTable, rules []model.PlaybookRule) (*model.ComparisonTable, int) {
	out := t.Clone()

	compiled := make([]Compiled, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			compiled = append(compiled, Compile(r))
		}
	}
	if len(compiled) == 0 {
		return out, 0
	}

	modified := 0
	for si := range out.Sections {
		s := &out.Sections[si]
		for ri := range s.Rows {
			row := &s.Rows[ri]
			if s.IsComputed(*row) {
				continue
			}
			for vi := range row.Values {
				if vi >= len(out.Vendors) {
					break
				}
				cell := &row.Values[vi]
				if cell.Audit.IsOverridden() {
					continue
				}
				if applyFirst(compiled, out.Vendors[vi], model.CellContext{
					Label:       row.Label,
					SectionName: s.Name,
					Display:     cell.Display,
				}, cell) {
					modified++
				}
			}
		}
	}
	return out, modified
}

func applyFirst(rules []Compiled, vendor string, ctx model.CellContext, cell *model.VendorValue) bool {
	for _, r := range rules {
		if !r.Rule.AppliesToVendor(vendor) || !r.Matches(ctx) {
			continue
		}
		if r.Satisfied(*cell) {
			return false
		}
		if r.Apply(cell) {
			return true
		}
	}
	return false
}
