package compare

import (
	"fmt"
	"strings"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/recalc"
)

var feeSections = []string{
	model.SectionSoftware,
	model.SectionImplementation,
	model.SectionService,
}

// BuildTable assembles the initial comparison of the given proposals, one
// vendor column per proposal. Fee rows are keyed by item name within their
// section; a vendor without an answer for a row gets a TBC cell. Discounts
// get one row per vendor item. The returned table is recalculated.
func BuildTable(proposals []model.ParsedProposal) *model.ComparisonTable {
	t := &model.ComparisonTable{}
	seen := make(map[string]bool, len(proposals))
	for _, p := range proposals {
		if p.VendorName == "" || seen[p.VendorName] {
			continue
		}
		seen[p.VendorName] = true
		t.Vendors = append(t.Vendors, p.VendorName)
		if t.NormalizedHeadcount == nil && p.Headcount != nil && *p.Headcount > 0 {
			t.NormalizedHeadcount = model.Float(*p.Headcount)
		}
	}

	for _, name := range feeSections {
		t.Sections = append(t.Sections, feeSection(name, t.Vendors, proposals))
	}
	t.Sections = append(t.Sections, discountSection(t.Vendors, proposals), totalsSection(len(t.Vendors)))

	return recalc.Recalculate(t, nil, nil)
}

func feeSection(name string, vendors []string, proposals []model.ParsedProposal) model.TableSection {
	s := model.TableSection{ID: model.Slug(name), Name: name}
	index := make(map[string]int)
	ids := make(map[string]bool)
	filled := make(map[[2]int]bool)

	for vi, vendor := range vendors {
		p := model.ProposalFor(proposals, vendor)
		for _, item := range p.ItemsBySection()[name] {
			key := strings.ToLower(strings.TrimSpace(item.Name))
			if key == "" {
				continue
			}
			ri, ok := index[key]
			if !ok {
				ri = len(s.Rows)
				index[key] = ri
				s.Rows = append(s.Rows, model.TableRow{
					ID:     uniqueID(ids, s.ID+"_"+model.Slug(item.Name)),
					Label:  strings.TrimSpace(item.Name),
					Values: tbcValues(len(vendors)),
				})
			}
			// The first item of a vendor under a label wins.
			if !filled[[2]int{ri, vi}] {
				filled[[2]int{ri, vi}] = true
				s.Rows[ri].Values[vi] = cellFor(item, *p)
			}
		}
	}

	s.Rows = append(s.Rows, model.TableRow{
		ID:         s.ID + "_subtotal",
		Label:      recalc.SubtotalLabel,
		IsSubtotal: true,
		Values:     tbcValues(len(vendors)),
	})
	return s
}

func discountSection(vendors []string, proposals []model.ParsedProposal) model.TableSection {
	s := model.TableSection{ID: model.Slug(model.SectionDiscounts), Name: model.SectionDiscounts}
	ids := make(map[string]bool)

	for vi, vendor := range vendors {
		p := model.ProposalFor(proposals, vendor)
		for i, item := range p.Discounts {
			values := make([]model.VendorValue, len(vendors))
			for j := range values {
				values[j] = model.NewStatus(model.StatusNA)
			}
			cell := cellFor(item, *p)
			if cell.Amount != nil && *cell.Amount > 0 {
				// Discounts are stored as non-positive contributions.
				cell = withAmount(cell, -*cell.Amount)
			}
			values[vi] = cell

			label := strings.TrimSpace(item.Name)
			if label == "" {
				label = "Discount"
			}
			s.Rows = append(s.Rows, model.TableRow{
				ID:         uniqueID(ids, fmt.Sprintf("discount_%s_%d", model.Slug(vendor), i+1)),
				Label:      vendor + ": " + label,
				Values:     values,
				IsDiscount: true,
			})
		}
	}
	return s
}

func totalsSection(vendors int) model.TableSection {
	s := model.TableSection{ID: model.Slug(model.SectionTotals), Name: model.SectionTotals}
	for _, id := range model.TotalsRowIDs {
		s.Rows = append(s.Rows, model.TableRow{
			ID:     id,
			Label:  model.TotalsRowLabels[id],
			Values: tbcValues(vendors),
		})
	}
	return s
}

// cellFor converts an extracted line item into a cell.
func cellFor(item model.FeeLineItem, p model.ParsedProposal) model.VendorValue {
	var v model.VendorValue
	switch {
	case item.Amount != nil:
		v = model.NewAmount(*item.Amount)
	case item.Status.Valid() && item.Status != model.StatusCurrency:
		v = model.NewStatus(item.Status)
	default:
		v = model.NewStatus(model.StatusTBC)
	}
	if note := strings.TrimSpace(item.Note); note != "" {
		v.Note = model.String(note)
	}
	if item.Excerpt != "" {
		v.Citation = &model.Citation{
			DocumentID:   p.DocumentID,
			DocumentName: p.DocumentName,
			VendorName:   p.VendorName,
			Excerpt:      item.Excerpt,
			Page:         item.Page,
		}
	}
	return v
}

func withAmount(v model.VendorValue, amount float64) model.VendorValue {
	v.Amount = model.Float(amount)
	v.Display = model.FormatCurrency(amount)
	return v
}

func tbcValues(n int) []model.VendorValue {
	values := make([]model.VendorValue, n)
	for i := range values {
		values[i] = model.NewStatus(model.StatusTBC)
	}
	return values
}

func uniqueID(ids map[string]bool, id string) string {
	candidate := id
	for n := 2; ids[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", id, n)
	}
	ids[candidate] = true
	return candidate
}
