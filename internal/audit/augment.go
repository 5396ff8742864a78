package audit

import "github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"

// AugmentAuditData attaches a source pointer to every cell of t that has
// none yet. A cell's citation is preferred; otherwise the pointer names the
// vendor's proposal document. Computed rows only get a pointer from a
// citation. t is modified in place.
func AugmentAuditData(t *model.ComparisonTable, proposals []model.ParsedProposal) {
	for si := range t.Sections {
		s := &t.Sections[si]
		for ri := range s.Rows {
			row := &s.Rows[ri]
			computed := s.IsComputed(*row)
			for vi := range row.Values {
				if vi >= len(t.Vendors) {
					break
				}
				cell := &row.Values[vi]
				if cell.Audit == nil {
					cell.Audit = &model.CellAudit{}
				}
				if len(cell.Audit.Sources) > 0 {
					continue
				}
				proposal := model.ProposalFor(proposals, t.Vendors[vi])

				var (
					ptr model.SourcePointer
					ok  bool
				)
				switch {
				case cell.Citation != nil:
					ptr, ok = citationPointer(*cell.Citation, proposal, t.Vendors[vi]), true
				case !computed && proposal != nil:
					ptr, ok = documentPointer(*proposal), true
				}
				if ok {
					cell.Audit.Sources = append(cell.Audit.Sources, ptr)
				}
			}
		}
	}
}

func citationPointer(c model.Citation, p *model.ParsedProposal, vendor string) model.SourcePointer {
	ptr := model.SourcePointer{
		DocumentID:   c.DocumentID,
		DocumentName: c.DocumentName,
		VendorName:   c.VendorName,
		Excerpt:      c.Excerpt,
		Page:         c.Page,
		StartOffset:  -1,
		EndOffset:    -1,
	}
	if p != nil {
		if ptr.DocumentID == "" {
			ptr.DocumentID = p.DocumentID
		}
		if ptr.DocumentName == "" {
			ptr.DocumentName = p.DocumentName
		}
	}
	if ptr.VendorName == "" {
		ptr.VendorName = vendor
	}
	return ptr
}

func documentPointer(p model.ParsedProposal) model.SourcePointer {
	return model.SourcePointer{
		DocumentID:   p.DocumentID,
		DocumentName: p.DocumentName,
		VendorName:   p.VendorName,
		StartOffset:  -1,
		EndOffset:    -1,
	}
}
