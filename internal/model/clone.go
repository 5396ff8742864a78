package model

// Clone returns a deep copy of the table that shares no pointers, slices or
// maps with t.
func (t *ComparisonTable) Clone() *ComparisonTable {
	if t == nil {
		return nil
	}
	out := &ComparisonTable{
		Vendors:             append([]string(nil), t.Vendors...),
		NormalizedHeadcount: cloneFloat(t.NormalizedHeadcount),
		Sections:            make([]TableSection, len(t.Sections)),
	}
	for i, s := range t.Sections {
		out.Sections[i] = s.Clone()
	}
	if t.AuditLog != nil {
		out.AuditLog = make([]CellAuditEvent, len(t.AuditLog))
		for i, e := range t.AuditLog {
			out.AuditLog[i] = e.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the section.
func (s TableSection) Clone() TableSection {
	out := TableSection{ID: s.ID, Name: s.Name, Rows: make([]TableRow, len(s.Rows))}
	for i, r := range s.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Clone returns a deep copy of the row.
func (r TableRow) Clone() TableRow {
	out := r
	out.Values = make([]VendorValue, len(r.Values))
	for i, v := range r.Values {
		out.Values[i] = v.Clone()
	}
	return out
}

// Clone returns a deep copy of the cell.
func (v VendorValue) Clone() VendorValue {
	out := v
	out.Amount = cloneFloat(v.Amount)
	out.Note = cloneString(v.Note)
	if v.Citation != nil {
		c := *v.Citation
		out.Citation = &c
	}
	out.Audit = v.Audit.Clone()
	return out
}

// Clone returns a deep copy of the audit record, or nil.
func (a *CellAudit) Clone() *CellAudit {
	if a == nil {
		return nil
	}
	out := *a
	if a.Sources != nil {
		out.Sources = append([]SourcePointer(nil), a.Sources...)
	}
	if a.Override != nil {
		o := *a.Override
		o.PreviousAmount = cloneFloat(a.Override.PreviousAmount)
		o.OverriddenBy = cloneString(a.Override.OverriddenBy)
		out.Override = &o
	}
	out.Formula = cloneString(a.Formula)
	return &out
}

// Clone returns a deep copy of the event.
func (e CellAuditEvent) Clone() CellAuditEvent {
	out := e
	out.UserID = cloneString(e.UserID)
	out.Amount = cloneFloat(e.Amount)
	out.PreviousAmount = cloneFloat(e.PreviousAmount)
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
