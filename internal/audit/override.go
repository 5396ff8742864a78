package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// ErrInvalidEdit is returned for edits that cannot be applied to the table.
var ErrInvalidEdit = eris.New("audit: invalid edit")

// Edit is a manual change to one cell. Amount takes precedence over Status.
// A non-nil Note replaces the note; an empty Note clears it.
type Edit struct {
	Amount *float64         `json:"amount,omitempty"`
	Status model.CellStatus `json:"status,omitempty"`
	Note   *string          `json:"note,omitempty"`
}

// Empty reports whether the edit changes nothing.
func (e Edit) Empty() bool {
	return e.Amount == nil && e.Status == "" && e.Note == nil
}

// ApplyOverride returns a copy of t with the edit applied to the cell at ref,
// and the user_override_cell event appended to its log. The cell keeps the
// value it had before its first override. Computed rows cannot be edited.
func ApplyOverride(t *model.ComparisonTable, ref model.CellRef, edit Edit, userID string, at time.Time) (*model.ComparisonTable, model.CellAuditEvent, error) {
	if edit.Empty() {
		return nil, model.CellAuditEvent{}, eris.Wrap(ErrInvalidEdit, "empty edit")
	}
	if edit.Amount == nil && edit.Status != "" {
		if !edit.Status.Valid() {
			return nil, model.CellAuditEvent{}, eris.Wrapf(ErrInvalidEdit, "unknown status %q", edit.Status)
		}
		if edit.Status == model.StatusCurrency {
			return nil, model.CellAuditEvent{}, eris.Wrap(ErrInvalidEdit, "currency status needs an amount")
		}
	}

	si, ri, ok := t.Locate(ref.RowID)
	if !ok {
		return nil, model.CellAuditEvent{}, eris.Wrapf(ErrInvalidEdit, "unknown row %q", ref.RowID)
	}
	vi := t.VendorIndex(ref.Vendor)
	if vi < 0 {
		return nil, model.CellAuditEvent{}, eris.Wrapf(ErrInvalidEdit, "unknown vendor %q", ref.Vendor)
	}
	section := t.Sections[si]
	if section.IsComputed(section.Rows[ri]) {
		return nil, model.CellAuditEvent{}, eris.Wrapf(ErrInvalidEdit, "row %q is computed", ref.RowID)
	}
	if vi >= len(section.Rows[ri].Values) {
		return nil, model.CellAuditEvent{}, eris.Wrapf(ErrInvalidEdit, "row %q has no value for %q", ref.RowID, ref.Vendor)
	}

	out := t.Clone()
	cell := &out.Sections[si].Rows[ri].Values[vi]
	prevDisplay, prevAmount := cell.Display, cloneAmount(cell.Amount)

	switch {
	case edit.Amount != nil:
		cell.Amount = model.Float(*edit.Amount)
		cell.Display = model.FormatCurrency(*edit.Amount)
		cell.Status = model.StatusCurrency
		cell.IsConfirmed = true
	case edit.Status != "":
		cell.Amount = nil
		cell.Display = edit.Status.DisplayText()
		cell.Status = edit.Status
		cell.IsConfirmed = edit.Status != model.StatusTBC
	}
	if edit.Note != nil {
		if note := strings.TrimSpace(*edit.Note); note != "" {
			cell.Note = model.String(note)
		} else {
			cell.Note = nil
		}
	}

	if cell.Audit == nil {
		cell.Audit = &model.CellAudit{}
	}
	var user *string
	if userID != "" {
		user = model.String(userID)
	}
	if cell.Audit.Override == nil {
		cell.Audit.Override = &model.OverrideMetadata{
			PreviousDisplay: prevDisplay,
			PreviousAmount:  cloneAmount(prevAmount),
		}
	}
	cell.Audit.Override.OverriddenBy = user
	cell.Audit.Override.OverriddenAt = at

	event := model.CellAuditEvent{
		ID:              uuid.New().String(),
		Type:            model.EventUserOverrideCell,
		Timestamp:       at,
		CellPath:        model.CellPath(section.SectionID(), ref.RowID, ref.Vendor),
		UserID:          cloneString(user),
		Display:         cell.Display,
		Amount:          cloneAmount(cell.Amount),
		PreviousDisplay: prevDisplay,
		PreviousAmount:  prevAmount,
	}
	out.AuditLog = append(out.AuditLog, event.Clone())
	return out, event, nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	return model.String(*s)
}
