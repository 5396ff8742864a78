package playbook

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// Action is a parsed rule action. The concrete types are SetStatus and AddNote.
type Action interface {
	// satisfied reports whether cell already holds the action's result.
	satisfied(cell model.VendorValue) bool
	// apply mutates cell and reports whether anything changed.
	apply(cell *model.VendorValue, rule model.PlaybookRule) bool
}

// SetStatus replaces a cell's answer with a categorical status.
type SetStatus struct {
	Status model.CellStatus
}

// AddNote appends text to a cell's note.
type AddNote struct {
	Text string
}

// ParseAction decodes a rule's JSON payload into an Action.
func ParseAction(actionType model.ActionType, payload string) (Action, error) {
	var value string
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return nil, eris.Wrapf(err, "playbook: decode %s payload", actionType)
	}

	switch actionType {
	case model.ActionSetStatus:
		status := model.CellStatus(value)
		if !status.Valid() {
			return nil, eris.Errorf("playbook: unknown status %q", value)
		}
		// A currency cell needs an amount, which a rule cannot supply.
		if status == model.StatusCurrency {
			return nil, eris.New("playbook: set_status cannot target currency")
		}
		return SetStatus{Status: status}, nil
	case model.ActionAddNote:
		text := strings.TrimSpace(value)
		if text == "" {
			return nil, eris.New("playbook: empty note")
		}
		return AddNote{Text: text}, nil
	default:
		return nil, eris.Errorf("playbook: unknown action type %q", actionType)
	}
}

// ApplyAction applies rule's action to cell in place and reports whether the
// cell changed. A rule whose payload does not parse changes nothing.
func ApplyAction(rule model.PlaybookRule, cell *model.VendorValue) bool {
	action, err := ParseAction(rule.ActionType, rule.ActionValue)
	if err != nil {
		return false
	}
	return action.apply(cell, rule)
}

func (a SetStatus) satisfied(cell model.VendorValue) bool {
	return cell.Status == a.Status && cell.Amount == nil &&
		cell.Display == a.Status.DisplayText() && cell.IsConfirmed == (a.Status != model.StatusTBC)
}

func (a SetStatus) apply(cell *model.VendorValue, rule model.PlaybookRule) bool {
	if a.satisfied(*cell) {
		return false
	}
	cell.Status = a.Status
	cell.Display = a.Status.DisplayText()
	cell.Amount = nil
	cell.IsConfirmed = a.Status != model.StatusTBC
	stamp(cell, rule)
	return true
}

func (a AddNote) satisfied(cell model.VendorValue) bool {
	return strings.Contains(cell.NoteText(), a.Text)
}

func (a AddNote) apply(cell *model.VendorValue, rule model.PlaybookRule) bool {
	if a.satisfied(*cell) {
		return false
	}
	if existing := cell.NoteText(); existing == "" {
		cell.Note = model.String(a.Text)
	} else {
		cell.Note = model.String(existing + "; " + a.Text)
	}
	stamp(cell, rule)
	return true
}

func stamp(cell *model.VendorValue, rule model.PlaybookRule) {
	if cell.Audit == nil {
		cell.Audit = &model.CellAudit{}
	}
	cell.Audit.PlaybookRuleID = rule.ID
	cell.Audit.PlaybookRuleVersion = rule.Version
}
