package store

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// analysisColumns holds the JSON encoded parts of an analysis.
type analysisColumns struct {
	table   []byte
	toggles []byte
	hidden  []byte
}

func encodeAnalysis(a *model.Analysis) (analysisColumns, error) {
	if a.Table == nil {
		return analysisColumns{}, eris.New("store: analysis without table")
	}
	table, err := json.Marshal(a.Table)
	if err != nil {
		return analysisColumns{}, eris.Wrap(err, "store: marshal table")
	}
	toggles := a.DiscountToggles
	if toggles == nil {
		toggles = model.DiscountToggles{}
	}
	togglesJSON, err := json.Marshal(toggles)
	if err != nil {
		return analysisColumns{}, eris.Wrap(err, "store: marshal discount toggles")
	}
	hidden, err := json.Marshal(a.HiddenRows)
	if err != nil {
		return analysisColumns{}, eris.Wrap(err, "store: marshal hidden rows")
	}
	return analysisColumns{table: table, toggles: togglesJSON, hidden: hidden}, nil
}

func decodeAnalysis(a *model.Analysis, cols analysisColumns) error {
	a.Table = &model.ComparisonTable{}
	if err := json.Unmarshal(cols.table, a.Table); err != nil {
		return eris.Wrap(err, "store: unmarshal table")
	}
	if err := json.Unmarshal(cols.toggles, &a.DiscountToggles); err != nil {
		return eris.Wrap(err, "store: unmarshal discount toggles")
	}
	if err := json.Unmarshal(cols.hidden, &a.HiddenRows); err != nil {
		return eris.Wrap(err, "store: unmarshal hidden rows")
	}
	return nil
}

func encodeEvent(e model.CellAuditEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	return data, eris.Wrap(err, "store: marshal audit event")
}

func decodeEvent(data []byte) (model.CellAuditEvent, error) {
	var e model.CellAuditEvent
	err := json.Unmarshal(data, &e)
	return e, eris.Wrap(err, "store: unmarshal audit event")
}
