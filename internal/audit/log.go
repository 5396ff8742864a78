// Package audit builds and extends the provenance of comparison table cells:
// the append-only event log, source pointers and manual overrides.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// BuildInitialAuditLog returns one extraction event per data cell, in
// section, row and vendor order. Computed rows have no extraction event.
func BuildInitialAuditLog(t *model.ComparisonTable, at time.Time) []model.CellAuditEvent {
	var events []model.CellAuditEvent
	for _, s := range t.Sections {
		sectionID := s.SectionID()
		for _, row := range s.Rows {
			if s.IsComputed(row) {
				continue
			}
			for vi, v := range row.Values {
				if vi >= len(t.Vendors) {
					break
				}
				events = append(events, model.CellAuditEvent{
					ID:        uuid.New().String(),
					Type:      model.EventExtractionSetCell,
					Timestamp: at,
					CellPath:  model.CellPath(sectionID, row.ID, t.Vendors[vi]),
					Display:   v.Display,
					Amount:    cloneAmount(v.Amount),
				})
			}
		}
	}
	return events
}

func cloneAmount(f *float64) *float64 {
	if f == nil {
		return nil
	}
	return model.Float(*f)
}
