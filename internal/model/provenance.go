package model

import "time"

// Audit event types.
const (
	EventExtractionSetCell = "extraction_set_cell"
	EventUserOverrideCell  = "user_override_cell"
)

// SourcePointer locates the text a cell was read from. Offsets of -1 mean the
// passage has not been located in the document text.
type SourcePointer struct {
	DocumentID   string `json:"documentId"`
	DocumentName string `json:"documentName,omitempty"`
	VendorName   string `json:"vendorName,omitempty"`
	Excerpt      string `json:"excerpt,omitempty"`
	Page         int    `json:"page,omitempty"`
	StartOffset  int    `json:"startOffset"`
	EndOffset    int    `json:"endOffset"`
}

// Located reports whether the pointer carries character offsets.
func (p SourcePointer) Located() bool {
	return p.StartOffset >= 0 && p.EndOffset >= 0
}

// OverrideMetadata records a manual edit and the value it replaced.
type OverrideMetadata struct {
	PreviousDisplay string    `json:"previousDisplay"`
	PreviousAmount  *float64  `json:"previousAmount"`
	OverriddenBy    *string   `json:"overriddenBy,omitempty"`
	OverriddenAt    time.Time `json:"overriddenAt"`
}

// CellAudit is the per-cell provenance record.
type CellAudit struct {
	Sources             []SourcePointer   `json:"sources,omitempty"`
	Override            *OverrideMetadata `json:"override,omitempty"`
	Formula             *string           `json:"formula,omitempty"`
	PlaybookRuleID      string            `json:"playbookRuleId,omitempty"`
	PlaybookRuleVersion int               `json:"playbookRuleVersion,omitempty"`
}

// IsOverridden reports whether a human has overwritten the cell.
func (a *CellAudit) IsOverridden() bool {
	return a != nil && a.Override != nil
}

// CellAuditEvent is one entry of the append-only audit log.
type CellAuditEvent struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	CellPath        string    `json:"cellPath"`
	UserID          *string   `json:"userId"`
	Display         string    `json:"display"`
	Amount          *float64  `json:"amount"`
	PreviousDisplay string    `json:"previousDisplay,omitempty"`
	PreviousAmount  *float64  `json:"previousAmount,omitempty"`
}
