package model

import "strings"

// CellStatus classifies a vendor's answer for one row.
type CellStatus string

const (
	StatusCurrency         CellStatus = "currency"
	StatusIncluded         CellStatus = "included"
	StatusIncludedInBundle CellStatus = "included_in_bundle"
	StatusNotIncluded      CellStatus = "not_included"
	StatusTBC              CellStatus = "tbc"
	StatusNA               CellStatus = "na"
	StatusHidden           CellStatus = "hidden"
)

// statusText is the fixed display text for every categorical status.
// StatusCurrency has no fixed text; its display is the formatted amount.
var statusText = map[CellStatus]string{
	StatusIncluded:         "Included",
	StatusIncludedInBundle: "Included in bundle",
	StatusNotIncluded:      "Not included",
	StatusTBC:              "TBC",
	StatusNA:               "N/A",
	StatusHidden:           "Hidden",
}

// zeroStatuses contribute nothing to a sum and never mark it unconfirmed.
var zeroStatuses = map[CellStatus]bool{
	StatusIncluded:         true,
	StatusIncludedInBundle: true,
	StatusNotIncluded:      true,
	StatusNA:               true,
	StatusHidden:           true,
}

// legacyZeroDisplays is the display vocabulary of tables stored before
// cells carried an explicit status.
var legacyZeroDisplays = map[string]bool{
	"not included":       true,
	"n/a":                true,
	"included":           true,
	"included in bundle": true,
	"hidden":             true,
	"$0":                 true,
	"-":                  true,
}

// Valid reports whether s is one of the seven known statuses.
func (s CellStatus) Valid() bool {
	if s == StatusCurrency {
		return true
	}
	_, ok := statusText[s]
	return ok
}

// DisplayText returns the fixed display text for a categorical status, or ""
// for StatusCurrency and unknown values.
func (s CellStatus) DisplayText() string {
	return statusText[s]
}

// Citation points at the passage of a source document an extracted value
// was read from.
type Citation struct {
	DocumentID   string `json:"documentId,omitempty"`
	DocumentName string `json:"documentName,omitempty"`
	VendorName   string `json:"vendorName,omitempty"`
	Excerpt      string `json:"excerpt,omitempty"`
	Page         int    `json:"page,omitempty"`
}

// VendorValue is one vendor's answer in one row.
type VendorValue struct {
	Amount      *float64   `json:"amount"`
	Display     string     `json:"display"`
	Note        *string    `json:"note,omitempty"`
	IsConfirmed bool       `json:"isConfirmed"`
	Status      CellStatus `json:"status,omitempty"`
	Citation    *Citation  `json:"citation,omitempty"`
	Audit       *CellAudit `json:"audit,omitempty"`
}

// NewAmount returns a confirmed currency cell.
func NewAmount(amount float64) VendorValue {
	return VendorValue{
		Amount:      Float(amount),
		Display:     FormatCurrency(amount),
		IsConfirmed: true,
		Status:      StatusCurrency,
	}
}

// NewStatus returns a non-numeric cell whose display follows the status.
func NewStatus(status CellStatus) VendorValue {
	return VendorValue{
		Display:     status.DisplayText(),
		IsConfirmed: status != StatusTBC,
		Status:      status,
	}
}

// IsZeroContribution reports whether a cell without an amount counts as a
// categorical zero rather than as an unconfirmed unknown.
func (v VendorValue) IsZeroContribution() bool {
	if v.Status != "" {
		return zeroStatuses[v.Status]
	}
	return isLegacyZeroDisplay(v.Display)
}

// IsUnconfirmed reports whether the cell should mark any sum containing it
// as unconfirmed.
func (v VendorValue) IsUnconfirmed() bool {
	return v.Amount == nil && !v.IsZeroContribution()
}

// NoteText returns the note or "".
func (v VendorValue) NoteText() string {
	if v.Note == nil {
		return ""
	}
	return *v.Note
}

// isLegacyZeroDisplay is the fallback path for cells with no status.
func isLegacyZeroDisplay(display string) bool {
	return legacyZeroDisplays[strings.ToLower(strings.TrimSpace(display))]
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}
