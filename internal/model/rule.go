package model

import "time"

// ConditionField names the cell context field a rule tests.
type ConditionField string

const (
	FieldLabel   ConditionField = "label"
	FieldSection ConditionField = "section"
	FieldDisplay ConditionField = "display"
)

// ConditionType is the comparison a rule performs.
type ConditionType string

const (
	ConditionContains ConditionType = "contains"
	ConditionRegex    ConditionType = "regex"
)

// ActionType is the mutation a rule applies to a matching cell.
type ActionType string

const (
	ActionSetStatus ActionType = "set_status"
	ActionAddNote   ActionType = "add_note"
)

// Confidence is how sure the approving human was about a rule.
type Confidence string

const (
	ConfidenceSure  Confidence = "sure"
	ConfidenceMaybe Confidence = "maybe"
)

// GlobalVendor scopes a rule to every vendor.
const GlobalVendor = "*"

// PlaybookRule is a learned correction pattern. ActionValue holds the raw JSON
// payload of the action: a JSON string for both set_status and add_note.
type PlaybookRule struct {
	ID             string         `json:"id" validate:"required"`
	VendorName     string         `json:"vendorName" validate:"required"`
	ConditionField ConditionField `json:"conditionField" validate:"oneof=label section display"`
	ConditionType  ConditionType  `json:"conditionType" validate:"oneof=contains regex"`
	ConditionValue string         `json:"conditionValue" validate:"required"`
	ActionType     ActionType     `json:"actionType" validate:"oneof=set_status add_note"`
	ActionValue    string         `json:"actionValue" validate:"required"`
	Confidence     Confidence     `json:"confidence" validate:"omitempty,oneof=sure maybe"`
	Enabled        bool           `json:"enabled"`
	Version        int            `json:"version" validate:"gte=0"`
	Priority       int            `json:"priority"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// AppliesToVendor reports whether the rule's vendor scope covers vendor.
func (r PlaybookRule) AppliesToVendor(vendor string) bool {
	return r.VendorName == GlobalVendor || r.VendorName == vendor
}

// CellContext is what a rule condition is evaluated against.
type CellContext struct {
	Label       string `json:"label"`
	SectionName string `json:"section"`
	Display     string `json:"display"`
}

// Field returns the context value named by f, or "" for unknown fields.
func (c CellContext) Field(f ConditionField) string {
	switch f {
	case FieldLabel:
		return c.Label
	case FieldSection:
		return c.SectionName
	case FieldDisplay:
		return c.Display
	default:
		return ""
	}
}
