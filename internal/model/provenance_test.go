package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellAudit_IsOverridden(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		audit *CellAudit
		want  bool
	}{
		{"nil audit", nil, false},
		{"sources only", &CellAudit{Sources: []SourcePointer{{DocumentID: "d1"}}}, false},
		{"playbook stamp", &CellAudit{PlaybookRuleID: "r1", PlaybookRuleVersion: 2}, false},
		{"override", &CellAudit{Override: &OverrideMetadata{PreviousDisplay: "$100"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.audit.IsOverridden())
		})
	}
}

func TestSourcePointer_Located(t *testing.T) {
	t.Parallel()

	assert.False(t, SourcePointer{StartOffset: -1, EndOffset: -1}.Located())
	assert.False(t, SourcePointer{StartOffset: 4, EndOffset: -1}.Located())
	assert.True(t, SourcePointer{StartOffset: 0, EndOffset: 12}.Located())
}

func TestCellAudit_CloneNil(t *testing.T) {
	t.Parallel()

	var a *CellAudit
	assert.Nil(t, a.Clone())

	v := NewAmount(10)
	assert.Nil(t, v.Clone().Audit)
}

func TestCellAudit_CloneSharesNothing(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	orig := &CellAudit{
		Sources: []SourcePointer{{DocumentID: "d1", Excerpt: "Core HR $12,000", StartOffset: -1, EndOffset: -1}},
		Override: &OverrideMetadata{
			PreviousDisplay: "$12,000",
			PreviousAmount:  Float(12000),
			OverriddenBy:    String("u-1"),
			OverriddenAt:    at,
		},
		Formula:             String("SUM(sw_1)"),
		PlaybookRuleID:      "r1",
		PlaybookRuleVersion: 1,
	}

	cp := orig.Clone()
	require.Equal(t, orig, cp)

	cp.Sources[0].StartOffset = 7
	cp.Sources = append(cp.Sources, SourcePointer{DocumentID: "d2"})
	*cp.Override.PreviousAmount = 1
	*cp.Override.OverriddenBy = "u-2"
	cp.Override.PreviousDisplay = "$1"
	*cp.Formula = "SUM()"

	assert.Len(t, orig.Sources, 1)
	assert.Equal(t, -1, orig.Sources[0].StartOffset)
	assert.InDelta(t, 12000, *orig.Override.PreviousAmount, 0.0001)
	assert.Equal(t, "u-1", *orig.Override.OverriddenBy)
	assert.Equal(t, "$12,000", orig.Override.PreviousDisplay)
	assert.Equal(t, "SUM(sw_1)", *orig.Formula)
}

func TestVendorValue_CloneAudit(t *testing.T) {
	t.Parallel()

	v := NewAmount(500)
	v.Audit = &CellAudit{Override: &OverrideMetadata{PreviousDisplay: "$400", PreviousAmount: Float(400)}}

	cp := v.Clone()
	require.NotSame(t, v.Audit, cp.Audit)
	require.NotSame(t, v.Audit.Override, cp.Audit.Override)

	cp.Audit.Override = nil
	assert.True(t, v.Audit.IsOverridden())
}

func TestCellAuditEvent_JSONShape(t *testing.T) {
	t.Parallel()

	e := CellAuditEvent{
		ID:        "e1",
		Type:      EventUserOverrideCell,
		Timestamp: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		CellPath:  "software/sw_1/Acme",
		UserID:    String("u-1"),
		Display:   "$900",
		Amount:    Float(900),
	}
	data, err := json.Marshal(e)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "user_override_cell", raw["type"])
	assert.Equal(t, "software/sw_1/Acme", raw["cellPath"])
	assert.Equal(t, "u-1", raw["userId"])
	assert.NotContains(t, raw, "previousDisplay")
	assert.NotContains(t, raw, "previousAmount")
}
