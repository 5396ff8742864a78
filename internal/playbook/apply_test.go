package playbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

func playbookTable() *model.ComparisonTable {
	return &model.ComparisonTable{
		Vendors: []string{"Acme", "Zenith"},
		Sections: []model.TableSection{
			{ID: "software", Name: model.SectionSoftware, Rows: []model.TableRow{
				{ID: "sw_1", Label: "Core HR", Values: []model.VendorValue{model.NewAmount(1000), model.NewAmount(900)}},
				{ID: "sw_sub", Label: "Training Subtotal", IsSubtotal: true, Values: []model.VendorValue{model.NewAmount(1000), model.NewAmount(900)}},
			}},
			{ID: "service", Name: model.SectionService, Rows: []model.TableRow{
				{ID: "svc_training", Label: "Training Fee", Values: []model.VendorValue{model.NewAmount(2500), model.NewAmount(3000)}},
			}},
			{ID: "totals", Name: model.SectionTotals, Rows: []model.TableRow{
				{ID: model.RowYear1, Label: "Training year 1", Values: []model.VendorValue{model.NewAmount(1), model.NewAmount(1)}},
			}},
		},
	}
}

func bundleRule(vendor string) model.PlaybookRule {
	return model.PlaybookRule{
		ID:             "rule-training",
		VendorName:     vendor,
		ConditionField: model.FieldLabel,
		ConditionType:  model.ConditionContains,
		ConditionValue: "training",
		ActionType:     model.ActionSetStatus,
		ActionValue:    `"included_in_bundle"`,
		Confidence:     model.ConfidenceSure,
		Enabled:        true,
		Version:        2,
	}
}

func cellAt(t *testing.T, table *model.ComparisonTable, rowID, vendor string) model.VendorValue {
	t.Helper()
	si, ri, ok := table.Locate(rowID)
	require.True(t, ok)
	return table.Sections[si].Rows[ri].Values[table.VendorIndex(vendor)]
}

func TestApplyRules_SetStatusOnMatchingVendor(t *testing.T) {
	t.Parallel()

	out, modified := ApplyRules(playbookTable(), []model.PlaybookRule{bundleRule("Acme")})
	assert.Equal(t, 1, modified)

	acme := cellAt(t, out, "svc_training", "Acme")
	assert.Equal(t, model.StatusIncludedInBundle, acme.Status)
	assert.Equal(t, "Included in bundle", acme.Display)
	assert.Nil(t, acme.Amount)
	assert.True(t, acme.IsConfirmed)
	assert.Equal(t, "rule-training", acme.Audit.PlaybookRuleID)
	assert.Equal(t, 2, acme.Audit.PlaybookRuleVersion)

	zenith := cellAt(t, out, "svc_training", "Zenith")
	assert.InDelta(t, 3000, *zenith.Amount, 0.0001, "other vendor untouched")
}

func TestApplyRules_GlobalRuleSkipsComputedRows(t *testing.T) {
	t.Parallel()

	table := playbookTable()
	out, modified := ApplyRules(table, []model.PlaybookRule{bundleRule(model.GlobalVendor)})
	assert.Equal(t, 2, modified)

	assert.InDelta(t, 1000, *cellAt(t, out, "sw_sub", "Acme").Amount, 0.0001)
	assert.InDelta(t, 1, *cellAt(t, out, model.RowYear1, "Acme").Amount, 0.0001)

	// The input is not modified.
	assert.InDelta(t, 2500, *cellAt(t, table, "svc_training", "Acme").Amount, 0.0001)
}

func TestApplyRules_SkipsOverriddenCells(t *testing.T) {
	t.Parallel()

	table := playbookTable()
	si, ri, _ := table.Locate("svc_training")
	table.Sections[si].Rows[ri].Values[0].Audit = &model.CellAudit{
		Override: &model.OverrideMetadata{PreviousDisplay: "$2,000", PreviousAmount: model.Float(2000), OverriddenAt: time.Now()},
	}
	before := table.Sections[si].Rows[ri].Values[0].Clone()

	out, modified := ApplyRules(table, []model.PlaybookRule{bundleRule(model.GlobalVendor)})
	assert.Equal(t, 1, modified)
	assert.Equal(t, before, cellAt(t, out, "svc_training", "Acme"))
	assert.Equal(t, model.StatusIncludedInBundle, cellAt(t, out, "svc_training", "Zenith").Status)
}

func TestApplyRules_Idempotent(t *testing.T) {
	t.Parallel()

	rules := []model.PlaybookRule{
		bundleRule("Zenith"),
		{
			ID: "rule-note", VendorName: model.GlobalVendor,
			ConditionField: model.FieldSection, ConditionType: model.ConditionRegex, ConditionValue: `^software`,
			ActionType: model.ActionAddNote, ActionValue: `"per employee per month"`,
			Enabled: true, Version: 1,
		},
	}

	once, first := ApplyRules(playbookTable(), rules)
	assert.Equal(t, 3, first)

	twice, second := ApplyRules(once, rules)
	assert.Equal(t, 0, second)
	assert.Equal(t, once, twice)
}

func TestApplyRules_OverlappingRulesConverge(t *testing.T) {
	t.Parallel()

	note := model.PlaybookRule{
		ID: "rule-note", VendorName: model.GlobalVendor,
		ConditionField: model.FieldLabel, ConditionType: model.ConditionContains, ConditionValue: "training",
		ActionType: model.ActionAddNote, ActionValue: `"bundled per call"`, Enabled: true, Version: 1,
	}
	rules := []model.PlaybookRule{bundleRule(model.GlobalVendor), note}

	once, first := ApplyRules(playbookTable(), rules)
	assert.Equal(t, 2, first)

	acme := cellAt(t, once, "svc_training", "Acme")
	assert.Equal(t, model.StatusIncludedInBundle, acme.Status)
	assert.Nil(t, acme.Note, "a satisfied status rule ends the search")
	assert.Equal(t, "rule-training", acme.Audit.PlaybookRuleID)

	current := once
	for range 3 {
		next, modified := ApplyRules(current, rules)
		assert.Equal(t, 0, modified)
		assert.Equal(t, once, next)
		current = next
	}
}

func TestApplyRules_SatisfiedRuleDoesNotRestamp(t *testing.T) {
	t.Parallel()

	once, _ := ApplyRules(playbookTable(), []model.PlaybookRule{bundleRule("Acme")})

	newer := bundleRule("Acme")
	newer.ID = "rule-training-v2"
	newer.Version = 5
	out, modified := ApplyRules(once, []model.PlaybookRule{newer})
	assert.Equal(t, 0, modified)
	assert.Equal(t, "rule-training", cellAt(t, out, "svc_training", "Acme").Audit.PlaybookRuleID)
}

func TestApplyRules_FirstChangingRuleWins(t *testing.T) {
	t.Parallel()

	dead := bundleRule(model.GlobalVendor)
	dead.ID = "rule-bad-payload"
	dead.ActionValue = `"bundled"`

	note := model.PlaybookRule{
		ID: "rule-note", VendorName: model.GlobalVendor,
		ConditionField: model.FieldLabel, ConditionType: model.ConditionContains, ConditionValue: "training",
		ActionType: model.ActionAddNote, ActionValue: `"check bundle"`, Enabled: true, Version: 1,
	}
	status := bundleRule(model.GlobalVendor)

	out, modified := ApplyRules(playbookTable(), []model.PlaybookRule{dead, note, status})
	assert.Equal(t, 2, modified)

	acme := cellAt(t, out, "svc_training", "Acme")
	assert.Equal(t, "check bundle", *acme.Note)
	assert.Equal(t, model.StatusCurrency, acme.Status, "later rule is not evaluated once one changed the cell")
	assert.Equal(t, "rule-note", acme.Audit.PlaybookRuleID)
}

func TestApplyRules_DisabledAndUnscopedRules(t *testing.T) {
	t.Parallel()

	disabled := bundleRule(model.GlobalVendor)
	disabled.Enabled = false
	other := bundleRule("Globex")

	out, modified := ApplyRules(playbookTable(), []model.PlaybookRule{disabled, other})
	assert.Equal(t, 0, modified)
	assert.Equal(t, playbookTable(), out)
}

func TestApplyRules_DisplayCondition(t *testing.T) {
	t.Parallel()

	r := model.PlaybookRule{
		ID: "rule-zero", VendorName: model.GlobalVendor,
		ConditionField: model.FieldDisplay, ConditionType: model.ConditionRegex, ConditionValue: `^\$900$`,
		ActionType: model.ActionSetStatus, ActionValue: `"tbc"`, Enabled: true, Version: 1,
	}
	out, modified := ApplyRules(playbookTable(), []model.PlaybookRule{r})
	assert.Equal(t, 1, modified)

	v := cellAt(t, out, "sw_1", "Zenith")
	assert.Equal(t, model.StatusTBC, v.Status)
	assert.False(t, v.IsConfirmed)
}
