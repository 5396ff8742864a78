package playbook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

func rule(field model.ConditionField, typ model.ConditionType, value string) model.PlaybookRule {
	return model.PlaybookRule{
		ID:             "r1",
		VendorName:     model.GlobalVendor,
		ConditionField: field,
		ConditionType:  typ,
		ConditionValue: value,
		ActionType:     model.ActionAddNote,
		ActionValue:    `"note"`,
		Enabled:        true,
		Version:        1,
	}
}

func TestMatchesCondition(t *testing.T) {
	t.Parallel()

	ctx := model.CellContext{
		Label:       "Annual Training Fee",
		SectionName: model.SectionService,
		Display:     "Included in bundle",
	}

	tests := []struct {
		name string
		rule model.PlaybookRule
		want bool
	}{
		{"label contains", rule(model.FieldLabel, model.ConditionContains, "training"), true},
		{"label contains upper", rule(model.FieldLabel, model.ConditionContains, "TRAINING FEE"), true},
		{"label contains miss", rule(model.FieldLabel, model.ConditionContains, "payroll"), false},
		{"section contains", rule(model.FieldSection, model.ConditionContains, "service fees"), true},
		{"display contains", rule(model.FieldDisplay, model.ConditionContains, "bundle"), true},
		{"label regex", rule(model.FieldLabel, model.ConditionRegex, `^annual\s+train`), true},
		{"label regex miss", rule(model.FieldLabel, model.ConditionRegex, `^training`), false},
		{"display regex", rule(model.FieldDisplay, model.ConditionRegex, `included|n/a`), true},
		{"invalid regex fails closed", rule(model.FieldLabel, model.ConditionRegex, `(training`), false},
		{"empty value never matches", rule(model.FieldLabel, model.ConditionContains, ""), false},
		{"unknown field", rule("vendor", model.ConditionContains, "a"), false},
		{"unknown type", rule(model.FieldLabel, "equals", "Annual Training Fee"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesCondition(tt.rule, ctx))
		})
	}
}

func TestSortRules(t *testing.T) {
	t.Parallel()

	rules := []model.PlaybookRule{
		{ID: "c", Priority: 2},
		{ID: "a", Priority: 1},
		{ID: "b", Priority: 1},
		{ID: "d"},
	}
	sorted := SortRules(rules)

	var ids []string
	for _, r := range sorted {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids)
	assert.Equal(t, "c", rules[0].ID, "input order is unchanged")
}
