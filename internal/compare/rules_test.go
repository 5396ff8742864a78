package compare

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/store"
)

func trainingRule() model.PlaybookRule {
	return model.PlaybookRule{
		ID:             "training-bundled",
		ConditionField: model.FieldLabel,
		ConditionType:  model.ConditionContains,
		ConditionValue: "training",
		ActionType:     model.ActionSetStatus,
		ActionValue:    `"included_in_bundle"`,
		Enabled:        true,
	}
}

func TestService_SaveRule(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	saved, err := svc.SaveRule(ctx, trainingRule())
	require.NoError(t, err)
	assert.Equal(t, model.GlobalVendor, saved.VendorName)
	assert.Equal(t, 1, saved.Version)
	assert.Equal(t, svc.now(), saved.UpdatedAt)

	rules, err := svc.Rules(ctx, store.RuleFilter{Vendor: "Acme"})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "training-bundled", rules[0].ID)
}

func TestService_SaveRule_Invalid(t *testing.T) {
	svc, _ := newTestService(t)

	bad := trainingRule()
	bad.ActionValue = `"currency"`
	_, err := svc.SaveRule(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	rules, err := svc.Rules(context.Background(), store.RuleFilter{IncludeDisabled: true})
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestService_ImportRules(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	note := trainingRule()
	note.ID = "setup-note"
	note.VendorName = "Acme"
	note.ConditionValue = "setup"
	note.ActionType = model.ActionAddNote
	note.ActionValue = `"Ask for a fixed quote"`
	note.Version = 1

	rule := trainingRule()
	rule.VendorName = model.GlobalVendor
	rule.Version = 1

	n, err := svc.ImportRules(ctx, []model.PlaybookRule{rule, note})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	createProject(t, svc)
	a, modified, err := svc.ApplyPlaybook(ctx, "proj-1")
	require.NoError(t, err)
	// Both training cells plus the Acme setup note.
	assert.Equal(t, 3, modified)
	assert.Equal(t, 2, a.Version)
}

func TestService_ImportRules_RejectsInvalid(t *testing.T) {
	svc, _ := newTestService(t)
	bad := trainingRule()
	bad.VendorName = model.GlobalVendor
	bad.ConditionType = "glob"

	_, err := svc.ImportRules(context.Background(), []model.PlaybookRule{bad})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
