// Package playbook applies learned correction rules to comparison tables
// without touching cells a human has overridden.
package playbook

import (
	"regexp"
	"sort"
	"strings"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// Compiled is a rule with its pattern and action parsed once. A rule with an
// invalid pattern never matches; a rule with an invalid payload never
// changes a cell.
type Compiled struct {
	Rule    model.PlaybookRule
	pattern *regexp.Regexp
	action  Action
}

// Compile prepares rule for repeated evaluation.
func Compile(rule model.PlaybookRule) Compiled {
	c := Compiled{Rule: rule}
	if rule.ConditionType == model.ConditionRegex && rule.ConditionValue != "" {
		if re, err := regexp.Compile("(?i)" + rule.ConditionValue); err == nil {
			c.pattern = re
		}
	}
	if action, err := ParseAction(rule.ActionType, rule.ActionValue); err == nil {
		c.action = action
	}
	return c
}

// Matches reports whether the rule's condition holds for ctx. Vendor scope
// is not checked.
func (c Compiled) Matches(ctx model.CellContext) bool {
	if c.Rule.ConditionValue == "" {
		return false
	}
	field := ctx.Field(c.Rule.ConditionField)
	switch c.Rule.ConditionType {
	case model.ConditionContains:
		return strings.Contains(strings.ToLower(field), strings.ToLower(c.Rule.ConditionValue))
	case model.ConditionRegex:
		return c.pattern != nil && c.pattern.MatchString(field)
	default:
		return false
	}
}

// Satisfied reports whether cell already holds the result of the rule's
// action. A rule with an invalid payload is never satisfied.
func (c Compiled) Satisfied(cell model.VendorValue) bool {
	return c.action != nil && c.action.satisfied(cell)
}

// Apply runs the rule's action on cell and reports whether it changed.
func (c Compiled) Apply(cell *model.VendorValue) bool {
	if c.action == nil {
		return false
	}
	return c.action.apply(cell, c.Rule)
}

// MatchesCondition reports whether rule's condition holds for ctx.
func MatchesCondition(rule model.PlaybookRule, ctx model.CellContext) bool {
	return Compile(rule).Matches(ctx)
}

// SortRules returns rules ordered by priority, keeping the given order among
// rules of equal priority.
func SortRules(rules []model.PlaybookRule) []model.PlaybookRule {
	out := append([]model.PlaybookRule(nil), rules...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}
