package compare

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/playbook"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/store"
)

// Rules lists the stored playbook rules.
func (s *Service) Rules(ctx context.Context, filter store.RuleFilter) ([]model.PlaybookRule, error) {
	rules, err := s.store.ListRules(ctx, filter)
	return rules, eris.Wrap(err, "compare: list rules")
}

// SaveRule validates and stores one rule, stamping its update time.
func (s *Service) SaveRule(ctx context.Context, rule model.PlaybookRule) (model.PlaybookRule, error) {
	if rule.VendorName == "" {
		rule.VendorName = model.GlobalVendor
	}
	if rule.Version == 0 {
		rule.Version = 1
	}
	if err := playbook.Validate(rule); err != nil {
		return model.PlaybookRule{}, eris.Wrapf(ErrInvalidInput, "rule %q: %v", rule.ID, err)
	}
	rule.UpdatedAt = s.now()
	if err := s.store.SaveRule(ctx, rule); err != nil {
		return model.PlaybookRule{}, eris.Wrap(err, "compare: save rule")
	}
	zap.L().Info("compare: saved rule",
		zap.String("rule_id", rule.ID),
		zap.String("vendor", rule.VendorName),
		zap.Int("version", rule.Version),
	)
	return rule, nil
}

// ImportRules stores rules read from a playbook file.
func (s *Service) ImportRules(ctx context.Context, rules []model.PlaybookRule) (int, error) {
	now := s.now()
	for i := range rules {
		if err := playbook.Validate(rules[i]); err != nil {
			return 0, eris.Wrapf(ErrInvalidInput, "rule %q: %v", rules[i].ID, err)
		}
		rules[i].UpdatedAt = now
	}
	n, err := s.store.ImportRules(ctx, rules)
	if err != nil {
		return 0, eris.Wrap(err, "compare: import rules")
	}
	zap.L().Info("compare: imported rules", zap.Int("rules", n))
	return n, nil
}
