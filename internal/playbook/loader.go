package playbook

import (
	"encoding/json"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// fileRule is the YAML form of a rule. The action value is written as a
// plain scalar and encoded to the JSON payload on load.
type fileRule struct {
	ID             string `yaml:"id"`
	Vendor         string `yaml:"vendor"`
	ConditionField string `yaml:"condition_field"`
	ConditionType  string `yaml:"condition_type"`
	ConditionValue string `yaml:"condition_value"`
	ActionType     string `yaml:"action_type"`
	ActionValue    string `yaml:"action_value"`
	Confidence     string `yaml:"confidence"`
	Enabled        *bool  `yaml:"enabled"`
	Version        int    `yaml:"version"`
	Priority       int    `yaml:"priority"`
}

var validate = validator.New()

// LoadRules reads a playbook rule file. Rules are returned sorted by priority.
func LoadRules(path string) ([]model.PlaybookRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "playbook: read rules %s", path)
	}
	return ParseRules(data)
}

// ParseRules decodes a YAML document with a top-level "rules" list. Unlike
// the engine, which treats malformed rules as no-ops, the loader rejects
// them.
func ParseRules(data []byte) ([]model.PlaybookRule, error) {
	var doc struct {
		Rules []fileRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "playbook: parse rules")
	}

	rules := make([]model.PlaybookRule, 0, len(doc.Rules))
	seen := make(map[string]bool, len(doc.Rules))
	for i, fr := range doc.Rules {
		rule, err := fr.toRule()
		if err != nil {
			return nil, eris.Wrapf(err, "playbook: rule %d", i)
		}
		if err := Validate(rule); err != nil {
			return nil, eris.Wrapf(err, "playbook: rule %d (%s)", i, rule.ID)
		}
		if seen[rule.ID] {
			return nil, eris.Errorf("playbook: duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = true
		rules = append(rules, rule)
	}
	return SortRules(rules), nil
}

func (fr fileRule) toRule() (model.PlaybookRule, error) {
	payload, err := json.Marshal(fr.ActionValue)
	if err != nil {
		return model.PlaybookRule{}, eris.Wrap(err, "encode action value")
	}
	vendor := fr.Vendor
	if vendor == "" {
		vendor = model.GlobalVendor
	}
	enabled := true
	if fr.Enabled != nil {
		enabled = *fr.Enabled
	}
	version := fr.Version
	if version == 0 {
		version = 1
	}
	return model.PlaybookRule{
		ID:             fr.ID,
		VendorName:     vendor,
		ConditionField: model.ConditionField(fr.ConditionField),
		ConditionType:  model.ConditionType(fr.ConditionType),
		ConditionValue: fr.ConditionValue,
		ActionType:     model.ActionType(fr.ActionType),
		ActionValue:    string(payload),
		Confidence:     model.Confidence(fr.Confidence),
		Enabled:        enabled,
		Version:        version,
		Priority:       fr.Priority,
	}, nil
}

// Validate checks a rule strictly: field values, a compilable pattern and a
// payload that parses.
func Validate(rule model.PlaybookRule) error {
	if err := validate.Struct(rule); err != nil {
		return eris.Wrap(err, "invalid rule")
	}
	if rule.ConditionType == model.ConditionRegex {
		if _, err := regexp.Compile("(?i)" + rule.ConditionValue); err != nil {
			return eris.Wrap(err, "invalid pattern")
		}
	}
	if _, err := ParseAction(rule.ActionType, rule.ActionValue); err != nil {
		return eris.Wrap(err, "invalid action")
	}
	return nil
}
