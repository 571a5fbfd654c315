package rules

import (
	"fmt"

	"github.com/spf13/viper"

	"irl-points-system/pkg/errors"
)

// Registry is an immutable lookup table keyed by activity type. It is
// built once at startup; request-handling code never mutates it.
type Registry struct {
	byType  map[string]ActivityRule
	ordered []string
}

func NewRegistry(catalog []ActivityRule) (*Registry, error) {
	byType := make(map[string]ActivityRule, len(catalog))
	ordered := make([]string, 0, len(catalog))
	for _, rule := range catalog {
		if rule.Type == "" {
			return nil, errors.New(errors.ErrRuleLoad, "rule with empty activity type", nil)
		}
		if _, dup := byType[rule.Type]; dup {
			return nil, errors.New(errors.ErrRuleLoad, fmt.Sprintf("duplicate activity type: %s", rule.Type), nil)
		}
		if rule.BasePoints < 0 {
			return nil, errors.New(errors.ErrRuleLoad, fmt.Sprintf("negative base points: %s", rule.Type), nil)
		}
		byType[rule.Type] = rule
		ordered = append(ordered, rule.Type)
	}
	return &Registry{byType: byType, ordered: ordered}, nil
}

// Get returns the rule for an activity type. Inactive rules are returned
// with ok=true; award gating treats them separately from not-found so the
// caller can report a precise rejection.
func (r *Registry) Get(activityType string) (ActivityRule, bool) {
	rule, ok := r.byType[activityType]
	return rule, ok
}

// Active lists active rules in catalog order, for display surfaces.
func (r *Registry) Active() []ActivityRule {
	out := make([]ActivityRule, 0, len(r.ordered))
	for _, t := range r.ordered {
		if rule := r.byType[t]; rule.IsActive {
			out = append(out, rule)
		}
	}
	return out
}

// Len reports the catalog size.
func (r *Registry) Len() int {
	return len(r.byType)
}

type ruleFile struct {
	Activities []ActivityRule `mapstructure:"activities"`
}

// LoadFile reads an activity catalog from a YAML file. An empty path
// falls back to the built-in catalog.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(DefaultCatalog())
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.New(errors.ErrRuleLoad, "failed to read rules file", err)
	}

	var file ruleFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, errors.New(errors.ErrRuleLoad, "failed to unmarshal rules file", err)
	}
	if len(file.Activities) == 0 {
		return nil, errors.New(errors.ErrRuleLoad, "rules file declares no activities", nil)
	}

	return NewRegistry(file.Activities)
}
