package config

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// PackageRule is one entry of the `packages` section.
type PackageRule struct {
	Pattern string `yaml:"-"`
	Storage string `yaml:"storage"`
	Access  string `yaml:"access,omitempty"`
	Publish string `yaml:"publish,omitempty"`
	Proxy   string `yaml:"proxy,omitempty"`
}

// PackageRules keeps the `packages` mapping in file order; the first
// matching pattern wins.
type PackageRules []PackageRule

// UnmarshalYAML decodes the mapping node pair by pair so that ordering survives.
func (r *PackageRules) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: packages must be a mapping of pattern to rule", value.Line)
	}

	rules := make(PackageRules, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, body := value.Content[i], value.Content[i+1]

		var rule PackageRule
		if body.Kind != yaml.ScalarNode || body.Tag != "!!null" {
			if err := body.Decode(&rule); err != nil {
				return fmt.Errorf("line %d: package rule %q: %w", body.Line, key.Value, err)
			}
		}
		rule.Pattern = key.Value
		rules = append(rules, rule)
	}

	*r = rules
	return nil
}

// Match returns the first rule whose pattern matches name.
func (r PackageRules) Match(name string) (PackageRule, bool) {
	for _, rule := range r {
		if matchPattern(rule.Pattern, name) {
			return rule, true
		}
	}
	return PackageRule{}, false
}

// StorageNames lists distinct non-empty storage values in order.
func (r PackageRules) StorageNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, rule := range r {
		if rule.Storage == "" || seen[rule.Storage] {
			continue
		}
		seen[rule.Storage] = true
		names = append(names, rule.Storage)
	}
	return names
}

func matchPattern(pattern, name string) bool {
	if pattern == name {
		return true
	}
	ok, err := doublestar.Match(pattern, name)
	if err != nil {
		return false
	}
	return ok
}
