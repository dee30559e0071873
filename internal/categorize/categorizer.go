// Package categorize assigns a spending category to a transaction
// description using an ordered keyword rule table.
package categorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/luca-finance/luca/internal/model"
)

// Categorizer evaluates rules in order; the first matching rule wins.
// It is immutable after construction and safe for concurrent use.
type Categorizer struct {
	rules     []Rule
	transfers []string
}

var defaultCategorizer = New(DefaultRules())

// Default returns the categorizer built from DefaultRules.
func Default() *Categorizer { return defaultCategorizer }

// Categorize classifies with the built-in rule table.
func Categorize(description string, amount decimal.Decimal) model.Category {
	return defaultCategorizer.Categorize(description, amount)
}

// New builds a Categorizer. Keywords are lower-cased once here.
func New(rules []Rule) *Categorizer {
	c := &Categorizer{rules: make([]Rule, len(rules))}
	for i, r := range rules {
		kw := make([]string, len(r.Keywords))
		for j, k := range r.Keywords {
			kw[j] = strings.ToLower(k)
		}
		c.rules[i] = Rule{
			Category:   r.Category,
			Keywords:   kw,
			ExactMatch: append([]string(nil), r.ExactMatch...),
		}
		if r.Category == model.CategoryTransfers && c.transfers == nil {
			c.transfers = kw
		}
	}
	return c
}

// Rules returns a copy of the rule table in priority order.
func (c *Categorizer) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Categorize returns exactly one category for a description and signed
// amount. Inflows are either transfers or income; outflows go through the
// rule table and fall back to other.
func (c *Categorizer) Categorize(description string, amount decimal.Decimal) model.Category {
	lower := strings.ToLower(description)

	if amount.IsPositive() {
		if containsAny(lower, c.transfers) {
			return model.CategoryTransfers
		}
		return model.CategoryIncome
	}

	for _, r := range c.rules {
		for _, m := range r.ExactMatch {
			if description == m {
				return r.Category
			}
		}
		if containsAny(lower, r.Keywords) {
			return r.Category
		}
	}
	return model.CategoryOther
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule table ("rules: [{category, keywords, exact_match}]")
// and returns a Categorizer for it. An empty table yields the default rules.
func LoadRules(path string) (*Categorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	if len(rf.Rules) == 0 {
		return Default(), nil
	}
	for i, r := range rf.Rules {
		if !r.Category.Valid() {
			return nil, fmt.Errorf("rule %d: unknown category %q", i+1, r.Category)
		}
	}
	return New(rf.Rules), nil
}

// SaveRules writes rules in the format LoadRules reads.
func SaveRules(path string, rules []Rule) error {
	data, err := yaml.Marshal(ruleFile{Rules: rules})
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	return nil
}
