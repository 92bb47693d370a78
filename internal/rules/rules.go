// Package rules recategorizes a ledger table from an ordered list of
// declarative YAML rules.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/cashledger/internal/ledger"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Kinds restrict a rule to one side of the ledger.
const (
	KindAny      = ""
	KindIncome   = "income"
	KindExpenses = "expenses"
)

// File is the parsed contents of a rules file.
//
//	taxonomy: [Groceries, Rent, Salary, Savings]
//	rules:
//	  - name: supermarkets
//	    category: Groceries
//	    search: "whole ?foods|trader joe"
//	    kind: expenses
//	    exclude_transfers: true
type File struct {
	// Taxonomy, when set, is the complete list of categories rules may write.
	Taxonomy []string `yaml:"taxonomy"`
	Rules    []Rule   `yaml:"rules"`
}

// Rule selects rows and assigns them a category. Every condition that is set
// must hold; unset conditions match everything.
type Rule struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`

	Search      string   `yaml:"search"`
	AccountLike string   `yaml:"account_like"`
	Accounts    []string `yaml:"accounts"`
	Categories  []string `yaml:"categories"`

	// Dates are YYYY-MM-DD, amounts are decimals; ranges are half-open.
	After  string `yaml:"after"`
	Before string `yaml:"before"`
	Above  string `yaml:"above"`
	Below  string `yaml:"below"`

	Kind             string `yaml:"kind"`
	ExcludeTransfers bool   `yaml:"exclude_transfers"`
}

// Parse decodes and validates a rules file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("Parse: could not parse rules file: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("Parse: rules file has no rules")
	}
	for i := range f.Rules {
		if strings.TrimSpace(f.Rules[i].Name) == "" {
			f.Rules[i].Name = fmt.Sprintf("rule %d", i+1)
		}
	}
	if _, err := compile(f.Rules); err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}
	return &f, nil
}

type compiledRule struct {
	Rule
	after, before *civil.Date
	above, below  *decimal.Decimal
}

// compile checks every rule and reports all problems at once.
func compile(rules []Rule) ([]compiledRule, error) {
	var errs []error
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		c, err := compileRule(r)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %q: %w", r.Name, err))
			continue
		}
		out = append(out, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func compileRule(r Rule) (compiledRule, error) {
	c := compiledRule{Rule: r}
	var err error

	if strings.TrimSpace(r.Category) == "" {
		return c, fmt.Errorf("category is required")
	}
	switch r.Kind {
	case KindAny, KindIncome, KindExpenses:
	default:
		return c, fmt.Errorf("unknown kind %q (want %q or %q)", r.Kind, KindIncome, KindExpenses)
	}
	for _, pattern := range []string{r.Search, r.AccountLike} {
		if pattern == "" {
			continue
		}
		if _, err := ledger.CompilePattern(pattern); err != nil {
			return c, err
		}
	}
	if c.after, err = optionalDate(r.After); err != nil {
		return c, fmt.Errorf("after: %w", err)
	}
	if c.before, err = optionalDate(r.Before); err != nil {
		return c, fmt.Errorf("before: %w", err)
	}
	if c.above, err = optionalAmount(r.Above); err != nil {
		return c, fmt.Errorf("above: %w", err)
	}
	if c.below, err = optionalAmount(r.Below); err != nil {
		return c, fmt.Errorf("below: %w", err)
	}
	return c, nil
}

func optionalDate(s string) (*civil.Date, error) {
	if s = strings.TrimSpace(s); s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optionalAmount(s string) (*decimal.Decimal, error) {
	if s = strings.TrimSpace(s); s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
