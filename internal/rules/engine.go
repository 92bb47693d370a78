package rules

import (
	"fmt"

	"github.com/dvloznov/cashledger/internal/ledger"
	"github.com/rs/zerolog"
)

// Outcome reports what one rule did.
type Outcome struct {
	Rule     string
	Category string
	Rows     int
}

// Engine applies rules in file order. A later rule sees the categories
// written by earlier ones, so rules can refine each other.
type Engine struct {
	rules        []compiledRule
	validator    ledger.CategoryValidator
	transferOpts []ledger.TransferOption
	log          zerolog.Logger
}

// NewEngine prepares f for application. Transfer options are passed to every
// rule that excludes transfers.
func NewEngine(f *File, log zerolog.Logger, transferOpts ...ledger.TransferOption) (*Engine, error) {
	compiled, err := compile(f.Rules)
	if err != nil {
		return nil, fmt.Errorf("NewEngine: %w", err)
	}

	validator := ledger.NonBlankCategory
	if len(f.Taxonomy) > 0 {
		validator = ledger.NewTaxonomy(f.Taxonomy...)
	}
	for _, r := range compiled {
		if err := validator.ValidateCategory(r.Category); err != nil {
			return nil, fmt.Errorf("NewEngine: rule %q: %w", r.Name, err)
		}
	}

	return &Engine{
		rules:        compiled,
		validator:    validator,
		transferOpts: transferOpts,
		log:          log,
	}, nil
}

// Apply returns a recategorized copy of t and a per-rule report. t itself is
// never modified; on error no partial result is returned.
func (e *Engine) Apply(t ledger.Table) (ledger.Table, []Outcome, error) {
	m := ledger.NewMutableTable(t)
	outcomes := make([]Outcome, 0, len(e.rules))

	for _, r := range e.rules {
		subset, err := e.selectRows(m.Table(), r)
		if err != nil {
			return ledger.Table{}, nil, fmt.Errorf("Apply: rule %q: %w", r.Name, err)
		}
		if err := m.Recategorize(subset, r.Category, ledger.WithValidator(e.validator)); err != nil {
			return ledger.Table{}, nil, fmt.Errorf("Apply: rule %q: %w", r.Name, err)
		}

		e.log.Info().
			Str("rule", r.Name).
			Str("category", r.Category).
			Int("rows", subset.Len()).
			Msg("applied rule")
		outcomes = append(outcomes, Outcome{Rule: r.Name, Category: r.Category, Rows: subset.Len()})
	}

	return m.Table(), outcomes, nil
}

func (e *Engine) selectRows(t ledger.Table, r compiledRule) (ledger.Table, error) {
	q := ledger.From(t)
	if r.ExcludeTransfers {
		q = q.Transfers(true, e.transferOpts...)
	}
	switch r.Kind {
	case KindIncome:
		q = q.Income()
	case KindExpenses:
		q = q.Expenses()
	}
	if r.Search != "" {
		q = q.Search(r.Search, false)
	}
	if r.AccountLike != "" {
		q = q.AccountLike(r.AccountLike, false)
	}
	if len(r.Accounts) > 0 {
		q = q.InAccounts(r.Accounts, false)
	}
	if len(r.Categories) > 0 {
		q = q.InCategories(r.Categories, false)
	}
	if r.after != nil || r.before != nil {
		q = q.When(r.after, r.before, false)
	}
	if r.above != nil || r.below != nil {
		q = q.WithAmount(r.above, r.below, false)
	}
	return q.Result()
}
