package ledger

import (
	"fmt"
	"regexp"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/cashledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Predicate is a boolean test over a single row.
type Predicate func(tx domain.Transaction) bool

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(tx domain.Transaction) bool { return !p(tx) }
}

// And holds when every predicate holds. An empty And always holds.
func And(ps ...Predicate) Predicate {
	return func(tx domain.Transaction) bool {
		for _, p := range ps {
			if !p(tx) {
				return false
			}
		}
		return true
	}
}

// Or holds when at least one predicate holds. An empty Or never holds.
func Or(ps ...Predicate) Predicate {
	return func(tx domain.Transaction) bool {
		for _, p := range ps {
			if p(tx) {
				return true
			}
		}
		return false
	}
}

// CompilePattern compiles a case-insensitive search pattern.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	return re, nil
}

// DescriptionMatches holds when re is found in either description field.
func DescriptionMatches(re *regexp.Regexp) Predicate {
	return func(tx domain.Transaction) bool {
		return re.MatchString(tx.Description) || re.MatchString(tx.OriginalDescription)
	}
}

// AccountMatches holds when re is found in the account name.
func AccountMatches(re *regexp.Regexp) Predicate {
	return func(tx domain.Transaction) bool {
		return re.MatchString(tx.Account)
	}
}

// IsIncome holds for strictly positive amounts.
func IsIncome(tx domain.Transaction) bool {
	return tx.IsIncome()
}

// IsExpense holds for zero and negative amounts.
func IsExpense(tx domain.Transaction) bool {
	return tx.IsExpense()
}

// DateBetween holds for dates in [after, before). A nil bound is open.
func DateBetween(after, before *civil.Date) Predicate {
	return func(tx domain.Transaction) bool {
		if after != nil && tx.Date.Before(*after) {
			return false
		}
		if before != nil && !tx.Date.Before(*before) {
			return false
		}
		return true
	}
}

// AmountBetween holds for amounts in [above, below). A nil bound is open.
func AmountBetween(above, below *decimal.Decimal) Predicate {
	return func(tx domain.Transaction) bool {
		if above != nil && tx.Amount.LessThan(*above) {
			return false
		}
		if below != nil && !tx.Amount.LessThan(*below) {
			return false
		}
		return true
	}
}

// AccountIn holds when the account is one of values.
func AccountIn(values []string) Predicate {
	set := toSet(values)
	return func(tx domain.Transaction) bool {
		_, ok := set[tx.Account]
		return ok
	}
}

// CategoryIn holds when the category is one of values.
func CategoryIn(values []string) Predicate {
	set := toSet(values)
	return func(tx domain.Transaction) bool {
		_, ok := set[tx.Category]
		return ok
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
