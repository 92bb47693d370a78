package ledger

import (
	"fmt"
	"sort"
	"strings"
)

// CategoryValidator decides whether a category may be written by Recategorize.
type CategoryValidator interface {
	ValidateCategory(category string) error
}

// CategoryValidatorFunc adapts a function to CategoryValidator.
type CategoryValidatorFunc func(category string) error

// ValidateCategory implements CategoryValidator.
func (f CategoryValidatorFunc) ValidateCategory(category string) error {
	return f(category)
}

// NonBlankCategory rejects empty and whitespace-only categories. It is the
// validator Recategorize uses unless told otherwise.
var NonBlankCategory CategoryValidator = CategoryValidatorFunc(func(category string) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("%w: category is blank", ErrInvalidCategory)
	}
	return nil
})

// Taxonomy restricts categories to a known set. Comparison ignores case and
// surrounding whitespace.
type Taxonomy struct {
	names map[string]bool
}

// NewTaxonomy creates a taxonomy of the given category names.
func NewTaxonomy(names ...string) *Taxonomy {
	t := &Taxonomy{names: make(map[string]bool, len(names))}
	for _, n := range names {
		if norm := normalizeCategory(n); norm != "" {
			t.names[norm] = true
		}
	}
	return t
}

// ValidateCategory implements CategoryValidator.
func (t *Taxonomy) ValidateCategory(category string) error {
	if err := NonBlankCategory.ValidateCategory(category); err != nil {
		return err
	}
	norm := normalizeCategory(category)
	if !t.names[norm] {
		valid := make([]string, 0, len(t.names))
		for n := range t.names {
			valid = append(valid, n)
		}
		sort.Strings(valid)
		return fmt.Errorf("%w: %q (normalized: %q). Valid categories: %v", ErrInvalidCategory, category, norm, valid)
	}
	return nil
}

// normalizeCategory converts to uppercase and trims whitespace for
// case-insensitive comparison.
func normalizeCategory(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
