package ledger

import "errors"

var (
	// ErrInvalidPattern is returned when a search pattern is not a valid regular expression.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrUnrelatedSubset is returned when a recategorization subset was not derived from the base table.
	ErrUnrelatedSubset = errors.New("subset is not derived from the base table")

	// ErrInvalidTimeWindow is returned for a transfer window of zero or fewer days.
	ErrInvalidTimeWindow = errors.New("transfer time window must be at least one day")

	// ErrInvalidCategory is returned when a replacement category fails validation.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidDate is returned when a table is built from a row without a valid calendar date.
	ErrInvalidDate = errors.New("invalid transaction date")
)
