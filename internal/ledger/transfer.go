package ledger

import (
	"fmt"
	"sort"

	"github.com/dvloznov/cashledger/internal/domain"
)

// DefaultTransferWindow is the number of days two sides of a transfer may be
// apart when no window is given. Linked accounts rarely post more than a few
// business days apart.
const DefaultTransferWindow = 7

type transferConfig struct {
	windowDays    int
	windowErr     error
	allowInternal bool
}

// TransferOption tunes transfer matching.
type TransferOption func(*transferConfig)

// WithTimeWindow sets the maximum distance in days between the two sides of
// a pair. The window is symmetric. Zero or negative windows are rejected.
func WithTimeWindow(days int) TransferOption {
	return func(c *transferConfig) {
		if days <= 0 {
			c.windowErr = fmt.Errorf("%w: got %d", ErrInvalidTimeWindow, days)
			return
		}
		c.windowDays = days
	}
}

// AllowInternal lets both sides of a pair sit in the same account. Brokerage
// exports produce such offsetting rows when holdings are rebalanced.
func AllowInternal() TransferOption {
	return func(c *transferConfig) {
		c.allowInternal = true
	}
}

// MatchTransfers flags every row that is one side of a transfer pair.
//
// Rows are visited in chronological order, ties by table order. A row pairs
// with an unconsumed row of exactly the negated amount, in a different
// account, at most the window away in days. Among several candidates the
// nearest in time wins, then the earliest in table order. Each row belongs to
// at most one pair. Zero amounts never pair, and chains of three or more legs
// leave their odd row unflagged.
func MatchTransfers(rows []domain.Transaction, opts ...TransferOption) ([]bool, error) {
	cfg := transferConfig{windowDays: DefaultTransferWindow}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.windowErr != nil {
		return nil, cfg.windowErr
	}

	matched := make([]bool, len(rows))

	// Bucket candidates by magnitude; each bucket is in table order.
	byMagnitude := make(map[string][]int)
	for i, r := range rows {
		if r.Amount.IsZero() {
			continue
		}
		key := r.Amount.Abs().String()
		byMagnitude[key] = append(byMagnitude[key], i)
	}

	for _, i := range chronological(rows) {
		if matched[i] || rows[i].Amount.IsZero() {
			continue
		}
		cur := rows[i]
		want := cur.Amount.Neg()

		best, bestDist := -1, 0
		for _, j := range byMagnitude[cur.Amount.Abs().String()] {
			if j == i || matched[j] {
				continue
			}
			cand := rows[j]
			if !cand.Amount.Equal(want) {
				continue
			}
			if !cfg.allowInternal && cand.Account == cur.Account {
				continue
			}
			dist := absDays(cand.Date.DaysSince(cur.Date))
			if dist > cfg.windowDays {
				continue
			}
			// Buckets are in table order, so a strict comparison keeps the
			// earliest row among equally near candidates.
			if best < 0 || dist < bestDist {
				best, bestDist = j, dist
			}
		}

		if best >= 0 {
			matched[i] = true
			matched[best] = true
		}
	}

	return matched, nil
}

func chronological(rows []domain.Transaction) []int {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rows[order[a]].Date.Before(rows[order[b]].Date)
	})
	return order
}

func absDays(d int) int {
	if d < 0 {
		return -d
	}
	return d
}
