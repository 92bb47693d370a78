package ledger

import (
	"sort"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/cashledger/internal/domain"
)

// UnknownKey labels the group of rows whose grouping field is empty.
const UnknownKey = "unknown"

// KeyFunc derives a group key from a row.
type KeyFunc func(tx domain.Transaction) string

// GroupSet is a partition of a table into keyed sub-tables. Every row of the
// input lands in exactly one group, and group tables keep the input order
// and row identities.
type GroupSet struct {
	keys   []string
	groups map[string]Table
}

// GroupBy partitions the table by key. Empty keys are replaced by UnknownKey.
func (t Table) GroupBy(key KeyFunc) GroupSet {
	gs := GroupSet{groups: make(map[string]Table)}
	for i, r := range t.rows {
		k := key(r)
		if k == "" {
			k = UnknownKey
		}
		g, ok := gs.groups[k]
		if !ok {
			g = Table{lineage: t.lineage}
			gs.keys = append(gs.keys, k)
		}
		g.rows = append(g.rows, r)
		g.ids = append(g.ids, t.ids[i])
		gs.groups[k] = g
	}
	sort.Strings(gs.keys)
	return gs
}

// ByCategory groups by category.
func (t Table) ByCategory() GroupSet {
	return t.GroupBy(func(tx domain.Transaction) string { return tx.Category })
}

// ByAccount groups by account.
func (t Table) ByAccount() GroupSet {
	return t.GroupBy(func(tx domain.Transaction) string { return tx.Account })
}

// ByDescription groups by description.
func (t Table) ByDescription() GroupSet {
	return t.GroupBy(func(tx domain.Transaction) string { return tx.Description })
}

// ByOriginalDescription groups by original description.
func (t Table) ByOriginalDescription() GroupSet {
	return t.GroupBy(func(tx domain.Transaction) string { return tx.OriginalDescription })
}

// Yearly groups by calendar year, keyed like "2020".
func (t Table) Yearly() GroupSet {
	return t.GroupBy(func(tx domain.Transaction) string { return strconv.Itoa(tx.Date.Year) })
}

// Monthly groups by month, keyed by the first day of the month.
func (t Table) Monthly() GroupSet {
	return t.GroupBy(func(tx domain.Transaction) string { return MonthStart(tx.Date).String() })
}

// Weekly groups by ISO week, keyed by the Monday that starts it.
func (t Table) Weekly() GroupSet {
	return t.GroupBy(func(tx domain.Transaction) string { return WeekStart(tx.Date).String() })
}

// Daily groups by date.
func (t Table) Daily() GroupSet {
	return t.GroupBy(func(tx domain.Transaction) string { return tx.Date.String() })
}

// MonthStart truncates d to the first day of its month.
func MonthStart(d civil.Date) civil.Date {
	return civil.Date{Year: d.Year, Month: d.Month, Day: 1}
}

// WeekStart truncates d to the Monday of its week.
func WeekStart(d civil.Date) civil.Date {
	offset := (int(d.In(time.UTC).Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// Keys returns the group keys in ascending order.
func (gs GroupSet) Keys() []string {
	return append([]string(nil), gs.keys...)
}

// Len returns the number of groups.
func (gs GroupSet) Len() int {
	return len(gs.keys)
}

// Group returns the table for key.
func (gs GroupSet) Group(key string) (Table, bool) {
	g, ok := gs.groups[key]
	return g, ok
}
