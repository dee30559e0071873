package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/luca-finance/luca/internal/model"
)

// DefaultRecentLimit is used by Recent when limit is not positive.
const DefaultRecentLimit = 20

// Criteria narrows a transaction list. Zero fields do not filter.
type Criteria struct {
	Category model.Category
	Search   string    // case-insensitive substring of the concept
	From     time.Time // inclusive
	To       time.Time // inclusive
	Kind     Kind
}

// Filter returns the transactions matching every set criterion, in input order.
func Filter(txns []model.Transaction, c Criteria) []model.Transaction {
	search := strings.ToLower(c.Search)
	var out []model.Transaction
	for _, t := range txns {
		if c.Category != "" && t.Category != c.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Concept), search) {
			continue
		}
		if !c.From.IsZero() && t.Date.Before(c.From) {
			continue
		}
		if !c.To.IsZero() && t.Date.After(c.To) {
			continue
		}
		if !c.Kind.Match(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Recent returns up to limit transactions, most recent first.
func Recent(txns []model.Transaction, limit int) []model.Transaction {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	out := append([]model.Transaction(nil), txns...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopExpenses returns up to limit expenses, largest outflow first.
func TopExpenses(txns []model.Transaction, limit int) []model.Transaction {
	out := Filter(txns, Criteria{Kind: Expenses})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.LessThan(out[j].Amount) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
