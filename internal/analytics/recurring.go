package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luca-finance/luca/internal/model"
)

// RecurringCharge is a subscription seen at least twice.
type RecurringCharge struct {
	Name        string    `json:"name"`
	Amount      float64   `json:"amount"` // average charge, rounded to cents
	LastCharge  time.Time `json:"last_charge"`
	Occurrences int       `json:"occurrences"`
}

// Recurring groups subscription expenses by their concept letters and
// returns groups with two or more charges, largest amount first.
func Recurring(txns []model.Transaction) []RecurringCharge {
	type group struct {
		name  string
		total decimal.Decimal
		last  time.Time
		n     int
	}

	var order []string
	groups := make(map[string]*group)
	for _, t := range txns {
		if t.Category != model.CategorySubscriptions || !t.Amount.IsNegative() {
			continue
		}
		key := letters(t.Concept)
		g, ok := groups[key]
		if !ok {
			g = &group{name: t.Concept}
			groups[key] = g
			order = append(order, key)
		}
		g.total = g.total.Add(t.Amount.Abs())
		if t.Date.After(g.last) {
			g.last = t.Date
		}
		g.n++
	}

	var out []RecurringCharge
	for _, key := range order {
		g := groups[key]
		if g.n < 2 {
			continue
		}
		avg := g.total.Div(decimal.NewFromInt(int64(g.n))).Round(2)
		out = append(out, RecurringCharge{
			Name:        g.name,
			Amount:      avg.InexactFloat64(),
			LastCharge:  g.last,
			Occurrences: g.n,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}

// letters keeps only a-z of the lower-cased concept.
func letters(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
