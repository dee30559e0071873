// Package merge folds newly parsed transactions into an existing ledger
// without duplicating rows from overlapping statement periods.
package merge

import (
	"github.com/luca-finance/luca/internal/model"
)

// Key is the dedup identity of a transaction. IDs are not part of it:
// the same movement exported twice gets a different row index.
type Key struct {
	Date    string // YYYY-MM-DD
	Concept string
	Amount  string // canonical decimal, so -10 and -10.00 compare equal
}

// KeyOf returns the dedup key of t.
func KeyOf(t model.Transaction) Key {
	return Key{
		Date:    t.Date.Format("2006-01-02"),
		Concept: t.Concept,
		Amount:  t.Amount.String(),
	}
}

// Missing returns the transactions of incoming whose key is not in existing,
// in incoming order. Only existing is consulted: two identical movements in
// one statement (two coffees on the same day) are both kept.
func Missing(existing, incoming []model.Transaction) []model.Transaction {
	seen := make(map[Key]struct{}, len(existing))
	for _, t := range existing {
		seen[KeyOf(t)] = struct{}{}
	}

	var out []model.Transaction
	for _, t := range incoming {
		if _, ok := seen[KeyOf(t)]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Merge appends the missing transactions of incoming to a copy of existing.
// Existing records are never replaced, and merging the same batch twice
// gives the same result as merging it once.
func Merge(existing, incoming []model.Transaction) []model.Transaction {
	added := Missing(existing, incoming)
	out := make([]model.Transaction, 0, len(existing)+len(added))
	out = append(out, existing...)
	return append(out, added...)
}
