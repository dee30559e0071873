package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies the bank export a transaction was parsed from.
type Source string

const (
	SourceCaixaBank Source = "caixabank"
	SourceRevolut   Source = "revolut"
)

// Transaction is one normalized bank ledger line.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`    // calendar day at 00:00 UTC; the zone carries no meaning
	Concept     string          `json:"concept"` // trimmed description, original case
	Amount      decimal.Decimal `json:"amount"`  // negative = expense, positive = income, never zero
	Balance     decimal.Decimal `json:"balance"` // zero when the export has no balance
	Category    Category        `json:"category"`
	Source      Source          `json:"source"`
	OriginalRow string          `json:"original_row,omitempty"`
}

// IsIncome reports whether money came in.
func (t Transaction) IsIncome() bool { return t.Amount.IsPositive() }

// IsExpense reports whether money went out.
func (t Transaction) IsExpense() bool { return t.Amount.IsNegative() }

// Upload describes one imported file batch.
type Upload struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Filename         string    `json:"filename"`
	Source           Source    `json:"source"`
	TransactionCount int       `json:"transaction_count"`
	DateFrom         time.Time `json:"date_from"`
	DateTo           time.Time `json:"date_to"`
	CreatedAt        time.Time `json:"created_at"`
}

// DateRange returns the earliest and latest transaction dates.
// Both are zero for an empty slice.
func DateRange(txns []Transaction) (from, to time.Time) {
	for i, t := range txns {
		if i == 0 || t.Date.Before(from) {
			from = t.Date
		}
		if i == 0 || t.Date.After(to) {
			to = t.Date
		}
	}
	return from, to
}
