package store

import (
	"fmt"

	"github.com/luca-finance/luca/internal/model"
)

// ValidationError describes a single ledger rule violation.
type ValidationError struct {
	Rule        string
	TxnID       string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.TxnID, e.Description)
}

// ValidateMonth checks the transactions of one month file before it is written.
func ValidateMonth(txns []model.Transaction, year, month int) []ValidationError {
	var errs []ValidationError

	for _, t := range txns {
		if t.Amount.IsZero() {
			errs = append(errs, ValidationError{
				Rule:        "nonzero-amount",
				TxnID:       t.ID,
				Description: "amount must not be zero",
			})
		}

		if !t.Category.Valid() {
			errs = append(errs, ValidationError{
				Rule:        "known-category",
				TxnID:       t.ID,
				Description: fmt.Sprintf("unknown category %q", t.Category),
			})
		}

		if t.Source != model.SourceCaixaBank && t.Source != model.SourceRevolut {
			errs = append(errs, ValidationError{
				Rule:        "known-source",
				TxnID:       t.ID,
				Description: fmt.Sprintf("unknown source %q", t.Source),
			})
		}

		if t.Date.Year() != year || int(t.Date.Month()) != month {
			errs = append(errs, ValidationError{
				Rule:        "date-in-month",
				TxnID:       t.ID,
				Description: fmt.Sprintf("date %s not in %04d-%02d", t.Date.Format(dateFormat), year, month),
			})
		}
	}

	return errs
}
