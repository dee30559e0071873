package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/luca-finance/luca/internal/categorize"
	"github.com/luca-finance/luca/internal/id"
	"github.com/luca-finance/luca/internal/logger"
	"github.com/luca-finance/luca/internal/model"
	"github.com/luca-finance/luca/internal/normalize"
)

// CaixaBankHeader is the header line of a CaixaBank movements export.
const CaixaBankHeader = "Concepto;Fecha;Importe;Saldo"

const (
	caixaColConcept = "Concepto"
	caixaColDate    = "Fecha"
	caixaColAmount  = "Importe"
	caixaColBalance = "Saldo"
)

// CaixaBankParser parses semicolon-delimited CaixaBank CSV exports.
type CaixaBankParser struct {
	Categorizer *categorize.Categorizer
}

// Source returns the parser's source tag.
func (p *CaixaBankParser) Source() model.Source { return model.SourceCaixaBank }

// Parse reads a CaixaBank CSV and returns transactions, most recent first.
// Malformed rows are skipped; a missing header yields no transactions.
func (p *CaixaBankParser) Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	log := logger.FromContext(ctx).With().Str("source", string(model.SourceCaixaBank)).Logger()

	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading caixabank header: %w", err)
	}

	cols := indexHeader(header)
	for _, name := range []string{caixaColConcept, caixaColDate, caixaColAmount} {
		if _, ok := cols[name]; !ok {
			log.Warn().Strs("header", header).Msg("caixabank header not found")
			return nil, nil
		}
	}

	c := p.Categorizer
	if c == nil {
		c = categorize.Default()
	}

	var txns []model.Transaction
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				log.Warn().Err(err).Int("row", row).Msg("skipping unreadable row")
				continue
			}
			return nil, fmt.Errorf("reading caixabank CSV: %w", err)
		}

		txn, reason := parseCaixaBankRow(rec, cols, row, c)
		if reason != "" {
			log.Debug().Int("row", row).Str("reason", reason).Msg("skipping row")
			continue
		}
		txns = append(txns, txn)
	}

	sortByDateDesc(txns)
	return txns, nil
}

// parseCaixaBankRow returns a non-empty reason when the row must be skipped.
func parseCaixaBankRow(rec []string, cols map[string]int, row int, c *categorize.Categorizer) (model.Transaction, string) {
	rawConcept := field(rec, cols, caixaColConcept)
	rawDate := strings.TrimSpace(field(rec, cols, caixaColDate))
	rawAmount := field(rec, cols, caixaColAmount)
	rawBalance := field(rec, cols, caixaColBalance)

	concept := strings.TrimSpace(rawConcept)
	if concept == "" || rawDate == "" || strings.TrimSpace(rawAmount) == "" {
		return model.Transaction{}, "missing required field"
	}

	date, ok := normalize.ParseDateA(rawDate)
	if !ok {
		return model.Transaction{}, "bad date"
	}

	amount, _ := normalize.ParseAmountA(rawAmount)
	if amount.IsZero() {
		return model.Transaction{}, "zero amount"
	}
	balance, _ := normalize.ParseAmountA(rawBalance)

	return model.Transaction{
		ID:          id.FormatTransactionID(model.SourceCaixaBank, row, rawDate),
		Date:        date,
		Concept:     concept,
		Amount:      amount,
		Balance:     balance,
		Category:    c.Categorize(concept, amount),
		Source:      model.SourceCaixaBank,
		OriginalRow: strings.Join([]string{rawConcept, rawDate, rawAmount, rawBalance}, ";"),
	}, ""
}
