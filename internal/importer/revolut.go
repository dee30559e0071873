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

// RevolutHeader is the column header repeated at the top of every
// transaction section of a Revolut consolidated statement.
const RevolutHeader = "Date,Description,Money out,Money in,Balance"

const (
	revolutColDate     = "Date"
	revolutColDesc     = "Description"
	revolutColMoneyOut = "Money out"
	revolutColMoneyIn  = "Money in"
	revolutColBalance  = "Balance"
)

var (
	revolutSectionPrefixes = []string{"Transactions for ", "Summary for "}

	// Interest notices are informational rows, not account movements.
	revolutInterestMarkers = []string{"interés neto pagado", "net interest paid"}
)

// RevolutParser parses Revolut consolidated CSV statements, which
// concatenate several titled sections with their own headers.
type RevolutParser struct {
	Categorizer *categorize.Categorizer
}

// Source returns the parser's source tag.
func (p *RevolutParser) Source() model.Source { return model.SourceRevolut }

// Parse reads a Revolut statement and returns transactions, most recent
// first. Sections without the expected header are ignored.
func (p *RevolutParser) Parse(ctx context.Context, r io.Reader) ([]model.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading revolut CSV: %w", err)
	}
	log := logger.FromContext(ctx).With().Str("source", string(model.SourceRevolut)).Logger()

	c := p.Categorizer
	if c == nil {
		c = categorize.Default()
	}

	var txns []model.Transaction
	row := 0
	for i, section := range splitRevolutSections(string(data)) {
		start := strings.Index(section, RevolutHeader)
		if start < 0 {
			log.Debug().Int("section", i).Msg("skipping section without transaction header")
			continue
		}

		cr := csv.NewReader(strings.NewReader(section[start:]))
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true

		header, err := cr.Read()
		if err != nil {
			continue
		}
		cols := indexHeader(header)

		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				log.Warn().Err(err).Int("row", row).Msg("skipping unreadable row")
				row++
				continue
			}

			txn, reason := parseRevolutRow(rec, cols, row, c)
			if reason != "" {
				log.Debug().Int("row", row).Str("reason", reason).Msg("skipping row")
			} else {
				txns = append(txns, txn)
			}
			row++
		}
	}

	sortByDateDesc(txns)
	return txns, nil
}

// splitRevolutSections cuts the statement before every section title line.
func splitRevolutSections(text string) []string {
	var sections []string
	var cur []string
	for _, line := range strings.Split(text, "\n") {
		if hasAnyPrefix(line, revolutSectionPrefixes) && len(cur) > 0 {
			sections = append(sections, strings.Join(cur, "\n"))
			cur = nil
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		sections = append(sections, strings.Join(cur, "\n"))
	}
	return sections
}

func parseRevolutRow(rec []string, cols map[string]int, row int, c *categorize.Categorizer) (model.Transaction, string) {
	rawDate := field(rec, cols, revolutColDate)
	rawDesc := field(rec, cols, revolutColDesc)
	rawOut := field(rec, cols, revolutColMoneyOut)
	rawIn := field(rec, cols, revolutColMoneyIn)

	if strings.TrimSpace(rawDate) == "" || strings.TrimSpace(rawDesc) == "" {
		return model.Transaction{}, "missing required field"
	}

	date, ok := normalize.ParseDateB(rawDate)
	if !ok {
		return model.Transaction{}, "bad date"
	}

	lower := strings.ToLower(rawDesc)
	for _, m := range revolutInterestMarkers {
		if strings.Contains(lower, m) {
			return model.Transaction{}, "interest notice"
		}
	}

	moneyOut, _ := normalize.ParseAmountB(rawOut)
	moneyIn, _ := normalize.ParseAmountB(rawIn)
	amount := moneyOut.Neg()
	if moneyIn.IsPositive() {
		amount = moneyIn
	}
	if amount.IsZero() {
		return model.Transaction{}, "zero amount"
	}

	balance, _ := normalize.ParseAmountB(field(rec, cols, revolutColBalance))
	concept := strings.TrimSpace(strings.ReplaceAll(rawDesc, `"`, ""))

	return model.Transaction{
		ID:          id.FormatTransactionID(model.SourceRevolut, row, rawDate),
		Date:        date,
		Concept:     concept,
		Amount:      amount,
		Balance:     balance,
		Category:    c.Categorize(concept, amount),
		Source:      model.SourceRevolut,
		OriginalRow: strings.Join([]string{rawDate, rawDesc, rawOut, rawIn}, ","),
	}, ""
}
