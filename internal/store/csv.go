package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luca-finance/luca/internal/model"
)

// TransactionHeader is the CSV header for transactions.csv.
const TransactionHeader = "id,date,concept,amount,balance,category,source,original_row"

const (
	numTxnFields   = 8
	dateFormat     = "2006-01-02"
	colID          = 0
	colDate        = 1
	colConcept     = 2
	colAmount      = 3
	colBalance     = 4
	colCategory    = 5
	colSource      = 6
	colOriginalRow = 7
)

// ReadTransactions reads all transactions from a transactions.csv reader.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numTxnFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var txns []model.Transaction
	for i, rec := range records[1:] {
		t, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// WriteTransactions writes transactions to a transactions.csv writer (including header).
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(TransactionHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// AppendTransactions appends transactions to an existing transactions.csv writer (no header).
func AppendTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row. Amounts keep full
// precision so a reloaded row has the same dedup key as a fresh parse.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numTxnFields)
	row[colID] = t.ID
	row[colDate] = t.Date.Format(dateFormat)
	row[colConcept] = t.Concept
	row[colAmount] = t.Amount.String()
	row[colBalance] = t.Balance.String()
	row[colCategory] = string(t.Category)
	row[colSource] = string(t.Source)
	row[colOriginalRow] = t.OriginalRow
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numTxnFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numTxnFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	var balance decimal.Decimal
	if record[colBalance] != "" {
		balance, err = decimal.NewFromString(record[colBalance])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
		}
	}

	return model.Transaction{
		ID:          record[colID],
		Date:        date,
		Concept:     record[colConcept],
		Amount:      amount,
		Balance:     balance,
		Category:    model.Category(record[colCategory]),
		Source:      model.Source(record[colSource]),
		OriginalRow: record[colOriginalRow],
	}, nil
}

// UploadHeader is the CSV header for uploads.csv.
const UploadHeader = "id,user_id,filename,source,transaction_count,date_from,date_to,created_at"

const (
	numUploadFields = 8
	colUpID         = 0
	colUpUser       = 1
	colUpFilename   = 2
	colUpSource     = 3
	colUpCount      = 4
	colUpFrom       = 5
	colUpTo         = 6
	colUpCreated    = 7
)

// MarshalUpload converts an Upload to a CSV row.
func MarshalUpload(u model.Upload) []string {
	row := make([]string, numUploadFields)
	row[colUpID] = u.ID
	row[colUpUser] = u.UserID
	row[colUpFilename] = u.Filename
	row[colUpSource] = string(u.Source)
	row[colUpCount] = strconv.Itoa(u.TransactionCount)
	if !u.DateFrom.IsZero() {
		row[colUpFrom] = u.DateFrom.Format(dateFormat)
	}
	if !u.DateTo.IsZero() {
		row[colUpTo] = u.DateTo.Format(dateFormat)
	}
	row[colUpCreated] = u.CreatedAt.Format(time.RFC3339)
	return row
}

// UnmarshalUpload converts a CSV row to an Upload.
func UnmarshalUpload(record []string) (model.Upload, error) {
	if len(record) != numUploadFields {
		return model.Upload{}, fmt.Errorf("expected %d fields, got %d", numUploadFields, len(record))
	}

	count, err := strconv.Atoi(record[colUpCount])
	if err != nil {
		return model.Upload{}, fmt.Errorf("parsing transaction_count %q: %w", record[colUpCount], err)
	}

	var from, to time.Time
	if record[colUpFrom] != "" {
		if from, err = time.Parse(dateFormat, record[colUpFrom]); err != nil {
			return model.Upload{}, fmt.Errorf("parsing date_from %q: %w", record[colUpFrom], err)
		}
	}
	if record[colUpTo] != "" {
		if to, err = time.Parse(dateFormat, record[colUpTo]); err != nil {
			return model.Upload{}, fmt.Errorf("parsing date_to %q: %w", record[colUpTo], err)
		}
	}

	created, err := time.Parse(time.RFC3339, record[colUpCreated])
	if err != nil {
		return model.Upload{}, fmt.Errorf("parsing created_at %q: %w", record[colUpCreated], err)
	}

	return model.Upload{
		ID:               record[colUpID],
		UserID:           record[colUpUser],
		Filename:         record[colUpFilename],
		Source:           model.Source(record[colUpSource]),
		TransactionCount: count,
		DateFrom:         from,
		DateTo:           to,
		CreatedAt:        created,
	}, nil
}
