package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/luca-finance/luca/internal/merge"
	"github.com/luca-finance/luca/internal/model"
)

const (
	ledgerDir   = "ledger"
	txnFile     = "transactions.csv"
	uploadsFile = "uploads.csv"
)

// LocalStore keeps the ledger as one transactions.csv per month under
// <root>/ledger/YYYY/MM/ plus an append-only uploads.csv.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the project directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Load returns every stored transaction, oldest month first and in
// append order within a month.
func (s *LocalStore) Load() ([]model.Transaction, error) {
	paths, err := filepath.Glob(filepath.Join(s.root, ledgerDir, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", txnFile))
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	sort.Strings(paths)

	var all []model.Transaction
	for _, p := range paths {
		txns, err := readFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, txns...)
	}
	return all, nil
}

// ReadMonth reads all transactions for a given year/month.
func (s *LocalStore) ReadMonth(year, month int) ([]model.Transaction, error) {
	return readFile(s.monthPath(year, month))
}

// Merge appends the transactions of incoming that are not already stored
// and returns them. Every touched month is validated before anything is
// written, so a rejected batch leaves the ledger unchanged.
func (s *LocalStore) Merge(incoming []model.Transaction) ([]model.Transaction, error) {
	existing, err := s.Load()
	if err != nil {
		return nil, err
	}

	added := merge.Missing(existing, incoming)
	if len(added) == 0 {
		return nil, nil
	}

	type ym struct{ year, month int }
	byMonth := make(map[ym][]model.Transaction)
	var months []ym
	for _, t := range added {
		k := ym{t.Date.Year(), int(t.Date.Month())}
		if _, ok := byMonth[k]; !ok {
			months = append(months, k)
		}
		byMonth[k] = append(byMonth[k], t)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})

	for _, m := range months {
		current, err := s.ReadMonth(m.year, m.month)
		if err != nil {
			return nil, err
		}
		all := append(current, byMonth[m]...)
		if verrs := ValidateMonth(all, m.year, m.month); len(verrs) > 0 {
			msgs := make([]string, len(verrs))
			for i, ve := range verrs {
				msgs[i] = ve.Error()
			}
			return nil, fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
		}
	}

	for _, m := range months {
		if err := s.appendMonth(m.year, m.month, byMonth[m]); err != nil {
			return nil, err
		}
	}
	return added, nil
}

func (s *LocalStore) appendMonth(year, month int, txns []model.Transaction) error {
	path := s.monthPath(year, month)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, TransactionHeader); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	if err := AppendTransactions(f, txns); err != nil {
		return fmt.Errorf("appending transactions: %w", err)
	}
	return nil
}

// AppendUpload records an upload batch in uploads.csv, creating the file
// and header if needed.
func (s *LocalStore) AppendUpload(u model.Upload) error {
	dir := filepath.Join(s.root, ledgerDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	path := filepath.Join(dir, uploadsFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening uploads log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(UploadHeader, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(MarshalUpload(u)); err != nil {
		return fmt.Errorf("writing upload %s: %w", u.ID, err)
	}
	return cw.Error()
}

// Uploads returns all recorded uploads in append order.
// Returns an empty slice if the log does not exist.
func (s *LocalStore) Uploads() ([]model.Upload, error) {
	path := filepath.Join(s.root, ledgerDir, uploadsFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening uploads log: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = numUploadFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading uploads CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var uploads []model.Upload
	for i, rec := range records[1:] {
		u, err := UnmarshalUpload(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func (s *LocalStore) monthPath(year, month int) string {
	return filepath.Join(s.root, ledgerDir, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), txnFile)
}

func readFile(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	txns, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return txns, nil
}
