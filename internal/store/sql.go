package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/luca-finance/luca/internal/logger"
	"github.com/luca-finance/luca/internal/model"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrChunkFailed marks a batch of rows that could not be written.
var ErrChunkFailed = errors.New("chunk not saved")

// Driver selects the SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Options configures an SQLStore.
type Options struct {
	UserID    string
	BatchSize int
}

// SQLStore persists transactions and uploads in SQLite or PostgreSQL.
// Rows are unique per (user, date, concept, amount, source).
type SQLStore struct {
	db        *sql.DB
	driver    Driver
	userID    string
	batchSize int
}

// Open connects to the database. For SQLite the dsn is a file path whose
// directory is created if missing.
func Open(ctx context.Context, driver Driver, dsn string, opts Options) (*SQLStore, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("creating db directory: %w", err)
			}
		}
		db, err = sql.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	log := logger.FromContext(ctx)
	log.Debug().Str("driver", string(driver)).Msg("database connected")
	return &SQLStore{db: db, driver: driver, userID: opts.UserID, batchSize: opts.BatchSize}, nil
}

// Close closes the database.
func (s *SQLStore) Close() error { return s.db.Close() }

// Migrate applies pending schema migrations.
func (s *SQLStore) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	dialect := goose.DialectSQLite3
	if s.driver == DriverPostgres {
		dialect = goose.DialectPostgres
	}

	provider, err := goose.NewProvider(dialect, s.db, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	log := logger.FromContext(ctx)
	for _, r := range results {
		log.Info().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("applied migration")
	}
	return nil
}

// SaveTransactions inserts txns in chunks of the configured batch size.
// Each chunk is its own transaction; rows that already exist are left
// untouched. saved counts the rows of every committed chunk, and err joins
// one ErrChunkFailed per chunk that was rolled back.
func (s *SQLStore) SaveTransactions(ctx context.Context, uploadID string, txns []model.Transaction) (saved int, err error) {
	log := logger.FromContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339)

	var errs []error
	offset := 0
	for i, chunk := range Chunk(txns, s.batchSize) {
		inserted, cerr := s.insertChunk(ctx, chunk, uploadID, now)
		if cerr != nil {
			errs = append(errs, fmt.Errorf("chunk %d (rows %d-%d): %w: %w",
				i, offset, offset+len(chunk)-1, ErrChunkFailed, cerr))
			log.Warn().Err(cerr).Int("chunk", i).Int("rows", len(chunk)).Msg("chunk not saved")
		} else {
			saved += len(chunk)
			log.Debug().Int("chunk", i).Int("rows", len(chunk)).Int64("inserted", inserted).Msg("chunk saved")
		}
		offset += len(chunk)
	}
	return saved, errors.Join(errs...)
}

const txnColumns = "id, user_id, date, concept, amount, balance, category, source, original_row, upload_id, created_at"

func (s *SQLStore) insertChunk(ctx context.Context, chunk []model.Transaction, uploadID, now string) (int64, error) {
	const cols = 11
	args := make([]any, 0, len(chunk)*cols)
	for _, t := range chunk {
		args = append(args,
			t.ID, s.userID, t.Date.Format(dateFormat), t.Concept,
			t.Amount.String(), t.Balance.String(),
			string(t.Category), string(t.Source), t.OriginalRow, uploadID, now,
		)
	}

	query := "INSERT INTO transactions (" + txnColumns + ") VALUES " +
		s.valuesList(len(chunk), cols) +
		" ON CONFLICT (user_id, date, concept, amount, source) DO NOTHING"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("inserting transactions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transactions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// valuesList renders "(?, ?), (?, ?)" or "($1, $2), ($3, $4)" by driver.
func (s *SQLStore) valuesList(rows, cols int) string {
	var b strings.Builder
	n := 0
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			n++
			b.WriteString(s.placeholder(n))
		}
		b.WriteByte(')')
	}
	return b.String()
}

func (s *SQLStore) placeholder(n int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// SaveUpload records an upload batch. Saving the same upload again is a no-op.
func (s *SQLStore) SaveUpload(ctx context.Context, u model.Upload) error {
	var from, to string
	if !u.DateFrom.IsZero() {
		from = u.DateFrom.Format(dateFormat)
	}
	if !u.DateTo.IsZero() {
		to = u.DateTo.Format(dateFormat)
	}
	userID := u.UserID
	if userID == "" {
		userID = s.userID
	}

	query := "INSERT INTO uploads (id, user_id, filename, source, transaction_count, date_from, date_to, created_at) VALUES " +
		s.valuesList(1, 8) + " ON CONFLICT (id) DO NOTHING"
	_, err := s.db.ExecContext(ctx, query,
		u.ID, userID, u.Filename, string(u.Source), u.TransactionCount, from, to,
		u.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving upload %s: %w", u.ID, err)
	}
	return nil
}

// LoadTransactions returns the user's transactions, most recent first.
func (s *SQLStore) LoadTransactions(ctx context.Context) ([]model.Transaction, error) {
	query := "SELECT id, date, concept, amount, balance, category, source, original_row FROM transactions WHERE user_id = " +
		s.placeholder(1) + " ORDER BY date DESC, id"
	rows, err := s.db.QueryContext(ctx, query, s.userID)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var date, amount, balance, category, source, orig string
		if err := rows.Scan(&t.ID, &date, &t.Concept, &amount, &balance, &category, &source, &orig); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		if t.Date, err = time.Parse(dateFormat, date); err != nil {
			return nil, fmt.Errorf("parsing date %q: %w", date, err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
		}
		if t.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("parsing balance %q: %w", balance, err)
		}
		t.Category = model.Category(category)
		t.Source = model.Source(source)
		t.OriginalRow = orig
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// Uploads returns the user's uploads, newest first.
func (s *SQLStore) Uploads(ctx context.Context) ([]model.Upload, error) {
	query := "SELECT id, user_id, filename, source, transaction_count, date_from, date_to, created_at FROM uploads WHERE user_id = " +
		s.placeholder(1) + " ORDER BY created_at DESC, id"
	rows, err := s.db.QueryContext(ctx, query, s.userID)
	if err != nil {
		return nil, fmt.Errorf("querying uploads: %w", err)
	}
	defer rows.Close()

	var uploads []model.Upload
	for rows.Next() {
		var u model.Upload
		var source, from, to, created string
		if err := rows.Scan(&u.ID, &u.UserID, &u.Filename, &source, &u.TransactionCount, &from, &to, &created); err != nil {
			return nil, fmt.Errorf("scanning upload: %w", err)
		}
		u.Source = model.Source(source)
		if from != "" {
			if u.DateFrom, err = time.Parse(dateFormat, from); err != nil {
				return nil, fmt.Errorf("parsing date_from %q: %w", from, err)
			}
		}
		if to != "" {
			if u.DateTo, err = time.Parse(dateFormat, to); err != nil {
				return nil, fmt.Errorf("parsing date_to %q: %w", to, err)
			}
		}
		if u.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", created, err)
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}
