// Package ingest turns uploaded bank exports into ledger rows: files are
// parsed concurrently, merged one batch at a time into the local ledger and
// mirrored to the SQL store when one is configured.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luca-finance/luca/internal/importer"
	"github.com/luca-finance/luca/internal/logger"
	"github.com/luca-finance/luca/internal/model"
)

// Ledger is the local, authoritative transaction set.
type Ledger interface {
	Load() ([]model.Transaction, error)
	Merge(incoming []model.Transaction) ([]model.Transaction, error)
	AppendUpload(u model.Upload) error
	Uploads() ([]model.Upload, error)
}

// Remote mirrors the ledger to a database.
type Remote interface {
	SaveTransactions(ctx context.Context, uploadID string, txns []model.Transaction) (int, error)
	SaveUpload(ctx context.Context, u model.Upload) error
}

// DefaultTimeout bounds every remote call.
const DefaultTimeout = 10 * time.Second

// Options configures a Service.
type Options struct {
	UserID  string
	Timeout time.Duration
}

// SaveResult reports how one batch was persisted. Attempted counts the new
// rows of the batch. Saved counts rows confirmed by the remote store, or by
// the ledger when no remote is configured. Local is set when some rows
// exist only in the local ledger; Err then explains why.
type SaveResult struct {
	UploadID  string
	Attempted int
	Saved     int
	Local     bool
	Err       error
}

// FileOutcome is the self-contained result of importing one file.
type FileOutcome struct {
	Name      string
	Detection importer.Detection
	Parsed    int
	Save      SaveResult
	Err       error
}

// Source returns the detected source of the file.
func (o FileOutcome) Source() model.Source { return o.Detection.Format.Source() }

// Service imports files into the ledger. It is safe for concurrent use.
type Service struct {
	registry *importer.Registry
	ledger   Ledger
	remote   Remote
	userID   string
	timeout  time.Duration
	now      func() time.Time

	mu   sync.Mutex
	txns []model.Transaction
}

// New loads the ledger and returns a Service. remote may be nil.
func New(registry *importer.Registry, ledger Ledger, remote Remote, opts Options) (*Service, error) {
	txns, err := ledger.Load()
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Service{
		registry: registry,
		ledger:   ledger,
		remote:   remote,
		userID:   opts.UserID,
		timeout:  opts.Timeout,
		now:      time.Now,
		txns:     txns,
	}, nil
}

// Transactions returns a copy of the current ledger.
func (s *Service) Transactions() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Transaction(nil), s.txns...)
}

// ImportFiles parses files concurrently and commits each as soon as it is
// parsed. Outcomes are in completion order. A failing file never affects
// the others.
func (s *Service) ImportFiles(ctx context.Context, files []importer.File) []FileOutcome {
	outcomes := make([]FileOutcome, 0, len(files))
	for res := range s.registry.ParseFiles(ctx, files) {
		out := FileOutcome{
			Name:      res.Name,
			Detection: res.Detection,
			Parsed:    len(res.Transactions),
			Err:       res.Err,
		}
		if res.Err == nil {
			out.Save, out.Err = s.commit(ctx, res)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (s *Service) commit(ctx context.Context, res importer.FileResult) (SaveResult, error) {
	log := logger.FromContext(ctx).With().Str("file", res.Name).Logger()

	from, to := model.DateRange(res.Transactions)
	upload := model.Upload{
		ID:               uuid.NewString(),
		UserID:           s.userID,
		Filename:         res.Name,
		Source:           res.Source(),
		TransactionCount: len(res.Transactions),
		DateFrom:         from,
		DateTo:           to,
		CreatedAt:        s.now().UTC().Truncate(time.Second),
	}

	added, err := s.append(res.Transactions)
	if err != nil {
		return SaveResult{UploadID: upload.ID}, fmt.Errorf("merging %s: %w", res.Name, err)
	}
	if err := s.ledger.AppendUpload(upload); err != nil {
		log.Warn().Err(err).Msg("recording upload locally")
	}

	result := SaveResult{UploadID: upload.ID, Attempted: len(added)}
	if s.remote == nil {
		result.Saved = len(added)
		result.Local = true
	} else {
		result.Saved, result.Err = s.mirror(ctx, upload, added)
		result.Local = result.Saved < result.Attempted
	}

	log.Info().
		Str("upload", upload.ID).
		Int("parsed", len(res.Transactions)).
		Int("new", result.Attempted).
		Int("saved", result.Saved).
		Bool("local_only", result.Local).
		Msg("imported file")
	return result, nil
}

// append is the single-writer step: the ledger file and the in-memory set
// change together.
func (s *Service) append(incoming []model.Transaction) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.ledger.Merge(incoming)
	if err != nil {
		return nil, err
	}
	s.txns = append(s.txns, added...)
	return added, nil
}

// mirror writes rows and the upload record to the remote store. Rows that
// fail stay in the local ledger and are pushed again by Sync. The upload
// record is written whatever the row outcome.
func (s *Service) mirror(ctx context.Context, upload model.Upload, txns []model.Transaction) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	log := logger.FromContext(ctx)

	saved, err := s.remote.SaveTransactions(ctx, upload.ID, txns)
	if err != nil {
		log.Warn().Err(err).
			Int("attempted", len(txns)).Int("saved", saved).
			Msg("remote save incomplete, rows kept in local ledger")
	}
	if uerr := s.remote.SaveUpload(ctx, upload); uerr != nil {
		log.Warn().Err(uerr).Str("upload", upload.ID).Msg("upload record kept in local ledger")
		err = errors.Join(err, fmt.Errorf("saving upload record: %w", uerr))
	}
	return saved, err
}

// Sync pushes the whole local ledger, rows and upload records, to the remote
// store. Anything already present remotely is left untouched, so Sync can run
// any number of times.
func (s *Service) Sync(ctx context.Context) (SaveResult, error) {
	if s.remote == nil {
		return SaveResult{}, fmt.Errorf("no remote store configured")
	}
	uploads, err := s.ledger.Uploads()
	if err != nil {
		return SaveResult{}, fmt.Errorf("reading local uploads: %w", err)
	}
	txns := s.Transactions()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	saved, err := s.remote.SaveTransactions(ctx, "", txns)
	for _, u := range uploads {
		if uerr := s.remote.SaveUpload(ctx, u); uerr != nil {
			err = errors.Join(err, fmt.Errorf("saving upload record %s: %w", u.ID, uerr))
		}
	}
	return SaveResult{Attempted: len(txns), Saved: saved, Local: saved < len(txns), Err: err}, nil
}
