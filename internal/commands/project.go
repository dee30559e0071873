package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/luca-finance/luca/internal/categorize"
	"github.com/luca-finance/luca/internal/config"
	"github.com/luca-finance/luca/internal/importer"
	"github.com/luca-finance/luca/internal/ingest"
	"github.com/luca-finance/luca/internal/logger"
	"github.com/luca-finance/luca/internal/store"
)

// project is an opened luca project: config, rules and both stores.
type project struct {
	dir         string
	cfg         *config.Config
	log         zerolog.Logger
	categorizer *categorize.Categorizer
	registry    *importer.Registry
	ledger      *store.LocalStore
	remote      *store.SQLStore
	svc         *ingest.Service
}

// openProject loads the project at opts.dir. The returned context carries
// the project logger. A database that cannot be opened is logged and the
// project continues with the local ledger only.
func openProject(ctx context.Context, opts *rootOptions) (*project, context.Context, error) {
	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, ctx, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, ctx, fmt.Errorf("loading project at %s: %w", dir, err)
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log := logger.New(level).With().Str("user", cfg.User.ID).Logger()
	ctx = logger.WithContext(ctx, log)

	p := &project{dir: dir, cfg: cfg, log: log}

	p.categorizer = categorize.Default()
	if cfg.Rules.File != "" {
		if p.categorizer, err = categorize.LoadRules(config.Path(dir, cfg.Rules.File)); err != nil {
			return nil, ctx, err
		}
	}
	p.registry = importer.RegistryWith(p.categorizer)
	p.ledger = store.NewLocalStore(dir)

	if cfg.Storage.Driver != "none" {
		p.remote, err = openRemote(ctx, dir, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("database unavailable, using local ledger only")
		}
	}

	var remote ingest.Remote
	if p.remote != nil {
		remote = p.remote
	}
	p.svc, err = ingest.New(p.registry, p.ledger, remote, ingest.Options{
		UserID:  cfg.User.ID,
		Timeout: cfg.Storage.Timeout,
	})
	if err != nil {
		p.Close()
		return nil, ctx, err
	}
	return p, ctx, nil
}

func openRemote(ctx context.Context, dir string, cfg *config.Config) (*store.SQLStore, error) {
	dsn := cfg.Storage.DSN
	if cfg.Storage.Driver == string(store.DriverSQLite) {
		dsn = config.Path(dir, dsn)
	}

	timeout := cfg.Storage.Timeout
	if timeout <= 0 {
		timeout = ingest.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := store.Open(ctx, store.Driver(cfg.Storage.Driver), dsn, store.Options{
		UserID:    cfg.User.ID,
		BatchSize: cfg.Storage.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the database connection, if any.
func (p *project) Close() {
	if p.remote != nil {
		if err := p.remote.Close(); err != nil {
			p.log.Warn().Err(err).Msg("closing database")
		}
	}
}
