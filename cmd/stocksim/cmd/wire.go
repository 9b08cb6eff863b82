package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/stocksim/config"
	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/pkg/logger"
	"github.com/rustyeddy/stocksim/quotes"
)

// env is what every command builds from the configuration.
type env struct {
	cfg     *config.Config
	log     zerolog.Logger
	closers []io.Closer
}

func loadEnv() (*env, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return &env{cfg: cfg, log: log, closers: []io.Closer{closer}}, nil
}

func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	return errors.Join(errs...)
}

// openJournal opens the configured result journal.
func (e *env) openJournal() (journal.Journal, error) {
	var (
		j   journal.Journal
		err error
	)
	switch e.cfg.Journal.Type {
	case "csv":
		j, err = journal.NewCSV(e.cfg.Journal.File)
	default:
		j, err = journal.NewSQLite(e.cfg.Journal.DBPath)
	}
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	e.closers = append(e.closers, j)
	return j, nil
}

// openStore opens a journal that supports history queries.
func (e *env) openStore() (journal.Store, error) {
	if e.cfg.Journal.Type != "sqlite" {
		return nil, fmt.Errorf("history queries need the sqlite journal, configured %q", e.cfg.Journal.Type)
	}
	j, err := e.openJournal()
	if err != nil {
		return nil, err
	}
	return j.(journal.Store), nil
}

// provider builds the cached Stooq history provider.
func (e *env) provider(ctx context.Context) (*quotes.CachedProvider, error) {
	qc := e.cfg.Quotes
	timeout, err := qc.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("quotes timeout: %w", err)
	}

	var cache quotes.Cache
	switch qc.Cache {
	case "memory":
		cache = quotes.NewMemoryCache()
	case "redis":
		rc, err := quotes.NewRedisCache(ctx, qc.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		e.closers = append(e.closers, rc)
		cache = rc
	default:
		fc, err := quotes.NewFileCache(qc.CacheFile)
		if err != nil {
			return nil, fmt.Errorf("open history cache: %w", err)
		}
		cache = fc
	}

	return &quotes.CachedProvider{
		Fetcher: quotes.NewClient(qc.BaseURL, timeout),
		Cache:   cache,
		Logger:  e.log.With().Str("component", "quotes").Logger(),
	}, nil
}
