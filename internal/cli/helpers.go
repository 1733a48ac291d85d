package cli

import (
	"fmt"

	"github.com/rewired-gh/reelstats/internal/analyzer"
	"github.com/rewired-gh/reelstats/internal/config"
	"github.com/rewired-gh/reelstats/internal/fetcher"
	"github.com/rewired-gh/reelstats/internal/logger"
	"github.com/rewired-gh/reelstats/internal/storage"
	"github.com/rewired-gh/reelstats/internal/telegram"
)

// notifier is the subset of the Telegram client the commands use
type notifier interface {
	SendFetchSummary(summary *fetcher.Summary) error
	SendReport(report *analyzer.Report, minGenreMovies int) error
}

// loadConfig reads and validates the configuration, then initializes logging.
func (e *env) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(e.globals.Config)
	if err != nil {
		return nil, err
	}
	if e.globals.Verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

// openStore loads the index described by cfg
func openStore(cfg *config.Config) (*storage.Store, error) {
	store := storage.New(cfg.IndexPath(), cfg.MoviesPath())
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	return store, nil
}

// newNotifier returns nil when Telegram is disabled
func newNotifier(cfg *config.Config) (notifier, error) {
	if !cfg.Telegram.Enabled {
		return nil, nil
	}
	client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
	if err != nil {
		return nil, err
	}
	return client, nil
}
