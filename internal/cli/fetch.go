package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/reelstats/internal/fetcher"
	"github.com/rewired-gh/reelstats/internal/logger"
	"github.com/rewired-gh/reelstats/internal/tmdb"
	"github.com/rewired-gh/reelstats/internal/trakt"
)

// Execute implements the go-flags Commander interface for FetchCommand.
func (c *FetchCommand) Execute(args []string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateFetch(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	var notify notifier
	if !c.NoNotify {
		if notify, err = newNotifier(cfg); err != nil {
			return err
		}
	}

	traktClient := trakt.NewClient(cfg.Trakt.APIBaseURL, cfg.Trakt.ClientID, trakt.ClientConfig{
		Timeout:        cfg.Trakt.Timeout,
		Interval:       cfg.TraktInterval(),
		MaxRetries:     cfg.Trakt.MaxRetries,
		RetryDelayBase: cfg.Trakt.RetryDelayBase,
	})
	tmdbClient := tmdb.NewClient(cfg.TMDB.APIBaseURL, cfg.TMDB.APIKey, tmdb.ClientConfig{
		Timeout:        cfg.TMDB.Timeout,
		Interval:       cfg.TMDBInterval(),
		MaxRetries:     cfg.TMDB.MaxRetries,
		RetryDelayBase: cfg.TMDB.RetryDelayBase,
	})

	f := fetcher.New(traktClient, tmdbClient, store, fetcher.Options{
		StartYear:       cfg.Fetch.StartYear,
		EndYear:         cfg.Fetch.EndYear,
		TargetTotal:     cfg.Fetch.TargetTotal,
		MaxPagesPerYear: cfg.Fetch.MaxPagesPerYear,
		PageSize:        cfg.Trakt.PageSize,
	})

	logger.Info("Fetching popular movies %d-%d (target %d, %d already indexed)",
		cfg.Fetch.StartYear, cfg.Fetch.EndYear, cfg.Fetch.TargetTotal, store.Count())

	summary, err := f.Run(c.ctx)
	if summary != nil {
		printFetchSummary(c, summary)
	}
	if err != nil {
		return fmt.Errorf("fetch interrupted: %w", err)
	}

	if notify != nil {
		if err := notify.SendFetchSummary(summary); err != nil {
			logger.Warn("Failed to send fetch summary: %v", err)
		}
	}
	return nil
}

func printFetchSummary(c *FetchCommand, s *fetcher.Summary) {
	printTitle(c.out, "Fetch complete")
	printField(c.out, "New", humanize.Comma(int64(s.New)))
	printField(c.out, "Skipped", humanize.Comma(int64(s.Skipped)))
	printField(c.out, "Failed", humanize.Comma(int64(s.Failed)))
	printField(c.out, "Indexed", humanize.Comma(int64(s.Total)))
	printField(c.out, "Duration", s.Duration.Round(time.Second).String())
	printField(c.out, "Run", s.RunID)
}
