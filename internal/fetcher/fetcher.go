// Package fetcher walks Trakt's popular-movie listings year by year and
// persists every title not yet in the local index, enriched with stats,
// rating histogram and TMDB keywords.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/reelstats/internal/logger"
	"github.com/rewired-gh/reelstats/internal/models"
	"github.com/rewired-gh/reelstats/internal/storage"
	"github.com/rewired-gh/reelstats/internal/trakt"
)

// MovieSource is the subset of the Trakt API the fetcher needs
type MovieSource interface {
	PopularMovies(ctx context.Context, year, page, limit int) ([]trakt.MovieSummary, error)
	MovieDetails(ctx context.Context, id string) (*trakt.MovieDetails, error)
	MovieStats(ctx context.Context, id string) (*models.Stats, error)
	MovieRatings(ctx context.Context, id string) (*models.Rating, error)
}

// KeywordSource is the subset of the TMDB API the fetcher needs
type KeywordSource interface {
	Keywords(ctx context.Context, tmdbID int) ([]models.Keyword, error)
}

// Options bounds a fetch run
type Options struct {
	StartYear       int
	EndYear         int
	TargetTotal     int // stop once the index holds this many movies
	MaxPagesPerYear int
	PageSize        int
}

// Summary reports the outcome of one run
type Summary struct {
	RunID    string        `json:"run_id"`
	New      int           `json:"new"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Total    int           `json:"total"`
	Duration time.Duration `json:"duration"`
}

// Fetcher downloads movie records into a Store
type Fetcher struct {
	movies   MovieSource
	keywords KeywordSource
	store    *storage.Store
	opts     Options
}

// New creates a Fetcher
func New(movies MovieSource, keywords KeywordSource, store *storage.Store, opts Options) *Fetcher {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	return &Fetcher{
		movies:   movies,
		keywords: keywords,
		store:    store,
		opts:     opts,
	}
}

// Run fetches until every year is exhausted, the page cap is hit for every
// year, or the index reaches the target total. Single-title failures are
// logged and counted; only context cancellation or a failing index write
// aborts the run.
func (f *Fetcher) Run(ctx context.Context) (*Summary, error) {
	startTime := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	defer func() {
		summary.Total = f.store.Count()
		summary.Duration = time.Since(startTime)
	}()

	if err := f.store.SetRunID(summary.RunID); err != nil {
		return summary, fmt.Errorf("failed to record run id: %w", err)
	}
	logger.Info("Starting fetch run %s (years %d-%d, target %d, already indexed %d)",
		summary.RunID, f.opts.StartYear, f.opts.EndYear, f.opts.TargetTotal, f.store.Count())

	for year := f.opts.StartYear; year <= f.opts.EndYear; year++ {
		if f.targetReached() {
			break
		}
		if err := f.fetchYear(ctx, year, summary); err != nil {
			return summary, err
		}
	}

	logger.Info("Fetch run %s completed: %d new, %d skipped, %d failed, %d total",
		summary.RunID, summary.New, summary.Skipped, summary.Failed, f.store.Count())
	return summary, nil
}

func (f *Fetcher) targetReached() bool {
	return f.opts.TargetTotal > 0 && f.store.Count() >= f.opts.TargetTotal
}

func (f *Fetcher) fetchYear(ctx context.Context, year int, summary *Summary) error {
	first := f.store.LastPage(year) + 1
	if first > 1 {
		logger.Debug("Resuming year %d at page %d", year, first)
	}

	for page := first; f.opts.MaxPagesPerYear <= 0 || page <= f.opts.MaxPagesPerYear; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		listing, err := f.movies.PopularMovies(ctx, year, page, f.opts.PageSize)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("Stopping year %d: %v", year, err)
			return nil
		}
		if len(listing) == 0 {
			logger.Debug("Year %d exhausted after page %d", year, page-1)
			return nil
		}
		logger.Info("Year %d page %d: %d titles", year, page, len(listing))

		for _, item := range listing {
			if f.targetReached() {
				logger.Info("Target of %d movies reached", f.opts.TargetTotal)
				return nil
			}
			if err := f.fetchTitle(ctx, item, summary); err != nil {
				return err
			}
		}

		if err := f.store.SetPage(year, page); err != nil {
			return fmt.Errorf("failed to record page: %w", err)
		}
		if len(listing) < f.opts.PageSize {
			return nil
		}
	}
	return nil
}

// fetchTitle downloads and stores one title. It returns an error only when
// the run must stop.
func (f *Fetcher) fetchTitle(ctx context.Context, item trakt.MovieSummary, summary *Summary) error {
	if item.Ids.Trakt <= 0 {
		logger.Warn("Skipping %q: missing trakt id", item.Title)
		summary.Failed++
		return nil
	}
	if f.store.Has(item.Ids.Trakt) {
		logger.Debug("Skipping %q (%d): already indexed", item.Title, item.Ids.Trakt)
		summary.Skipped++
		return nil
	}

	movie, err := f.assemble(ctx, item)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Failed to fetch %q (%d): %v", item.Title, item.Ids.Trakt, err)
		summary.Failed++
		return nil
	}

	entry, err := f.store.AddMovie(movie)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		summary.Skipped++
		return nil
	case err != nil && entry.ID == 0:
		logger.Warn("Failed to store %q (%d): %v", item.Title, item.Ids.Trakt, err)
		summary.Failed++
		return nil
	case err != nil:
		// record written, index not saved
		return fmt.Errorf("failed to save index: %w", err)
	}

	summary.New++
	logger.Info("Saved %q (%d) [%d total]", movie.Title, movie.Ids.Trakt, f.store.Count())
	return nil
}

func (f *Fetcher) assemble(ctx context.Context, item trakt.MovieSummary) (*models.Movie, error) {
	id := item.Ids.Slug
	if id == "" {
		id = strconv.Itoa(item.Ids.Trakt)
	}

	details, err := f.movies.MovieDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := f.movies.MovieStats(ctx, id)
	if err != nil {
		return nil, err
	}
	rating, err := f.movies.MovieRatings(ctx, id)
	if err != nil {
		return nil, err
	}

	keywords := []models.Keyword{}
	if tmdbID := details.Ids.TMDB; tmdbID > 0 && f.keywords != nil {
		keywords, err = f.keywords.Keywords(ctx, tmdbID)
		if err != nil {
			return nil, err
		}
	}

	movie := details.ToMovie(*stats, *rating, keywords)
	return &movie, nil
}
