package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/reelstats/internal/analyzer"
	"github.com/rewired-gh/reelstats/internal/logger"
	"github.com/rewired-gh/reelstats/internal/plots"
	"github.com/rewired-gh/reelstats/internal/storage"
)

// highlightN bounds the ranked lists printed after an analysis
const highlightN = 5

// Execute implements the go-flags Commander interface for AnalyzeCommand.
func (c *AnalyzeCommand) Execute(args []string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if c.Top < 0 {
		return fmt.Errorf("--top must not be negative")
	}
	topN := cfg.Analysis.TopN
	if c.Top > 0 {
		topN = c.Top
	}

	var notify notifier
	if !c.NoNotify {
		if notify, err = newNotifier(cfg); err != nil {
			return err
		}
	}

	movies, unreadable, err := storage.LoadMovies(cfg.MoviesPath())
	if err != nil {
		return fmt.Errorf("failed to load movies: %w", err)
	}
	if unreadable > 0 {
		logger.Warn("Skipped %d unreadable movie files", unreadable)
	}
	logger.Info("Analyzing %d movies", len(movies))

	result := analyzer.Analyze(movies, analyzer.Options{
		TopN:             topN,
		MinKeywordMovies: cfg.Analysis.MinKeywordMovies,
	})

	reportPath, err := analyzer.WriteReport(cfg.Analysis.ResultsDir, &result.Report)
	if err != nil {
		return err
	}

	var rendered []string
	if cfg.Analysis.Plots && !c.NoPlots {
		if rendered, err = plots.Render(cfg.PlotsPath(), result); err != nil {
			return fmt.Errorf("failed to render plots: %w", err)
		}
	}

	c.printHighlights(&result.Report, cfg.Analysis.MinGenreMovies)
	printSection(c.out, "Output")
	printField(c.out, "Report", reportPath)
	for _, p := range rendered {
		printField(c.out, "Plot", p)
	}

	if notify != nil {
		if err := notify.SendReport(&result.Report, cfg.Analysis.MinGenreMovies); err != nil {
			logger.Warn("Failed to send analysis highlights: %v", err)
		}
	}
	return nil
}

func (c *AnalyzeCommand) printHighlights(r *analyzer.Report, minGenreMovies int) {
	stats := r.BasicStats
	printTitle(c.out, "Movie analysis")
	printField(c.out, "Movies", humanize.Comma(int64(stats.TotalMovies)))
	if stats.SkippedMovies > 0 {
		printField(c.out, "Unrated", humanize.Comma(int64(stats.SkippedMovies)))
	}
	printField(c.out, "Avg rating", fmt.Sprintf("%.2f", stats.AvgRating))
	printField(c.out, "Consistency", fmt.Sprintf("%.2f", stats.AvgConsistency))
	printField(c.out, "Engagement", fmt.Sprintf("%.3f", stats.AvgEngagement))
	printField(c.out, "Success", fmt.Sprintf("%.3f", stats.AvgSuccess))

	if p := r.RatingConsistency.CorrelationWithVotes.Pearson; p != nil {
		printField(c.out, "σ ~ votes", fmt.Sprintf("%+.3f", *p))
	}

	if len(r.RatingConsistency.MostConsistent) > 0 {
		printSection(c.out, "Most consistent")
		printBox(c.out, rankedLines(r.RatingConsistency.MostConsistent, "%.2f"))
	}

	var genres []string
	for _, g := range r.GenreImpact {
		if g.MovieCount < minGenreMovies {
			continue
		}
		genres = append(genres, fmt.Sprintf("%-18s %5.2f  %s movies", g.Genre, g.AvgRating, humanize.Comma(int64(g.MovieCount))))
	}
	if len(genres) > 0 {
		printSection(c.out, "Genres")
		printBox(c.out, genres)
	}

	if len(r.KeywordImpact) > 0 {
		keywords := r.KeywordImpact
		if len(keywords) > highlightN {
			keywords = keywords[:highlightN]
		}
		lines := make([]string, 0, len(keywords))
		for _, k := range keywords {
			lines = append(lines, fmt.Sprintf("%-18s %s watchers  %s movies", k.Keyword,
				humanize.Comma(int64(k.TotalWatchers)), humanize.Comma(int64(k.MovieCount))))
		}
		printSection(c.out, "Keywords")
		printBox(c.out, lines)
	}

	if len(r.TopMovies) > 0 {
		printSection(c.out, "Top success index")
		printBox(c.out, rankedLines(r.TopMovies, "%.3f"))
	}
}

func rankedLines(ranked []analyzer.RankedMovie, scoreFormat string) []string {
	if len(ranked) > highlightN {
		ranked = ranked[:highlightN]
	}
	lines := make([]string, 0, len(ranked))
	for i, m := range ranked {
		lines = append(lines, fmt.Sprintf("%d. %s (%d) "+scoreFormat, i+1, m.Title, m.Year, m.Score))
	}
	return lines
}
