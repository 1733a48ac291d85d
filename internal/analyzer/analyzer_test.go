package analyzer

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/reelstats/internal/models"
)

// movieWithVotes builds a record whose histogram holds one vote per entry of ratings.
func movieWithVotes(id int, title string, year int, ratings ...int) models.Movie {
	dist := map[string]int{}
	sum := 0
	for _, r := range ratings {
		dist[strconv.Itoa(r)]++
		sum += r
	}
	avg := 0.0
	if len(ratings) > 0 {
		avg = float64(sum) / float64(len(ratings))
	}
	return models.Movie{
		Title:                 title,
		Year:                  year,
		Ids:                   models.Ids{Trakt: id},
		Genres:                []string{"drama"},
		AvailableTranslations: []string{"en"},
		Stats:                 models.Stats{Watchers: id * 10, Plays: id * 20, Collectors: id, Comments: id, Lists: id, Votes: len(ratings)},
		Rating:                models.Rating{Rating: avg, Votes: len(ratings), Distribution: dist},
	}
}

func findScored(t *testing.T, result *Result, id int) ScoredMovie {
	t.Helper()
	for _, m := range result.Movies {
		if m.ID == id {
			return m
		}
	}
	t.Fatalf("movie %d not in result", id)
	return ScoredMovie{}
}

func TestAnalyzeConsistencyOrdering(t *testing.T) {
	movies := []models.Movie{
		movieWithVotes(1, "Flat", 2015, 8, 8, 8, 8),
		movieWithVotes(2, "Split", 2015, 1, 10, 1, 10),
		movieWithVotes(3, "Mostly Seven", 2015, 7, 7, 8, 7),
	}

	result := Analyze(movies, Options{})
	flat := findScored(t, result, 1)
	split := findScored(t, result, 2)
	seven := findScored(t, result, 3)

	assert.Equal(t, 0.0, flat.Consistency)
	assert.Greater(t, split.Consistency, seven.Consistency)
	assert.Greater(t, seven.Consistency, flat.Consistency)

	rc := result.Report.RatingConsistency
	require.Len(t, rc.MostConsistent, 3)
	assert.Equal(t, 1, rc.MostConsistent[0].ID)
	assert.Equal(t, 2, rc.MostInconsistent[0].ID)
}

func TestAnalyzeEmpty(t *testing.T) {
	result := Analyze(nil, Options{})
	report := result.Report

	assert.Empty(t, result.Movies)
	assert.Equal(t, BasicStats{}, report.BasicStats)
	assert.NotNil(t, report.GenreImpact)
	assert.NotNil(t, report.TopMovies)
	assert.NotNil(t, report.Timeline)
	assert.NotNil(t, report.RatingConsistency.MostConsistent)
	assert.Nil(t, report.RatingConsistency.CorrelationWithVotes.Pearson)
	assert.Nil(t, report.RatingConsistency.CorrelationWithRating.Spearman)

	data, err := MarshalReport(&report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"genre_impact": []`)
	assert.Contains(t, string(data), `"keyword_impact": []`)
	assert.Contains(t, string(data), `"keyword_trends": []`)
	assert.Contains(t, string(data), `"pearson": null`)
}

func TestAnalyzeDeterministic(t *testing.T) {
	movies := []models.Movie{
		movieWithVotes(4, "D", 2012, 6, 7, 8),
		movieWithVotes(1, "A", 2010, 9, 9, 10),
		movieWithVotes(3, "C", 2011, 2, 5, 9, 9),
		movieWithVotes(2, "B", 2010, 7, 7),
	}
	movies[0].Genres = []string{"thriller", "drama"}
	movies[2].Genres = []string{"comedy"}

	reversed := make([]models.Movie, len(movies))
	for i := range movies {
		reversed[len(movies)-1-i] = movies[i]
	}

	first := Analyze(movies, Options{TopN: 3}).Report
	second := Analyze(reversed, Options{TopN: 3}).Report

	a, err := MarshalReport(&first)
	require.NoError(t, err)
	b, err := MarshalReport(&second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAnalyzeSkipsEmptyHistograms(t *testing.T) {
	movies := []models.Movie{
		movieWithVotes(1, "Rated", 2015, 6, 8),
		movieWithVotes(2, "Unrated", 2015),
	}
	result := Analyze(movies, Options{})
	assert.Len(t, result.Movies, 1)
	assert.Equal(t, 1, result.Report.BasicStats.TotalMovies)
	assert.Equal(t, 1, result.Report.BasicStats.SkippedMovies)
}

func TestSuccessIndexZeroTerms(t *testing.T) {
	quiet := movieWithVotes(1, "Quiet", 2015, 9, 9)
	quiet.Stats = models.Stats{}
	quiet.AvailableTranslations = []string{}
	quiet.Rating.Rating = 9
	quiet.Rating.Votes = 10

	loud := movieWithVotes(2, "Loud", 2015, 5, 5)
	loud.Rating.Rating = 5
	loud.Rating.Votes = 30
	loud.AvailableTranslations = []string{"en", "de", "fr"}

	mid := movieWithVotes(3, "Mid", 2015, 7, 7)
	mid.Rating.Rating = 7
	mid.Rating.Votes = 20

	result := Analyze([]models.Movie{quiet, loud, mid}, Options{})
	q := findScored(t, result, 1)

	assert.Equal(t, 0.0, q.Engagement)
	assert.Equal(t, 0.0, q.TranslationReach)
	// highest rating (1.0 * 0.4) and lowest vote count (0 * 0.2)
	assert.InDelta(t, 0.4, q.Success, 1e-9)
}

func TestEngagementWeights(t *testing.T) {
	low := movieWithVotes(1, "Low", 2015, 5)
	low.Stats = models.Stats{}
	high := movieWithVotes(2, "High", 2015, 5)
	high.Stats = models.Stats{Watchers: 100, Plays: 0, Collectors: 0, Comments: 0, Lists: 0, Votes: 0}

	result := Analyze([]models.Movie{low, high}, Options{})
	assert.InDelta(t, 0.30, findScored(t, result, 2).Engagement, 1e-9)
	assert.Equal(t, 0.0, findScored(t, result, 1).Engagement)
}

func TestRankingTieBreak(t *testing.T) {
	a := movieWithVotes(5, "Twin A", 2015, 7, 8)
	b := movieWithVotes(3, "Twin B", 2015, 7, 8)
	b.Stats = a.Stats

	result := Analyze([]models.Movie{a, b}, Options{TopN: 2})
	top := result.Report.Rankings.Success.Top
	require.Len(t, top, 2)
	assert.Equal(t, 3, top[0].ID)
	assert.Equal(t, 5, top[1].ID)

	bottom := result.Report.Rankings.Success.Bottom
	require.Len(t, bottom, 2)
	assert.Equal(t, 3, bottom[0].ID)
}

func TestGenreImpactAndTimeline(t *testing.T) {
	a := movieWithVotes(1, "A", 2011, 8)
	a.Genres = []string{"sci-fi", "action"}
	b := movieWithVotes(2, "B", 2010, 6)
	b.Genres = []string{"action"}
	c := movieWithVotes(3, "C", 2011, 4)
	c.Genres = []string{}

	report := Analyze([]models.Movie{a, b, c}, Options{}).Report

	require.Len(t, report.GenreImpact, 2)
	assert.Equal(t, "action", report.GenreImpact[0].Genre)
	assert.Equal(t, 2, report.GenreImpact[0].MovieCount)
	assert.InDelta(t, 7.0, report.GenreImpact[0].AvgRating, 1e-9)
	assert.Equal(t, "sci-fi", report.GenreImpact[1].Genre)

	require.Len(t, report.Timeline, 2)
	assert.Equal(t, 2010, report.Timeline[0].Year)
	assert.Equal(t, 2011, report.Timeline[1].Year)
	assert.Equal(t, 2, report.Timeline[1].MovieCount)
	assert.InDelta(t, 6.0, report.Timeline[1].AvgRating, 1e-9)
	assert.Equal(t, 40, report.Timeline[1].TotalWatchers)
	assert.Equal(t, 80, report.Timeline[1].TotalPlays)
	assert.Equal(t, 30, report.GenreImpact[0].TotalWatchers)
}

func TestDuplicateGenresCountOnce(t *testing.T) {
	a := movieWithVotes(1, "A", 2010, 8)
	a.Genres = []string{"drama", "drama", " drama ", ""}
	b := movieWithVotes(2, "B", 2010, 6)

	result := Analyze([]models.Movie{a, b}, Options{})
	assert.Equal(t, []string{"drama"}, findScored(t, result, 1).Genres)

	require.Len(t, result.Report.GenreImpact, 1)
	drama := result.Report.GenreImpact[0]
	assert.Equal(t, 2, drama.MovieCount)
	assert.InDelta(t, 7.0, drama.AvgRating, 1e-9)
	assert.Equal(t, 30, drama.TotalWatchers)
}

func withKeywords(m models.Movie, names ...string) models.Movie {
	for i, n := range names {
		m.Keywords = append(m.Keywords, models.Keyword{ID: i + 1, Name: n})
	}
	return m
}

func TestKeywordImpact(t *testing.T) {
	movies := []models.Movie{
		withKeywords(movieWithVotes(1, "A", 2010, 6), "heist", "space"),
		withKeywords(movieWithVotes(2, "B", 2010, 7), "heist", "heist"),
		withKeywords(movieWithVotes(3, "C", 2011, 9), "space"),
		withKeywords(movieWithVotes(4, "D", 2011, 8), "dream"),
	}

	result := Analyze(movies, Options{MinKeywordMovies: 2})
	report := result.Report

	// dream is tagged once and falls under the threshold
	require.Len(t, report.KeywordImpact, 2)
	space := report.KeywordImpact[0]
	heist := report.KeywordImpact[1]

	assert.Equal(t, "space", space.Keyword)
	assert.Equal(t, 2, space.MovieCount)
	assert.Equal(t, 40, space.TotalWatchers)
	assert.InDelta(t, 20.0, space.AvgWatchers, 1e-9)
	assert.InDelta(t, 7.5, space.AvgRating, 1e-9)
	// median watchers 25, median rating 7.5: only C is above both
	assert.InDelta(t, 50.0, space.HighWatchersPct, 1e-9)
	assert.InDelta(t, 50.0, space.HighRatingPct, 1e-9)

	assert.Equal(t, "heist", heist.Keyword)
	assert.Equal(t, 2, heist.MovieCount)
	assert.Equal(t, 30, heist.TotalWatchers)
	assert.InDelta(t, 0.0, heist.HighWatchersPct, 1e-9)

	assert.Equal(t, 2, findScored(t, result, 1).KeywordCount)
	assert.Equal(t, []string{"heist"}, findScored(t, result, 2).Keywords)
}

func TestKeywordImpactDefaultThreshold(t *testing.T) {
	movies := []models.Movie{withKeywords(movieWithVotes(1, "A", 2010, 6), "heist")}
	report := Analyze(movies, Options{}).Report
	assert.Empty(t, report.KeywordImpact)
	require.Len(t, report.KeywordTrends, 1)
}

func TestKeywordImpactTieBreak(t *testing.T) {
	a := withKeywords(movieWithVotes(1, "A", 2010, 6), "zombie", "alien")
	report := Analyze([]models.Movie{a}, Options{MinKeywordMovies: 1}).Report
	require.Len(t, report.KeywordImpact, 2)
	assert.Equal(t, "alien", report.KeywordImpact[0].Keyword)
	assert.Equal(t, "zombie", report.KeywordImpact[1].Keyword)
}

func TestKeywordTrends(t *testing.T) {
	movies := []models.Movie{
		withKeywords(movieWithVotes(1, "A", 2010, 6), "space"),
		withKeywords(movieWithVotes(2, "B", 2012, 7), "space", "heist"),
		withKeywords(movieWithVotes(3, "C", 2012, 9), "space"),
		movieWithVotes(4, "D", 2011, 8),
	}

	trends := Analyze(movies, Options{}).Report.KeywordTrends
	require.Len(t, trends, 2)

	assert.Equal(t, "space", trends[0].Keyword)
	assert.Equal(t, 3, trends[0].MovieCount)
	assert.Equal(t, []KeywordYear{{2010, 1}, {2011, 0}, {2012, 2}}, trends[0].Years)
	assert.Equal(t, "heist", trends[1].Keyword)
	assert.Equal(t, []KeywordYear{{2010, 0}, {2011, 0}, {2012, 1}}, trends[1].Years)
}

func TestKeywordTrendsLimit(t *testing.T) {
	m := movieWithVotes(1, "A", 2010, 6)
	for i := 0; i < trendKeywordsN+5; i++ {
		m = withKeywords(m, "kw"+strconv.Itoa(i))
	}
	trends := Analyze([]models.Movie{m}, Options{}).Report.KeywordTrends
	assert.Len(t, trends, trendKeywordsN)
}

func TestCorrelationsDefined(t *testing.T) {
	movies := []models.Movie{
		movieWithVotes(1, "A", 2010, 8, 8, 8, 8),
		movieWithVotes(2, "B", 2010, 1, 10),
		movieWithVotes(3, "C", 2010, 6, 7, 8),
	}
	rc := Analyze(movies, Options{}).Report.RatingConsistency
	assert.NotNil(t, rc.CorrelationWithVotes.Pearson)
	assert.NotNil(t, rc.CorrelationWithVotes.Spearman)
	assert.NotNil(t, rc.CorrelationWithRating.Pearson)
}

func TestWriteAndReadReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")

	_, err := ReadReport(dir)
	assert.ErrorIs(t, err, ErrReportNotFound)

	report := Analyze([]models.Movie{movieWithVotes(1, "A", 2010, 7, 9)}, Options{}).Report
	path, err := WriteReport(dir, &report)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ReportFile), path)

	loaded, err := ReadReport(dir)
	require.NoError(t, err)
	assert.Equal(t, report.BasicStats, loaded.BasicStats)
	assert.Equal(t, report.TopMovies, loaded.TopMovies)
}
