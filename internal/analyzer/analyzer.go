// Package analyzer turns the set of stored movie records into per-movie
// scores and an aggregate report.
//
// Three scores are computed for every movie whose rating histogram holds votes:
//
//	consistency = weighted population std dev of the rating histogram (lower = more consistent)
//	engagement  = 0.30 watchers + 0.20 plays + 0.15 collectors + 0.15 comments + 0.10 lists + 0.10 votes
//	success     = 0.40 rating + 0.20 votes + 0.20 engagement + 0.20 translations
//
// Every engagement and success input is min-max normalized across the analyzed
// set first. Records are processed in Trakt ID order and the report carries no
// timestamps, so the same input always yields the same report bytes.
package analyzer

import (
	"sort"

	"github.com/rewired-gh/reelstats/internal/logger"
	"github.com/rewired-gh/reelstats/internal/models"
)

// DefaultTopN is the ranking length used when Options.TopN is not positive
const DefaultTopN = 10

// DefaultMinKeywordMovies is the keyword threshold used when
// Options.MinKeywordMovies is not positive
const DefaultMinKeywordMovies = 10

// extremesN is the length of the most/least consistent lists
const extremesN = 5

// Options tunes an analysis run
type Options struct {
	TopN int
	// MinKeywordMovies drops keywords tagged on fewer movies from KeywordImpact
	MinKeywordMovies int
}

// ScoredMovie is one analyzed movie with its derived scores
type ScoredMovie struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Year         int      `json:"year"`
	Genres       []string `json:"genres"`
	Rating       float64  `json:"rating"`
	Votes        int      `json:"votes"`
	Translations int      `json:"translation_count"`
	Watchers     int      `json:"watchers"`
	Plays        int      `json:"plays"`
	Keywords     []string `json:"keywords"`
	KeywordCount int      `json:"keyword_count"`
	Consistency  float64  `json:"consistency"`
	Engagement   float64  `json:"engagement"`
	Success      float64  `json:"success_index"`
	// TranslationReach is the normalized translation count
	TranslationReach float64 `json:"translation_reach"`
}

// RankedMovie is one line of a ranking
type RankedMovie struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Year   int     `json:"year"`
	Rating float64 `json:"rating"`
	Votes  int     `json:"votes"`
	Score  float64 `json:"score"`
}

// BasicStats holds global averages
type BasicStats struct {
	TotalMovies    int     `json:"total_movies"`
	SkippedMovies  int     `json:"skipped_movies"`
	AvgRating      float64 `json:"avg_rating"`
	AvgConsistency float64 `json:"avg_consistency"`
	AvgEngagement  float64 `json:"avg_engagement"`
	AvgSuccess     float64 `json:"avg_success_index"`
}

// Correlation holds both coefficients; nil marks an undefined value
type Correlation struct {
	Pearson  *float64 `json:"pearson"`
	Spearman *float64 `json:"spearman"`
}

// ConsistencyAnalysis describes rating dispersion across the set
type ConsistencyAnalysis struct {
	MostConsistent        []RankedMovie `json:"most_consistent"`
	MostInconsistent      []RankedMovie `json:"most_inconsistent"`
	CorrelationWithVotes  Correlation   `json:"correlation_with_votes"`
	CorrelationWithRating Correlation   `json:"correlation_with_rating"`
}

// GenreStats aggregates the movies tagged with one genre
type GenreStats struct {
	Genre          string  `json:"genre"`
	MovieCount     int     `json:"movie_count"`
	TotalWatchers  int     `json:"total_watchers"`
	AvgRating      float64 `json:"avg_rating"`
	AvgConsistency float64 `json:"avg_consistency"`
	AvgEngagement  float64 `json:"avg_engagement"`
}

// Ranking is the top and bottom N of one score
type Ranking struct {
	Top    []RankedMovie `json:"top"`
	Bottom []RankedMovie `json:"bottom"`
}

// Rankings groups the ranking of every score
type Rankings struct {
	Consistency Ranking `json:"consistency"`
	Engagement  Ranking `json:"engagement"`
	Success     Ranking `json:"success_index"`
}

// YearStats aggregates the movies released in one year
type YearStats struct {
	Year                int     `json:"year"`
	MovieCount          int     `json:"movie_count"`
	TotalWatchers       int     `json:"total_watchers"`
	TotalPlays          int     `json:"total_plays"`
	AvgRating           float64 `json:"avg_rating"`
	AvgEngagement       float64 `json:"avg_engagement"`
	AvgVotes            float64 `json:"avg_votes"`
	AvgTranslations     float64 `json:"avg_translations"`
	AvgTranslationReach float64 `json:"avg_translation_reach"`
}

// Report is the persisted analysis output
type Report struct {
	BasicStats        BasicStats          `json:"basic_stats"`
	RatingConsistency ConsistencyAnalysis `json:"rating_consistency"`
	GenreImpact       []GenreStats        `json:"genre_impact"`
	KeywordImpact     []KeywordStats      `json:"keyword_impact"`
	KeywordTrends     []KeywordTrend      `json:"keyword_trends"`
	TopMovies         []RankedMovie       `json:"top_movies"`
	Rankings          Rankings            `json:"rankings"`
	Timeline          []YearStats         `json:"timeline"`
}

// Result is the full output of Analyze
type Result struct {
	Movies []ScoredMovie
	Report Report
}

// Analyze scores movies and builds the report. The input order does not matter.
func Analyze(movies []models.Movie, opts Options) *Result {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	minKeywordMovies := opts.MinKeywordMovies
	if minKeywordMovies <= 0 {
		minKeywordMovies = DefaultMinKeywordMovies
	}

	sorted := make([]models.Movie, len(movies))
	copy(sorted, movies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ids.Trakt < sorted[j].Ids.Trakt
	})

	scored, skipped := score(sorted)
	if skipped > 0 {
		logger.Warn("Skipped %d movies without rating votes", skipped)
	}
	logger.Debug("Analyzing %d movies", len(scored))

	report := Report{
		BasicStats:        basicStats(scored, skipped),
		RatingConsistency: consistencyAnalysis(scored),
		GenreImpact:       genreImpact(scored),
		KeywordImpact:     keywordImpact(scored, minKeywordMovies),
		TopMovies:         rank(scored, func(m ScoredMovie) float64 { return m.Success }, topN, true),
		Rankings: Rankings{
			Consistency: ranking(scored, func(m ScoredMovie) float64 { return m.Consistency }, topN),
			Engagement:  ranking(scored, func(m ScoredMovie) float64 { return m.Engagement }, topN),
			Success:     ranking(scored, func(m ScoredMovie) float64 { return m.Success }, topN),
		},
		Timeline: timeline(scored),
	}
	report.KeywordTrends = keywordTrends(scored, report.Timeline)

	return &Result{Movies: scored, Report: report}
}

// score computes every per-movie metric. Movies whose histogram holds no
// votes are dropped and counted.
func score(movies []models.Movie) ([]ScoredMovie, int) {
	kept := make([]models.Movie, 0, len(movies))
	consistency := make([]float64, 0, len(movies))
	skipped := 0

	for i := range movies {
		if movies[i].HistogramVotes() <= 0 {
			logger.Debug("Skipping %q (%d): empty rating histogram", movies[i].Title, movies[i].Ids.Trakt)
			skipped++
			continue
		}
		c, _ := ConsistencyScore(movies[i].Histogram())
		kept = append(kept, movies[i])
		consistency = append(consistency, c)
	}

	n := len(kept)
	column := func(get func(m *models.Movie) float64) []float64 {
		out := make([]float64, n)
		for i := range kept {
			out[i] = get(&kept[i])
		}
		return out
	}

	engagement := weightedSum([][]float64{
		MinMaxNormalize(column(func(m *models.Movie) float64 { return float64(m.Stats.Watchers) })),
		MinMaxNormalize(column(func(m *models.Movie) float64 { return float64(m.Stats.Plays) })),
		MinMaxNormalize(column(func(m *models.Movie) float64 { return float64(m.Stats.Collectors) })),
		MinMaxNormalize(column(func(m *models.Movie) float64 { return float64(m.Stats.Comments) })),
		MinMaxNormalize(column(func(m *models.Movie) float64 { return float64(m.Stats.Lists) })),
		MinMaxNormalize(column(func(m *models.Movie) float64 { return float64(m.Stats.Votes) })),
	}, engagementWeights[:], n)

	translationReach := MinMaxNormalize(column(func(m *models.Movie) float64 { return float64(m.TranslationCount()) }))
	success := weightedSum([][]float64{
		MinMaxNormalize(column(func(m *models.Movie) float64 { return m.Rating.Rating })),
		MinMaxNormalize(column(func(m *models.Movie) float64 { return float64(m.Rating.Votes) })),
		MinMaxNormalize(engagement),
		translationReach,
	}, successWeights[:], n)

	scored := make([]ScoredMovie, n)
	for i := range kept {
		m := &kept[i]
		keywords := make([]string, 0, len(m.Keywords))
		for _, k := range m.Keywords {
			keywords = append(keywords, k.Name)
		}
		keywords = uniqueStrings(keywords)
		scored[i] = ScoredMovie{
			ID:               m.Ids.Trakt,
			Title:            m.Title,
			Year:             m.Year,
			Genres:           uniqueStrings(m.Genres),
			Rating:           m.Rating.Rating,
			Votes:            m.Rating.Votes,
			Translations:     m.TranslationCount(),
			Watchers:         m.Stats.Watchers,
			Plays:            m.Stats.Plays,
			Keywords:         keywords,
			KeywordCount:     len(keywords),
			Consistency:      consistency[i],
			Engagement:       engagement[i],
			Success:          success[i],
			TranslationReach: translationReach[i],
		}
	}
	return scored, skipped
}

func basicStats(movies []ScoredMovie, skipped int) BasicStats {
	return BasicStats{
		TotalMovies:    len(movies),
		SkippedMovies:  skipped,
		AvgRating:      mean(pluck(movies, func(m ScoredMovie) float64 { return m.Rating })),
		AvgConsistency: mean(pluck(movies, func(m ScoredMovie) float64 { return m.Consistency })),
		AvgEngagement:  mean(pluck(movies, func(m ScoredMovie) float64 { return m.Engagement })),
		AvgSuccess:     mean(pluck(movies, func(m ScoredMovie) float64 { return m.Success })),
	}
}

func consistencyAnalysis(movies []ScoredMovie) ConsistencyAnalysis {
	byConsistency := func(m ScoredMovie) float64 { return m.Consistency }
	consistency := pluck(movies, byConsistency)
	votes := pluck(movies, func(m ScoredMovie) float64 { return float64(m.Votes) })
	rating := pluck(movies, func(m ScoredMovie) float64 { return m.Rating })

	return ConsistencyAnalysis{
		MostConsistent:   rank(movies, byConsistency, extremesN, false),
		MostInconsistent: rank(movies, byConsistency, extremesN, true),
		CorrelationWithVotes: Correlation{
			Pearson:  Pearson(consistency, votes),
			Spearman: Spearman(consistency, votes),
		},
		CorrelationWithRating: Correlation{
			Pearson:  Pearson(consistency, rating),
			Spearman: Spearman(consistency, rating),
		},
	}
}

func genreImpact(movies []ScoredMovie) []GenreStats {
	type acc struct {
		watchers                        int
		rating, consistency, engagement []float64
	}
	byGenre := make(map[string]*acc)
	for _, m := range movies {
		for _, g := range m.Genres {
			a, ok := byGenre[g]
			if !ok {
				a = &acc{}
				byGenre[g] = a
			}
			a.watchers += m.Watchers
			a.rating = append(a.rating, m.Rating)
			a.consistency = append(a.consistency, m.Consistency)
			a.engagement = append(a.engagement, m.Engagement)
		}
	}

	genres := make([]string, 0, len(byGenre))
	for g := range byGenre {
		genres = append(genres, g)
	}
	sort.Strings(genres)

	out := make([]GenreStats, 0, len(genres))
	for _, g := range genres {
		a := byGenre[g]
		out = append(out, GenreStats{
			Genre:          g,
			MovieCount:     len(a.rating),
			TotalWatchers:  a.watchers,
			AvgRating:      mean(a.rating),
			AvgConsistency: mean(a.consistency),
			AvgEngagement:  mean(a.engagement),
		})
	}
	return out
}

func timeline(movies []ScoredMovie) []YearStats {
	byYear := make(map[int][]int)
	for i, m := range movies {
		byYear[m.Year] = append(byYear[m.Year], i)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]YearStats, 0, len(years))
	for _, y := range years {
		idx := byYear[y]
		var rating, engagement, votes, translations, reach []float64
		watchers, plays := 0, 0
		for _, i := range idx {
			watchers += movies[i].Watchers
			plays += movies[i].Plays
			rating = append(rating, movies[i].Rating)
			engagement = append(engagement, movies[i].Engagement)
			votes = append(votes, float64(movies[i].Votes))
			translations = append(translations, float64(movies[i].Translations))
			reach = append(reach, movies[i].TranslationReach)
		}
		out = append(out, YearStats{
			Year:                y,
			MovieCount:          len(idx),
			TotalWatchers:       watchers,
			TotalPlays:          plays,
			AvgRating:           mean(rating),
			AvgEngagement:       mean(engagement),
			AvgVotes:            mean(votes),
			AvgTranslations:     mean(translations),
			AvgTranslationReach: mean(reach),
		})
	}
	return out
}

func ranking(movies []ScoredMovie, value func(ScoredMovie) float64, n int) Ranking {
	return Ranking{
		Top:    rank(movies, value, n, true),
		Bottom: rank(movies, value, n, false),
	}
}

// rank returns up to n movies ordered by value, highest first when desc.
// Ties are broken by Trakt ID ascending.
func rank(movies []ScoredMovie, value func(ScoredMovie) float64, n int, desc bool) []RankedMovie {
	ordered := make([]ScoredMovie, len(movies))
	copy(ordered, movies)
	sort.SliceStable(ordered, func(i, j int) bool {
		vi, vj := value(ordered[i]), value(ordered[j])
		if vi != vj {
			if desc {
				return vi > vj
			}
			return vi < vj
		}
		return ordered[i].ID < ordered[j].ID
	})

	if n > len(ordered) {
		n = len(ordered)
	}
	out := make([]RankedMovie, 0, n)
	for _, m := range ordered[:n] {
		out = append(out, RankedMovie{
			ID:     m.ID,
			Title:  m.Title,
			Year:   m.Year,
			Rating: m.Rating,
			Votes:  m.Votes,
			Score:  value(m),
		})
	}
	return out
}

func pluck(movies []ScoredMovie, value func(ScoredMovie) float64) []float64 {
	out := make([]float64, len(movies))
	for i, m := range movies {
		out[i] = value(m)
	}
	return out
}
