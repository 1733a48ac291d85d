package analyzer

import (
	"sort"
	"strings"
)

// trendKeywordsN is the number of most frequent keywords followed per year
const trendKeywordsN = 20

// KeywordStats aggregates the movies tagged with one TMDB keyword
type KeywordStats struct {
	Keyword       string  `json:"keyword"`
	MovieCount    int     `json:"movie_count"`
	TotalWatchers int     `json:"total_watchers"`
	AvgWatchers   float64 `json:"avg_watchers"`
	AvgRating     float64 `json:"avg_rating"`
	AvgEngagement float64 `json:"avg_engagement"`
	// Share of tagged movies above the median of the whole analyzed set, in percent
	HighWatchersPct float64 `json:"high_watchers_pct"`
	HighRatingPct   float64 `json:"high_rating_pct"`
}

// KeywordYear is the number of movies tagged with a keyword in one year
type KeywordYear struct {
	Year       int `json:"year"`
	MovieCount int `json:"movie_count"`
}

// KeywordTrend follows one frequent keyword across the timeline years
type KeywordTrend struct {
	Keyword    string        `json:"keyword"`
	MovieCount int           `json:"movie_count"`
	Years      []KeywordYear `json:"years"`
}

// keywordImpact aggregates every keyword tagged on at least minMovies
// movies, ordered by total watchers with the keyword as tie-break.
func keywordImpact(movies []ScoredMovie, minMovies int) []KeywordStats {
	medianWatchers := median(pluck(movies, func(m ScoredMovie) float64 { return float64(m.Watchers) }))
	medianRating := median(pluck(movies, func(m ScoredMovie) float64 { return m.Rating }))

	byKeyword := make(map[string][]int)
	for i, m := range movies {
		for _, k := range m.Keywords {
			byKeyword[k] = append(byKeyword[k], i)
		}
	}

	out := []KeywordStats{}
	for k, idx := range byKeyword {
		if len(idx) < minMovies {
			continue
		}
		var watchers, rating, engagement []float64
		total, highWatchers, highRating := 0, 0, 0
		for _, i := range idx {
			m := movies[i]
			total += m.Watchers
			watchers = append(watchers, float64(m.Watchers))
			rating = append(rating, m.Rating)
			engagement = append(engagement, m.Engagement)
			if float64(m.Watchers) > medianWatchers {
				highWatchers++
			}
			if m.Rating > medianRating {
				highRating++
			}
		}
		n := float64(len(idx))
		out = append(out, KeywordStats{
			Keyword:         k,
			MovieCount:      len(idx),
			TotalWatchers:   total,
			AvgWatchers:     mean(watchers),
			AvgRating:       mean(rating),
			AvgEngagement:   mean(engagement),
			HighWatchersPct: float64(highWatchers) / n * 100,
			HighRatingPct:   float64(highRating) / n * 100,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalWatchers != out[j].TotalWatchers {
			return out[i].TotalWatchers > out[j].TotalWatchers
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out
}

// keywordTrends counts, for the most frequent keywords, the tagged movies of
// every timeline year. Years without a tagged movie report 0.
func keywordTrends(movies []ScoredMovie, years []YearStats) []KeywordTrend {
	counts := make(map[string]map[int]int)
	totals := make(map[string]int)
	for _, m := range movies {
		for _, k := range m.Keywords {
			if counts[k] == nil {
				counts[k] = make(map[int]int)
			}
			counts[k][m.Year]++
			totals[k]++
		}
	}

	keywords := make([]string, 0, len(totals))
	for k := range totals {
		keywords = append(keywords, k)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if totals[keywords[i]] != totals[keywords[j]] {
			return totals[keywords[i]] > totals[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	if len(keywords) > trendKeywordsN {
		keywords = keywords[:trendKeywordsN]
	}

	out := make([]KeywordTrend, 0, len(keywords))
	for _, k := range keywords {
		trend := KeywordTrend{Keyword: k, MovieCount: totals[k], Years: make([]KeywordYear, 0, len(years))}
		for _, y := range years {
			trend.Years = append(trend.Years, KeywordYear{Year: y.Year, MovieCount: counts[k][y.Year]})
		}
		out = append(out, trend)
	}
	return out
}

// uniqueStrings trims values and drops empty and repeated ones, keeping the
// first occurrence order. The result is never nil.
func uniqueStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// median of values, averaging the two middle values of an even-sized set.
// An empty set yields 0.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
