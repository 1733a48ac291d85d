// Package models defines the core domain entities for reelstats.
// These models represent fetched movie records and the index that tracks them.
// Records include built-in validation so malformed files can be rejected on load.
//
// Terminology:
//   - Movie: one persisted record combining Trakt details, stats and rating
//     histogram with TMDB keywords. Written once, never modified.
//   - IndexEntry: the index line pointing at a Movie's file.
package models

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Ids holds the identifiers Trakt reports for a movie.
// Trakt is the primary key throughout the application.
type Ids struct {
	Trakt int    `json:"trakt"`
	Slug  string `json:"slug"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int    `json:"tmdb,omitempty"`
}

// Stats holds audience interaction counters from Trakt
type Stats struct {
	Watchers    int `json:"watchers"`
	Plays       int `json:"plays"`
	Collectors  int `json:"collectors"`
	Comments    int `json:"comments"`
	Lists       int `json:"lists"`
	Votes       int `json:"votes"`
	Recommended int `json:"recommended"`
}

// Rating holds the aggregate rating and the per-score vote histogram.
// Distribution keys are the scores "1" through "10".
type Rating struct {
	Rating       float64        `json:"rating"`
	Votes        int            `json:"votes"`
	Distribution map[string]int `json:"distribution"`
}

// Keyword is a TMDB keyword
type Keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie is a persisted movie record
type Movie struct {
	Title                 string     `json:"title"`
	Year                  int        `json:"year"`
	Ids                   Ids        `json:"ids"`
	Tagline               string     `json:"tagline,omitempty"`
	Overview              string     `json:"overview,omitempty"`
	Released              string     `json:"released,omitempty"` // YYYY-MM-DD
	Runtime               int        `json:"runtime,omitempty"`  // minutes
	Country               string     `json:"country,omitempty"`
	UpdatedAt             *time.Time `json:"updated_at,omitempty"`
	Trailer               string     `json:"trailer,omitempty"`
	Homepage              string     `json:"homepage,omitempty"`
	Status                string     `json:"status,omitempty"`
	Language              string     `json:"language,omitempty"`
	AvailableTranslations []string   `json:"available_translations"`
	Genres                []string   `json:"genres"`
	Certification         string     `json:"certification,omitempty"`
	Stats                 Stats      `json:"stats"`
	Rating                Rating     `json:"rating"`
	Keywords              []Keyword  `json:"keywords"`
}

// Validate checks that all movie fields are valid.
func (m *Movie) Validate() error {
	if m.Ids.Trakt <= 0 {
		return errors.New("trakt ID must be positive")
	}
	if strings.TrimSpace(m.Title) == "" {
		return errors.New("movie title must not be empty")
	}
	if m.Year < 0 {
		return errors.New("year must not be negative")
	}
	if m.Runtime < 0 {
		return errors.New("runtime must not be negative")
	}
	if m.Rating.Rating < 0 || m.Rating.Rating > 10 {
		return errors.New("rating must be between 0 and 10")
	}
	if m.Rating.Votes < 0 {
		return errors.New("rating votes must not be negative")
	}
	for score, count := range m.Rating.Distribution {
		n, err := strconv.Atoi(score)
		if err != nil || n < 1 || n > 10 {
			return fmt.Errorf("distribution score %q must be an integer between 1 and 10", score)
		}
		if count < 0 {
			return fmt.Errorf("distribution count for score %s must not be negative", score)
		}
	}
	s := m.Stats
	if s.Watchers < 0 || s.Plays < 0 || s.Collectors < 0 || s.Comments < 0 || s.Lists < 0 || s.Votes < 0 || s.Recommended < 0 {
		return errors.New("stats counters must not be negative")
	}
	return nil
}

// Filename derives the record's file name from its title and Trakt ID.
// Every character that is not a letter or digit is replaced by an underscore.
func (m *Movie) Filename() string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, m.Title)
	return fmt.Sprintf("%s_%d.json", clean, m.Ids.Trakt)
}

// Histogram returns the vote distribution as parallel score/count slices
// ordered by score. Malformed keys are ignored.
func (m *Movie) Histogram() (scores, counts []float64) {
	keys := make([]int, 0, len(m.Rating.Distribution))
	byScore := make(map[int]int, len(m.Rating.Distribution))
	for k, v := range m.Rating.Distribution {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		keys = append(keys, n)
		byScore[n] = v
	}
	sort.Ints(keys)

	scores = make([]float64, len(keys))
	counts = make([]float64, len(keys))
	for i, k := range keys {
		scores[i] = float64(k)
		counts[i] = float64(byScore[k])
	}
	return scores, counts
}

// HistogramVotes is the total number of votes counted by Histogram
func (m *Movie) HistogramVotes() int {
	_, counts := m.Histogram()
	total := 0
	for _, c := range counts {
		total += int(c)
	}
	return total
}

// TranslationCount is the number of available translations
func (m *Movie) TranslationCount() int {
	return len(m.AvailableTranslations)
}
