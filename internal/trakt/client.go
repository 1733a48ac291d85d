// Package trakt reads popular movies, details, stats and rating histograms
// from the Trakt API (https://trakt.docs.apiary.io).
package trakt

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rewired-gh/reelstats/internal/httpx"
	"github.com/rewired-gh/reelstats/internal/models"
)

// APIVersion is sent in the trakt-api-version header
const APIVersion = "2"

// Client provides access to the Trakt API
type Client struct {
	api *httpx.Client
}

// ClientConfig holds the throttling and retry settings for a Client
type ClientConfig struct {
	Timeout        time.Duration
	Interval       time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
}

// MovieSummary is one entry of a popular-movies page
type MovieSummary struct {
	Title string     `json:"title"`
	Year  int        `json:"year"`
	Ids   models.Ids `json:"ids"`
}

// MovieDetails is the extended=full movie payload
type MovieDetails struct {
	Title                 string     `json:"title"`
	Year                  int        `json:"year"`
	Ids                   models.Ids `json:"ids"`
	Tagline               string     `json:"tagline"`
	Overview              string     `json:"overview"`
	Released              string     `json:"released"`
	Runtime               int        `json:"runtime"`
	Country               string     `json:"country"`
	UpdatedAt             *time.Time `json:"updated_at"`
	Trailer               string     `json:"trailer"`
	Homepage              string     `json:"homepage"`
	Status                string     `json:"status"`
	Language              string     `json:"language"`
	AvailableTranslations []string   `json:"available_translations"`
	Genres                []string   `json:"genres"`
	Certification         string     `json:"certification"`
}

// NewClient creates a new Trakt client identified by clientID
func NewClient(apiBaseURL, clientID string, cfg ClientConfig) *Client {
	return &Client{
		api: httpx.New(apiBaseURL, httpx.Options{
			Timeout:        cfg.Timeout,
			Interval:       cfg.Interval,
			MaxRetries:     cfg.MaxRetries,
			RetryDelayBase: cfg.RetryDelayBase,
			Headers: map[string]string{
				"Content-Type":      "application/json",
				"trakt-api-version": APIVersion,
				"trakt-api-key":     clientID,
			},
		}),
	}
}

// PopularMovies retrieves one page of the most popular movies released in year.
// An empty slice means the listing is exhausted.
func (c *Client) PopularMovies(ctx context.Context, year, page, limit int) ([]MovieSummary, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("years", strconv.Itoa(year))

	var movies []MovieSummary
	if err := c.api.GetJSON(ctx, "/movies/popular", query, &movies); err != nil {
		return nil, fmt.Errorf("failed to fetch popular movies (year %d, page %d): %w", year, page, err)
	}
	return movies, nil
}

// MovieDetails retrieves the full movie record for a slug or Trakt ID
func (c *Client) MovieDetails(ctx context.Context, id string) (*MovieDetails, error) {
	query := url.Values{}
	query.Set("extended", "full")

	var details MovieDetails
	if err := c.api.GetJSON(ctx, "/movies/"+url.PathEscape(id), query, &details); err != nil {
		return nil, fmt.Errorf("failed to fetch movie details for %s: %w", id, err)
	}
	return &details, nil
}

// MovieStats retrieves the watcher/play/collector/comment/list/vote counters
func (c *Client) MovieStats(ctx context.Context, id string) (*models.Stats, error) {
	var stats models.Stats
	if err := c.api.GetJSON(ctx, "/movies/"+url.PathEscape(id)+"/stats", nil, &stats); err != nil {
		return nil, fmt.Errorf("failed to fetch movie stats for %s: %w", id, err)
	}
	return &stats, nil
}

// MovieRatings retrieves the aggregate rating and the per-score histogram
func (c *Client) MovieRatings(ctx context.Context, id string) (*models.Rating, error) {
	var rating models.Rating
	if err := c.api.GetJSON(ctx, "/movies/"+url.PathEscape(id)+"/ratings", nil, &rating); err != nil {
		return nil, fmt.Errorf("failed to fetch movie ratings for %s: %w", id, err)
	}
	if rating.Distribution == nil {
		rating.Distribution = map[string]int{}
	}
	return &rating, nil
}

// ToMovie combines details, stats, ratings and keywords into a persisted record
func (d *MovieDetails) ToMovie(stats models.Stats, rating models.Rating, keywords []models.Keyword) models.Movie {
	translations := d.AvailableTranslations
	if translations == nil {
		translations = []string{}
	}
	genres := d.Genres
	if genres == nil {
		genres = []string{}
	}
	if keywords == nil {
		keywords = []models.Keyword{}
	}

	return models.Movie{
		Title:                 d.Title,
		Year:                  d.Year,
		Ids:                   d.Ids,
		Tagline:               d.Tagline,
		Overview:              d.Overview,
		Released:              d.Released,
		Runtime:               d.Runtime,
		Country:               d.Country,
		UpdatedAt:             d.UpdatedAt,
		Trailer:               d.Trailer,
		Homepage:              d.Homepage,
		Status:                d.Status,
		Language:              d.Language,
		AvailableTranslations: translations,
		Genres:                genres,
		Certification:         d.Certification,
		Stats:                 stats,
		Rating:                rating,
		Keywords:              keywords,
	}
}
