// Package tmdb reads movie keywords from The Movie Database API.
package tmdb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rewired-gh/reelstats/internal/httpx"
	"github.com/rewired-gh/reelstats/internal/models"
)

// Client provides access to the TMDB API
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

type keywordsResponse struct {
	ID       int              `json:"id"`
	Keywords []models.Keyword `json:"keywords"`
}

// NewClient creates a new TMDB client authenticated with a v4 read access token
func NewClient(apiBaseURL, apiKey string, cfg ClientConfig) *Client {
	return &Client{
		api: httpx.New(apiBaseURL, httpx.Options{
			Timeout:        cfg.Timeout,
			Interval:       cfg.Interval,
			MaxRetries:     cfg.MaxRetries,
			RetryDelayBase: cfg.RetryDelayBase,
			Headers: map[string]string{
				"Authorization": "Bearer " + apiKey,
			},
		}),
	}
}

// Keywords retrieves the keywords attached to a movie.
// A movie unknown to TMDB yields an empty list, not an error.
func (c *Client) Keywords(ctx context.Context, tmdbID int) ([]models.Keyword, error) {
	var resp keywordsResponse
	err := c.api.GetJSON(ctx, "/movie/"+strconv.Itoa(tmdbID)+"/keywords", nil, &resp)
	if httpx.IsNotFound(err) {
		return []models.Keyword{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch keywords for tmdb %d: %w", tmdbID, err)
	}
	if resp.Keywords == nil {
		return []models.Keyword{}, nil
	}
	return resp.Keywords, nil
}
