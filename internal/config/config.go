package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (REELSTATS_TRAKT_CLIENT_ID, ...).
const EnvPrefix = "REELSTATS"

// Config represents the complete application configuration
type Config struct {
	Trakt     TraktConfig     `mapstructure:"trakt"`
	TMDB      TMDBConfig      `mapstructure:"tmdb"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// TraktConfig holds Trakt API configuration
type TraktConfig struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	ClientID       string        `mapstructure:"client_id"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      int           `mapstructure:"rate_limit"`  // requests allowed per RateWindow
	RateWindow     time.Duration `mapstructure:"rate_window"` // published window for RateLimit
	PageSize       int           `mapstructure:"page_size"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// TMDBConfig holds TMDB API configuration. Only keywords are read from TMDB.
type TMDBConfig struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	APIKey         string        `mapstructure:"api_key"` // v4 read access token, sent as Bearer
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      int           `mapstructure:"rate_limit"`
	RateWindow     time.Duration `mapstructure:"rate_window"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// FetchConfig controls which titles the fetcher walks through
type FetchConfig struct {
	StartYear       int `mapstructure:"start_year"`
	EndYear         int `mapstructure:"end_year"`
	TargetTotal     int `mapstructure:"target_total"`
	MaxPagesPerYear int `mapstructure:"max_pages_per_year"`
}

// StorageConfig holds the flat-file layout
type StorageConfig struct {
	DataDir   string `mapstructure:"data_dir"`
	IndexFile string `mapstructure:"index_file"`
	MoviesDir string `mapstructure:"movies_dir"`
}

// AnalysisConfig holds analyzer output configuration
type AnalysisConfig struct {
	ResultsDir       string `mapstructure:"results_dir"`
	TopN             int    `mapstructure:"top_n"`
	MinGenreMovies   int    `mapstructure:"min_genre_movies"`
	MinKeywordMovies int    `mapstructure:"min_keyword_movies"` // keywords on fewer movies are left out
	Plots            bool   `mapstructure:"plots"`
}

// DashboardConfig holds the web dashboard configuration
type DashboardConfig struct {
	Addr     string `mapstructure:"addr"`
	PageSize int    `mapstructure:"page_size"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// searchPaths are consulted when Load is called without an explicit path.
var searchPaths = []string{".", "./configs"}

// Load reads configuration from file and environment variables.
// An empty path searches for reelstats.yaml in the working directory and
// ./configs; a missing file is not an error in that case.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials also come from the plain variables used by earlier tooling.
	_ = v.BindEnv("trakt.client_id", EnvPrefix+"_TRAKT_CLIENT_ID", "TRAKT_CLIENT_ID")
	_ = v.BindEnv("tmdb.api_key", EnvPrefix+"_TMDB_API_KEY", "TMDB_API_KEY")
	_ = v.BindEnv("telegram.bot_token", EnvPrefix+"_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("reelstats")
		v.SetConfigType("yaml")
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Trakt allows 1000 requests per 5 minutes
	v.SetDefault("trakt.api_base_url", "https://api.trakt.tv")
	v.SetDefault("trakt.timeout", "30s")
	v.SetDefault("trakt.rate_limit", 1000)
	v.SetDefault("trakt.rate_window", "5m")
	v.SetDefault("trakt.page_size", 20)
	v.SetDefault("trakt.max_retries", 3)
	v.SetDefault("trakt.retry_delay_base", "1s")

	// TMDB allows roughly 40 requests per 10 seconds
	v.SetDefault("tmdb.api_base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.timeout", "30s")
	v.SetDefault("tmdb.rate_limit", 40)
	v.SetDefault("tmdb.rate_window", "10s")
	v.SetDefault("tmdb.max_retries", 3)
	v.SetDefault("tmdb.retry_delay_base", "1s")

	v.SetDefault("fetch.start_year", 2010)
	v.SetDefault("fetch.end_year", 2023)
	v.SetDefault("fetch.target_total", 12000)
	v.SetDefault("fetch.max_pages_per_year", 100)

	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.index_file", "movies_index.json")
	v.SetDefault("storage.movies_dir", "movies")

	v.SetDefault("analysis.results_dir", "./results")
	v.SetDefault("analysis.top_n", 10)
	v.SetDefault("analysis.min_genre_movies", 5)
	v.SetDefault("analysis.min_keyword_movies", 10)
	v.SetDefault("analysis.plots", true)

	v.SetDefault("dashboard.addr", ":8080")
	v.SetDefault("dashboard.page_size", 50)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Trakt config
	if c.Trakt.APIBaseURL == "" {
		return fmt.Errorf("trakt.api_base_url is required")
	}
	if c.Trakt.RateLimit < 1 {
		return fmt.Errorf("trakt.rate_limit must be at least 1")
	}
	if c.Trakt.RateWindow <= 0 {
		return fmt.Errorf("trakt.rate_window must be positive")
	}
	if c.Trakt.PageSize < 1 || c.Trakt.PageSize > 100 {
		return fmt.Errorf("trakt.page_size must be between 1 and 100")
	}

	// Validate TMDB config
	if c.TMDB.APIBaseURL == "" {
		return fmt.Errorf("tmdb.api_base_url is required")
	}
	if c.TMDB.RateLimit < 1 {
		return fmt.Errorf("tmdb.rate_limit must be at least 1")
	}
	if c.TMDB.RateWindow <= 0 {
		return fmt.Errorf("tmdb.rate_window must be positive")
	}

	// Validate Fetch config
	if c.Fetch.StartYear < 1870 {
		return fmt.Errorf("fetch.start_year must be 1870 or later")
	}
	if c.Fetch.EndYear < c.Fetch.StartYear {
		return fmt.Errorf("fetch.end_year must not be before fetch.start_year")
	}
	if c.Fetch.TargetTotal < 1 {
		return fmt.Errorf("fetch.target_total must be at least 1")
	}
	if c.Fetch.MaxPagesPerYear < 1 {
		return fmt.Errorf("fetch.max_pages_per_year must be at least 1")
	}

	// Validate Storage config
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if c.Storage.IndexFile == "" {
		return fmt.Errorf("storage.index_file is required")
	}
	if c.Storage.MoviesDir == "" {
		return fmt.Errorf("storage.movies_dir is required")
	}

	// Validate Analysis config
	if c.Analysis.ResultsDir == "" {
		return fmt.Errorf("analysis.results_dir is required")
	}
	if c.Analysis.TopN < 1 {
		return fmt.Errorf("analysis.top_n must be at least 1")
	}
	if c.Analysis.MinGenreMovies < 0 {
		return fmt.Errorf("analysis.min_genre_movies must not be negative")
	}
	if c.Analysis.MinKeywordMovies < 1 {
		return fmt.Errorf("analysis.min_keyword_movies must be at least 1")
	}

	if c.Dashboard.PageSize < 1 {
		return fmt.Errorf("dashboard.page_size must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// ValidateFetch runs Validate and additionally requires the API credentials
// only the fetcher needs.
func (c *Config) ValidateFetch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Trakt.ClientID == "" {
		return fmt.Errorf("trakt.client_id is required (or set TRAKT_CLIENT_ID)")
	}
	if c.TMDB.APIKey == "" {
		return fmt.Errorf("tmdb.api_key is required (or set TMDB_API_KEY)")
	}
	return nil
}

// IndexPath returns the location of the JSON index file
func (c *Config) IndexPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.IndexFile)
}

// MoviesPath returns the directory holding one JSON file per movie
func (c *Config) MoviesPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.MoviesDir)
}

// PlotsPath returns the directory the analyzer renders PNG plots into
func (c *Config) PlotsPath() string {
	return filepath.Join(c.Analysis.ResultsDir, "plots")
}

// TraktInterval returns the minimum spacing between two Trakt requests
func (c *Config) TraktInterval() time.Duration {
	return c.Trakt.RateWindow / time.Duration(c.Trakt.RateLimit)
}

// TMDBInterval returns the minimum spacing between two TMDB requests
func (c *Config) TMDBInterval() time.Duration {
	return c.TMDB.RateWindow / time.Duration(c.TMDB.RateLimit)
}
