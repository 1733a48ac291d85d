package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/reelstats/internal/config"
	"github.com/rewired-gh/reelstats/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version     string         `json:"version"`
	IndexPath   string         `json:"index_path"`
	MoviesDir   string         `json:"movies_dir"`
	TotalMovies int            `json:"total_movies"`
	TargetTotal int            `json:"target_total"`
	LastUpdated string         `json:"last_updated,omitempty"`
	LastRunID   string         `json:"last_run_id,omitempty"`
	LastMovie   string         `json:"last_movie,omitempty"`
	Pages       map[string]int `json:"pages"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	if c.JSON {
		return c.printStatusJSON(cfg, store)
	}
	c.printStatusHuman(cfg, store)
	return nil
}

func (c *StatusCommand) printStatusHuman(cfg *config.Config, store *storage.Store) {
	printTitle(c.out, "Reelstats Status")
	printField(c.out, "Version", c.version)
	printField(c.out, "Index", cfg.IndexPath())
	printField(c.out, "Movies", fmt.Sprintf("%s / %s",
		humanize.Comma(int64(store.Count())), humanize.Comma(int64(cfg.Fetch.TargetTotal))))

	if updated := store.LastUpdated(); !updated.IsZero() {
		printField(c.out, "Updated", humanize.Time(updated))
	}
	if id := store.LastRunID(); id != "" {
		printField(c.out, "Last run", id)
	}
	if last, ok := store.LastEntry(); ok {
		printField(c.out, "Last movie", fmt.Sprintf("%s (%d)", last.Title, last.Year))
	}

	pages := store.Pages()
	if len(pages) == 0 {
		return
	}
	years := make([]int, 0, len(pages))
	for y := range pages {
		years = append(years, y)
	}
	sort.Ints(years)

	lines := make([]string, 0, len(years))
	for _, y := range years {
		lines = append(lines, fmt.Sprintf("%d  page %d", y, pages[y]))
	}
	printSection(c.out, "Pages fetched")
	printBox(c.out, lines)
}

func (c *StatusCommand) printStatusJSON(cfg *config.Config, store *storage.Store) error {
	out := statusJSON{
		Version:     c.version,
		IndexPath:   cfg.IndexPath(),
		MoviesDir:   cfg.MoviesPath(),
		TotalMovies: store.Count(),
		TargetTotal: cfg.Fetch.TargetTotal,
		LastRunID:   store.LastRunID(),
		Pages:       make(map[string]int),
	}
	if updated := store.LastUpdated(); !updated.IsZero() {
		out.LastUpdated = updated.UTC().Format("2006-01-02T15:04:05Z")
	}
	if last, ok := store.LastEntry(); ok {
		out.LastMovie = last.Title
	}
	for y, p := range store.Pages() {
		out.Pages[strconv.Itoa(y)] = p
	}

	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
