// Package storage persists fetched movie records as one JSON file per movie
// plus a JSON index that maps each Trakt ID to its file.
//
// The index is the source of truth for "already downloaded": a movie whose
// Trakt ID appears in the index is never fetched again. Entries are appended
// and never rewritten. Every write goes through a temp file and a rename so a
// crash mid-write leaves the previous file intact.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rewired-gh/reelstats/internal/logger"
	"github.com/rewired-gh/reelstats/internal/models"
)

// IndexVersion is written into every saved index file
const IndexVersion = "1.0"

const (
	filePermissions os.FileMode = 0o644
	dirPermissions  os.FileMode = 0o755
)

// ErrDuplicate is returned when a movie is already indexed
var ErrDuplicate = errors.New("movie already indexed")

// IndexFile represents the file structure for JSON persistence of the index
type IndexFile struct {
	Version     string              `json:"version"`
	LastUpdated time.Time           `json:"last_updated"`
	LastRunID   string              `json:"last_run_id,omitempty"`
	Pages       map[int]int         `json:"pages"` // year -> last fetched page
	Movies      []models.IndexEntry `json:"movies"`
}

// Store is the index plus the directory of movie records
type Store struct {
	mu          sync.RWMutex
	indexPath   string
	moviesDir   string
	entries     []models.IndexEntry
	byID        map[int]int // trakt id -> position in entries
	pages       map[int]int
	lastRunID   string
	lastUpdated time.Time
}

// New creates a Store for the given index file and movies directory
func New(indexPath, moviesDir string) *Store {
	return &Store{
		indexPath: indexPath,
		moviesDir: moviesDir,
		entries:   make([]models.IndexEntry, 0),
		byID:      make(map[int]int),
		pages:     make(map[int]int),
	}
}

// MoviesDir is the directory holding the per-movie record files
func (s *Store) MoviesDir() string {
	return s.moviesDir
}

// Load restores the index from disk. A missing index file starts empty.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clean up any stale temp files from previous crashes
	tempPath := s.indexPath + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	jsonData, err := os.ReadFile(s.indexPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	var data IndexFile
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal index: %w", err)
	}

	s.entries = make([]models.IndexEntry, 0, len(data.Movies))
	s.byID = make(map[int]int, len(data.Movies))
	for _, e := range data.Movies {
		if err := e.Validate(); err != nil {
			logger.Warn("Invalid index entry %d (%q) ignored: %v", e.ID, e.Title, err)
			continue
		}
		if _, dup := s.byID[e.ID]; dup {
			logger.Warn("Duplicate index entry for trakt id %d ignored", e.ID)
			continue
		}
		s.byID[e.ID] = len(s.entries)
		s.entries = append(s.entries, e)
	}

	s.pages = data.Pages
	if s.pages == nil {
		s.pages = make(map[int]int)
	}
	s.lastRunID = data.LastRunID
	s.lastUpdated = data.LastUpdated
	return nil
}

func (s *Store) saveLocked() error {
	s.lastUpdated = time.Now().UTC()
	data := IndexFile{
		Version:     IndexVersion,
		LastUpdated: s.lastUpdated,
		LastRunID:   s.lastRunID,
		Pages:       s.pages,
		Movies:      s.entries,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return WriteFileAtomic(s.indexPath, jsonData)
}

// Has reports whether the Trakt ID is already indexed
func (s *Store) Has(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok
}

// Count is the number of indexed movies
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a copy of the index entries in insertion order
func (s *Store) Entries() []models.IndexEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.IndexEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Entry looks up the index entry for a Trakt ID
func (s *Store) Entry(id int) (models.IndexEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return models.IndexEntry{}, false
	}
	return s.entries[i], true
}

// LastEntry returns the most recently appended entry
func (s *Store) LastEntry() (models.IndexEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return models.IndexEntry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// LastUpdated is the time the index was last saved
func (s *Store) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// LastPage returns the last fully fetched page for year, or 0
func (s *Store) LastPage(year int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pages[year]
}

// Pages returns a copy of the per-year page cursor
func (s *Store) Pages() map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]int, len(s.pages))
	for k, v := range s.pages {
		out[k] = v
	}
	return out
}

// SetPage records page as fetched for year and saves the index
func (s *Store) SetPage(year, page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page <= s.pages[year] {
		return nil
	}
	s.pages[year] = page
	return s.saveLocked()
}

// LastRunID is the id of the most recent fetch run
func (s *Store) LastRunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRunID
}

// SetRunID records the id of the current fetch run and saves the index
func (s *Store) SetRunID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRunID = id
	return s.saveLocked()
}

// AddMovie writes the movie record, appends its index entry and saves the index.
// Returns ErrDuplicate if the Trakt ID is already indexed.
func (s *Store) AddMovie(movie *models.Movie) (models.IndexEntry, error) {
	if err := movie.Validate(); err != nil {
		return models.IndexEntry{}, fmt.Errorf("invalid movie: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[movie.Ids.Trakt]; exists {
		return models.IndexEntry{}, ErrDuplicate
	}

	path := filepath.Join(s.moviesDir, movie.Filename())
	jsonData, err := json.MarshalIndent(movie, "", "  ")
	if err != nil {
		return models.IndexEntry{}, fmt.Errorf("failed to marshal movie: %w", err)
	}
	if err := WriteFileAtomic(path, jsonData); err != nil {
		return models.IndexEntry{}, err
	}

	entry := models.NewIndexEntry(movie, path, time.Now().UTC())
	s.byID[entry.ID] = len(s.entries)
	s.entries = append(s.entries, entry)

	if err := s.saveLocked(); err != nil {
		return entry, err
	}
	return entry, nil
}

// ReadMovie loads the record an index entry points at
func (s *Store) ReadMovie(entry models.IndexEntry) (*models.Movie, error) {
	path := entry.FilePath
	if path == "" {
		path = filepath.Join(s.moviesDir, entry.Filename)
	}
	return ReadMovieFile(path)
}

// ReadMovieFile loads and validates a single record file
func ReadMovieFile(path string) (*models.Movie, error) {
	jsonData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var movie models.Movie
	if err := json.Unmarshal(jsonData, &movie); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	if err := movie.Validate(); err != nil {
		return nil, fmt.Errorf("invalid record %s: %w", path, err)
	}
	return &movie, nil
}

// LoadMovies reads every *.json record in dir ordered by Trakt ID.
// Malformed or invalid files are skipped with a warning and counted.
// A missing directory yields no movies.
func LoadMovies(dir string) ([]models.Movie, int, error) {
	dirEntries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Movie{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read movies directory: %w", err)
	}

	movies := make([]models.Movie, 0, len(dirEntries))
	skipped := 0
	seen := make(map[int]bool, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		movie, err := ReadMovieFile(filepath.Join(dir, de.Name()))
		if err != nil {
			logger.Warn("Skipping record: %v", err)
			skipped++
			continue
		}
		if seen[movie.Ids.Trakt] {
			logger.Warn("Skipping duplicate record %s for trakt id %d", de.Name(), movie.Ids.Trakt)
			skipped++
			continue
		}
		seen[movie.Ids.Trakt] = true
		movies = append(movies, *movie)
	}

	sort.Slice(movies, func(i, j int) bool {
		return movies[i].Ids.Trakt < movies[j].Ids.Trakt
	})
	return movies, skipped, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, filePermissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath) // Clean up temp file on rename failure
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
