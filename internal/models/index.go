package models

import (
	"errors"
	"time"
)

// IndexEntry points at one persisted Movie record.
// Entries are appended once per Trakt ID and never rewritten.
type IndexEntry struct {
	ID       int       `json:"id"` // Trakt ID
	Title    string    `json:"title"`
	Year     int       `json:"year"`
	Filename string    `json:"filename"`
	FilePath string    `json:"file_path"`
	AddedAt  time.Time `json:"added_at"`
}

// Validate checks that all entry fields are valid
func (e *IndexEntry) Validate() error {
	if e.ID <= 0 {
		return errors.New("index entry ID must be positive")
	}
	if e.Title == "" {
		return errors.New("index entry title must not be empty")
	}
	if e.Filename == "" {
		return errors.New("index entry filename must not be empty")
	}
	if e.AddedAt.IsZero() {
		return errors.New("added at must be set")
	}
	if e.AddedAt.After(time.Now()) {
		return errors.New("added at must not be in the future")
	}
	return nil
}

// NewIndexEntry builds the entry for a movie stored at path
func NewIndexEntry(m *Movie, path string, addedAt time.Time) IndexEntry {
	return IndexEntry{
		ID:       m.Ids.Trakt,
		Title:    m.Title,
		Year:     m.Year,
		Filename: m.Filename(),
		FilePath: path,
		AddedAt:  addedAt,
	}
}
