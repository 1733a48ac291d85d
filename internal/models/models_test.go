package models

import (
	"testing"
	"time"
)

func validMovie() Movie {
	return Movie{
		Title: "Inception",
		Year:  2010,
		Ids:   Ids{Trakt: 16662, Slug: "inception-2010", IMDB: "tt1375666", TMDB: 27205},
		Stats: Stats{Watchers: 100, Plays: 150, Collectors: 40, Comments: 5, Lists: 20, Votes: 30},
		Rating: Rating{
			Rating:       8.6,
			Votes:        30,
			Distribution: map[string]int{"10": 15, "9": 10, "8": 5},
		},
	}
}

func TestMovieValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Movie)
		wantErr bool
	}{
		{name: "valid movie", mutate: func(m *Movie) {}, wantErr: false},
		{name: "missing trakt id", mutate: func(m *Movie) { m.Ids.Trakt = 0 }, wantErr: true},
		{name: "empty title", mutate: func(m *Movie) { m.Title = "  " }, wantErr: true},
		{name: "rating out of range", mutate: func(m *Movie) { m.Rating.Rating = 11 }, wantErr: true},
		{name: "bad distribution key", mutate: func(m *Movie) { m.Rating.Distribution["eleven"] = 1 }, wantErr: true},
		{name: "distribution key out of range", mutate: func(m *Movie) { m.Rating.Distribution["0"] = 1 }, wantErr: true},
		{name: "negative count", mutate: func(m *Movie) { m.Rating.Distribution["5"] = -1 }, wantErr: true},
		{name: "negative stats", mutate: func(m *Movie) { m.Stats.Plays = -3 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMovie()
			tt.mutate(&m)
			err := m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Movie.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMovieFilename(t *testing.T) {
	tests := []struct {
		title string
		id    int
		want  string
	}{
		{"Inception", 16662, "Inception_16662.json"},
		{"Spider-Man: No Way Home", 416394, "Spider_Man__No_Way_Home_416394.json"},
		{"Amélie", 7, "Amélie_7.json"},
		{"../etc/passwd", 1, "___etc_passwd_1.json"},
	}
	for _, tt := range tests {
		m := Movie{Title: tt.title, Ids: Ids{Trakt: tt.id}}
		if got := m.Filename(); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestMovieHistogram(t *testing.T) {
	m := validMovie()
	m.Rating.Distribution["x"] = 3 // ignored

	scores, counts := m.Histogram()
	wantScores := []float64{8, 9, 10}
	wantCounts := []float64{5, 10, 15}
	if len(scores) != len(wantScores) {
		t.Fatalf("got %d scores, want %d", len(scores), len(wantScores))
	}
	for i := range wantScores {
		if scores[i] != wantScores[i] || counts[i] != wantCounts[i] {
			t.Errorf("bucket %d = (%v, %v), want (%v, %v)", i, scores[i], counts[i], wantScores[i], wantCounts[i])
		}
	}
	if got := m.HistogramVotes(); got != 30 {
		t.Errorf("HistogramVotes() = %d, want 30", got)
	}
}

func TestIndexEntryValidate(t *testing.T) {
	m := validMovie()
	entry := NewIndexEntry(&m, "data/movies/Inception_16662.json", time.Now().Add(-time.Minute))
	if err := entry.Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}
	if entry.Filename != "Inception_16662.json" {
		t.Errorf("unexpected filename %q", entry.Filename)
	}

	future := entry
	future.AddedAt = time.Now().Add(time.Hour)
	if err := future.Validate(); err == nil {
		t.Error("expected error for future added_at")
	}

	missing := entry
	missing.ID = 0
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing id")
	}
}
