package plots

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rewired-gh/reelstats/internal/analyzer"
	"github.com/rewired-gh/reelstats/internal/models"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func sampleMovies() []models.Movie {
	out := []models.Movie{}
	genres := [][]string{{"drama"}, {"action", "thriller"}, {"comedy"}, {"drama", "romance"}, {"action"}, {"horror"}}
	for i := 1; i <= 12; i++ {
		out = append(out, models.Movie{
			Title:                 "Movie",
			Year:                  2010 + i%4,
			Ids:                   models.Ids{Trakt: i},
			Genres:                genres[i%len(genres)],
			AvailableTranslations: make([]string, i%5),
			Stats:                 models.Stats{Watchers: i * 100, Plays: i * 150, Collectors: i * 7, Comments: i, Lists: i * 3, Votes: i * 2},
			Rating: models.Rating{
				Rating:       5 + float64(i%5),
				Votes:        i * 10,
				Distribution: map[string]int{"5": i, "7": 12 - i, "9": i % 3},
			},
		})
	}
	return out
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected %s to exist: %v", path, err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Errorf("%s is not a PNG file", path)
	}
}

func TestRender(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	result := analyzer.Analyze(sampleMovies(), analyzer.Options{})

	paths, err := Render(dir, result)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(paths) != len(Files) {
		t.Fatalf("Expected %d files, got %d", len(Files), len(paths))
	}
	for i, name := range Files {
		if paths[i] != filepath.Join(dir, name) {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], name)
		}
		assertPNG(t, paths[i])
	}
}

func TestRenderEmpty(t *testing.T) {
	dir := t.TempDir()
	paths, err := Render(dir, analyzer.Analyze(nil, analyzer.Options{}))
	if err != nil {
		t.Fatalf("Render of empty result failed: %v", err)
	}
	for _, p := range paths {
		assertPNG(t, p)
	}
}

func TestVoteShaderConstant(t *testing.T) {
	shade := voteShader([]float64{3, 3})
	if shade(0) != colorConsistent {
		t.Error("Expected fallback color for constant vote counts")
	}
}
