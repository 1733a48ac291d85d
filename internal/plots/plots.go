// Package plots renders the analysis result as PNG charts.
package plots

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/rewired-gh/reelstats/internal/analyzer"
	"github.com/rewired-gh/reelstats/internal/logger"
)

// Output file names
const (
	RatingConsistencyFile = "rating_consistency.png"
	GenreRatingsFile      = "genre_ratings.png"
	TimelineFile          = "timeline_analysis.png"
)

// Files lists every chart Render writes, in render order
var Files = []string{RatingConsistencyFile, GenreRatingsFile, TimelineFile}

const highlightN = 5

var (
	colorSuccess      = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	colorConsistent   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	colorInconsistent = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	colorCount        = color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff}
)

// Render writes all charts into dir and returns their paths
func Render(dir string, result *analyzer.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plots directory: %w", err)
	}

	renderers := []struct {
		file   string
		render func(string, *analyzer.Result) error
	}{
		{RatingConsistencyFile, renderRatingConsistency},
		{GenreRatingsFile, renderGenreRatings},
		{TimelineFile, renderTimeline},
	}

	paths := make([]string, 0, len(renderers))
	for _, r := range renderers {
		path := filepath.Join(dir, r.file)
		if err := r.render(path, result); err != nil {
			return paths, fmt.Errorf("failed to render %s: %w", r.file, err)
		}
		logger.Debug("Wrote %s", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// renderRatingConsistency scatters rating against consistency, shading points by
// vote count and marking the top success, most consistent and most inconsistent movies.
func renderRatingConsistency(path string, result *analyzer.Result) error {
	p := plot.New()
	p.Title.Text = "Rating vs. rating consistency"
	p.X.Label.Text = "Rating"
	p.Y.Label.Text = "Consistency (weighted std dev)"
	p.Add(plotter.NewGrid())

	movies := result.Movies
	if len(movies) > 0 {
		xys := make(plotter.XYs, len(movies))
		votes := make([]float64, len(movies))
		for i, m := range movies {
			xys[i].X = m.Rating
			xys[i].Y = m.Consistency
			votes[i] = math.Log1p(float64(m.Votes))
		}

		all, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		shade := voteShader(votes)
		all.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{Color: shade(i), Radius: vg.Points(2), Shape: draw.CircleGlyph{}}
		}
		p.Add(all)

		report := result.Report
		byID := make(map[int]analyzer.ScoredMovie, len(movies))
		for _, m := range movies {
			byID[m.ID] = m
		}

		highlights := []struct {
			label  string
			ranked []analyzer.RankedMovie
			style  draw.GlyphStyle
		}{
			{"Top success", head(report.TopMovies, highlightN), draw.GlyphStyle{Color: colorSuccess, Radius: vg.Points(5), Shape: draw.PyramidGlyph{}}},
			{"Most consistent", report.RatingConsistency.MostConsistent, draw.GlyphStyle{Color: colorConsistent, Radius: vg.Points(5), Shape: draw.RingGlyph{}}},
			{"Most inconsistent", report.RatingConsistency.MostInconsistent, draw.GlyphStyle{Color: colorInconsistent, Radius: vg.Points(5), Shape: draw.CrossGlyph{}}},
		}
		for _, h := range highlights {
			if len(h.ranked) == 0 {
				continue
			}
			pts := make(plotter.XYs, 0, len(h.ranked))
			for _, r := range h.ranked {
				m := byID[r.ID]
				pts = append(pts, plotter.XY{X: m.Rating, Y: m.Consistency})
			}
			s, err := plotter.NewScatter(pts)
			if err != nil {
				return err
			}
			s.GlyphStyle = h.style
			p.Add(s)
			p.Legend.Add(h.label, s)
		}
		p.Legend.Top = true
	}

	return p.Save(10*vg.Inch, 7*vg.Inch, path)
}

// voteShader maps each movie's log vote count onto a blue-red color ramp
func voteShader(values []float64) func(int) color.Color {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(values) == 0 || hi <= lo {
		return func(int) color.Color { return colorConsistent }
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(lo)
	cm.SetMax(hi)
	return func(i int) color.Color {
		c, err := cm.At(values[i])
		if err != nil {
			return colorCount
		}
		return c
	}
}

// renderGenreRatings draws one rating box per genre, genres in name order
func renderGenreRatings(path string, result *analyzer.Result) error {
	p := plot.New()
	p.Title.Text = "Rating distribution by genre"
	p.Y.Label.Text = "Rating"

	byGenre := make(map[string]plotter.Values)
	for _, m := range result.Movies {
		for _, g := range m.Genres {
			byGenre[g] = append(byGenre[g], m.Rating)
		}
	}
	genres := make([]string, 0, len(byGenre))
	for g := range byGenre {
		genres = append(genres, g)
	}
	sort.Strings(genres)

	for i, g := range genres {
		box, err := plotter.NewBoxPlot(vg.Points(16), float64(i), byGenre[g])
		if err != nil {
			return err
		}
		p.Add(box)
	}
	if len(genres) > 0 {
		p.NominalX(genres...)
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}

	width := vg.Length(math.Max(8, float64(len(genres))*0.5)) * vg.Inch
	return p.Save(width, 6*vg.Inch, path)
}

// renderTimeline draws two stacked panels: yearly mean rating with movie count,
// then yearly mean engagement with mean translation reach.
func renderTimeline(path string, result *analyzer.Result) error {
	years := result.Report.Timeline

	top := plot.New()
	top.Title.Text = "Ratings and releases by year"
	top.Y.Label.Text = "Mean rating / movies (scaled to 10)"
	top.Add(plotter.NewGrid())

	bottom := plot.New()
	bottom.Title.Text = "Engagement and translation reach by year"
	bottom.X.Label.Text = "Year"
	bottom.Y.Label.Text = "Normalized score"
	bottom.Add(plotter.NewGrid())

	if len(years) > 0 {
		maxCount := 0
		for _, y := range years {
			if y.MovieCount > maxCount {
				maxCount = y.MovieCount
			}
		}

		rating := make(plotter.XYs, len(years))
		count := make(plotter.XYs, len(years))
		engagement := make(plotter.XYs, len(years))
		reach := make(plotter.XYs, len(years))
		for i, y := range years {
			x := float64(y.Year)
			rating[i] = plotter.XY{X: x, Y: y.AvgRating}
			count[i] = plotter.XY{X: x, Y: 10 * float64(y.MovieCount) / float64(maxCount)}
			engagement[i] = plotter.XY{X: x, Y: y.AvgEngagement}
			reach[i] = plotter.XY{X: x, Y: y.AvgTranslationReach}
		}

		if err := addLine(top, "Mean rating", rating, colorConsistent); err != nil {
			return err
		}
		if err := addLine(top, fmt.Sprintf("Movies (max %d)", maxCount), count, colorCount); err != nil {
			return err
		}
		if err := addLine(bottom, "Mean engagement", engagement, colorSuccess); err != nil {
			return err
		}
		if err := addLine(bottom, "Mean translation reach", reach, colorInconsistent); err != nil {
			return err
		}
		top.Legend.Top = true
		bottom.Legend.Top = true
	}

	const width, height = 10 * vg.Inch, 10 * vg.Inch
	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	panels := [][]*plot.Plot{{top}, {bottom}}
	canvases := plot.Align(panels, tiles, dc)
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func addLine(p *plot.Plot, label string, xys plotter.XYs, c color.Color) error {
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1.5)
	points.Color = c
	points.Shape = draw.CircleGlyph{}
	p.Add(line, points)
	p.Legend.Add(label, line, points)
	return nil
}

func head(ranked []analyzer.RankedMovie, n int) []analyzer.RankedMovie {
	if len(ranked) > n {
		return ranked[:n]
	}
	return ranked
}
