package dashboard

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rewired-gh/reelstats/internal/analyzer"
	"github.com/rewired-gh/reelstats/internal/logger"
	"github.com/rewired-gh/reelstats/internal/models"
	"github.com/rewired-gh/reelstats/internal/plots"
)

// popularityRow is one line of the popularity table. Scores is nil for
// indexed movies that have no rating votes or no readable record.
type popularityRow struct {
	Rank   int
	Entry  models.IndexEntry
	Scores *analyzer.ScoredMovie
}

func (s *Server) popularity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.result()
		if err != nil {
			logger.Error("Unable to load movies: %v", err)
			s.renderError(w, http.StatusInternalServerError, "")
			return
		}

		movies := popularityRows(s.store.Entries(), result.Movies)

		pages := (len(movies) + s.pageSize - 1) / s.pageSize
		if pages == 0 {
			pages = 1
		}
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			p, err := strconv.Atoi(raw)
			if err != nil || p < 1 || p > pages {
				s.renderError(w, http.StatusBadRequest, "Page out of range.")
				return
			}
			page = p
		}

		start := (page - 1) * s.pageSize
		end := start + s.pageSize
		if end > len(movies) {
			end = len(movies)
		}
		rows := movies[start:end]

		data := s.newTplData("Popularity", "popularity")
		data["Movies"] = rows
		data["Total"] = len(movies)
		data["Page"] = page
		data["Pages"] = pages
		data["PrevPage"] = 0
		data["NextPage"] = 0
		if page > 1 {
			data["PrevPage"] = page - 1
		}
		if page < pages {
			data["NextPage"] = page + 1
		}
		s.render(w, "popularity.html", data)
	}
}

// popularityRows lists every index entry, scored movies first by engagement
// and unscored ones after them, both with the Trakt ID as tie-break.
func popularityRows(entries []models.IndexEntry, scored []analyzer.ScoredMovie) []popularityRow {
	byID := make(map[int]*analyzer.ScoredMovie, len(scored))
	for i := range scored {
		byID[scored[i].ID] = &scored[i]
	}

	rows := make([]popularityRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, popularityRow{Entry: e, Scores: byID[e.ID]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Scores, rows[j].Scores
		switch {
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		case a != nil && a.Engagement != b.Engagement:
			return a.Engagement > b.Engagement
		}
		return rows[i].Entry.ID < rows[j].Entry.ID
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

func (s *Server) movie() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil || id <= 0 {
			s.renderError(w, http.StatusNotFound, "")
			return
		}

		result, err := s.result()
		if err != nil {
			logger.Error("Unable to load movies: %v", err)
			s.renderError(w, http.StatusInternalServerError, "")
			return
		}

		entry, ok := s.store.Entry(id)
		if !ok {
			s.renderError(w, http.StatusNotFound, "")
			return
		}
		movie, err := s.store.ReadMovie(entry)
		if err != nil {
			logger.Warn("Unable to read movie %d: %v", id, err)
			s.renderError(w, http.StatusNotFound, "The record for this movie could not be read.")
			return
		}

		data := s.newTplData(movie.Title, "popularity")
		data["Movie"] = movie
		data["Entry"] = entry
		data["Scores"] = nil
		for i := range result.Movies {
			if result.Movies[i].ID == id {
				data["Scores"] = &result.Movies[i]
				break
			}
		}
		s.render(w, "movie.html", data)
	}
}

func (s *Server) genres() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.result()
		if err != nil {
			logger.Error("Unable to load movies: %v", err)
			s.renderError(w, http.StatusInternalServerError, "")
			return
		}

		data := s.newTplData("Genres", "genres")
		data["Genres"] = result.Report.GenreImpact
		s.render(w, "genres.html", data)
	}
}

func (s *Server) keywords() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.result()
		if err != nil {
			logger.Error("Unable to load movies: %v", err)
			s.renderError(w, http.StatusInternalServerError, "")
			return
		}

		threshold := s.analysisOpts.MinKeywordMovies
		if threshold <= 0 {
			threshold = analyzer.DefaultMinKeywordMovies
		}
		data := s.newTplData("Keywords", "keywords")
		data["Keywords"] = result.Report.KeywordImpact
		data["Trends"] = result.Report.KeywordTrends
		data["Years"] = result.Report.Timeline
		data["MinMovies"] = threshold
		s.render(w, "keywords.html", data)
	}
}

func (s *Server) trends() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.result()
		if err != nil {
			logger.Error("Unable to load movies: %v", err)
			s.renderError(w, http.StatusInternalServerError, "")
			return
		}

		genres := make([]analyzer.GenreStats, len(result.Report.GenreImpact))
		copy(genres, result.Report.GenreImpact)
		sort.SliceStable(genres, func(i, j int) bool {
			if genres[i].TotalWatchers != genres[j].TotalWatchers {
				return genres[i].TotalWatchers > genres[j].TotalWatchers
			}
			return genres[i].Genre < genres[j].Genre
		})

		data := s.newTplData("Trends", "trends")
		data["Years"] = result.Report.Timeline
		data["Genres"] = genres
		s.render(w, "trends.html", data)
	}
}

func (s *Server) analysis() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newTplData("Analysis", "analysis")
		data["Report"] = nil

		report, err := analyzer.ReadReport(s.resultsDir)
		switch {
		case errors.Is(err, analyzer.ErrReportNotFound):
		case err != nil:
			logger.Error("Unable to read report: %v", err)
			s.renderError(w, http.StatusInternalServerError, "The analysis report could not be read.")
			return
		default:
			data["Report"] = report
		}

		available := []string{}
		for _, name := range plots.Files {
			if _, err := os.Stat(filepath.Join(s.plotsDir, name)); err == nil {
				available = append(available, name)
			}
		}
		data["Plots"] = available
		s.render(w, "analysis.html", data)
	}
}

func (s *Server) plot() http.HandlerFunc {
	allowed := make(map[string]bool, len(plots.Files))
	for _, name := range plots.Files {
		allowed[name] = true
	}

	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if !allowed[name] {
			s.renderError(w, http.StatusNotFound, "")
			return
		}
		path := filepath.Join(s.plotsDir, name)
		if _, err := os.Stat(path); err != nil {
			s.renderError(w, http.StatusNotFound, "This plot has not been rendered yet.")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		http.ServeFile(w, r, path)
	}
}

func (s *Server) about() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.Load(); err != nil {
			logger.Error("Unable to load index: %v", err)
			s.renderError(w, http.StatusInternalServerError, "")
			return
		}

		data := s.newTplData("About", "about")
		data["Count"] = s.store.Count()
		data["LastRunID"] = s.store.LastRunID()
		data["LastUpdated"] = s.store.LastUpdated()
		s.render(w, "about.html", data)
	}
}
