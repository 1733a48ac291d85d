package dashboard

import (
	"net/http"

	"github.com/rewired-gh/reelstats/internal/logger"
)

type errorData struct {
	Code    int
	Title   string
	Message string
}

var errorTemplates = map[int]errorData{
	http.StatusBadRequest: {
		Code:    400,
		Title:   "Bad Request",
		Message: "The request could not be understood by the server.",
	},
	http.StatusNotFound: {
		Code:    404,
		Title:   "Not Found",
		Message: "The page or movie you're looking for doesn't exist.",
	},
	http.StatusInternalServerError: {
		Code:    500,
		Title:   "Internal Server Error",
		Message: "Something went wrong reading the movie data.",
	},
}

func (s *Server) renderError(w http.ResponseWriter, code int, customMessage string) {
	data, ok := errorTemplates[code]
	if !ok {
		data = errorData{
			Code:    code,
			Title:   "Error",
			Message: "An unexpected error occurred.",
		}
	}
	if customMessage != "" {
		data.Message = customMessage
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)

	tmpl := s.templates["error.html"]
	if tmpl == nil {
		http.Error(w, data.Message, code)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "error.html", data); err != nil {
		logger.Error("Error rendering error template: %v", err)
	}
}

func (s *Server) notFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, http.StatusNotFound, "")
	}
}
