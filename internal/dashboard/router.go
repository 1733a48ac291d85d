package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func router(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.popularity())
	r.Get("/movies/{id}", s.movie())
	r.Get("/genres", s.genres())
	r.Get("/keywords", s.keywords())
	r.Get("/trends", s.trends())
	r.Get("/analysis", s.analysis())
	r.Get("/plots/{name}", s.plot())
	r.Get("/about", s.about())

	r.NotFound(s.notFoundHandler())

	return r
}
