package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rfpworks/rfpworks/internal/api"
	"github.com/rfpworks/rfpworks/internal/api/handlers"
	"github.com/rfpworks/rfpworks/internal/api/middleware"
)

type RouterConfig struct {
	AnswerHandler   *handlers.AnswerHandler
	DocumentHandler *handlers.DocumentHandler
	SearchHandler   *handlers.SearchHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 10 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/answers", func(r chi.Router) {
		r.Post("/generate", cfg.AnswerHandler.Generate)
	})

	r.Get("/questions/{id}/answers", cfg.AnswerHandler.ListByQuestion)

	r.Route("/documents", func(r chi.Router) {
		r.Post("/index", cfg.DocumentHandler.Index)
		r.Get("/stats", cfg.DocumentHandler.Stats)
		r.Delete("/{id}", cfg.DocumentHandler.Delete)
	})

	r.Post("/search", cfg.SearchHandler.Search)

	return r
}
