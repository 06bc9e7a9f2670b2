package server

import (
	"net/http"

	"github.com/cloo-solutions/agentrag/internal/api"
	"github.com/cloo-solutions/agentrag/internal/api/handlers"
	"github.com/cloo-solutions/agentrag/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	defaultMaxBodyBytes   int64 = 5 << 20
	defaultMaxUploadBytes int64 = 25 << 20
)

type RouterConfig struct {
	AuthValidator   middleware.AuthValidator
	AgentHandler    *handlers.AgentHandler
	FileHandler     *handlers.FileHandler
	TrainingHandler *handlers.TrainingHandler
	IngestHandler   *handlers.IngestHandler

	// MaxBodyBytes caps JSON bodies, MaxUploadBytes caps /extract. Zero uses the defaults.
	MaxBodyBytes   int64
	MaxUploadBytes int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.With(middleware.MaxBodyBytes(cfg.MaxUploadBytes)).Post("/extract", cfg.IngestHandler.Extract)

		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodyBytes(cfg.MaxBodyBytes))

			r.Post("/crawl", cfg.IngestHandler.Crawl)

			r.Route("/agents", func(r chi.Router) {
				r.Post("/", cfg.AgentHandler.Create)
				r.Get("/", cfg.AgentHandler.List)

				r.Route("/{agentID}", func(r chi.Router) {
					r.Get("/files", cfg.FileHandler.List)
					r.Post("/files", cfg.FileHandler.Create)
					r.Delete("/files/{fileID}", cfg.FileHandler.Delete)
					r.Post("/texts", cfg.FileHandler.AddText)
					r.Post("/qa", cfg.FileHandler.AddQA)

					r.Post("/train", cfg.TrainingHandler.Train)
					r.Post("/train/jobs", cfg.TrainingHandler.Enqueue)
					r.Get("/train/jobs/{jobID}", cfg.TrainingHandler.GetJob)
				})
			})
		})
	})

	return r
}
