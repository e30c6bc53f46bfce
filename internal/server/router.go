package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clarivex-health/advera/internal/api/handlers"
	"github.com/clarivex-health/advera/internal/api/middleware"
)

type RouterConfig struct {
	NarrativeHandler *handlers.NarrativeHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	HealthHandler    *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.HealthHandler.Check)

	r.Post("/narratives", cfg.NarrativeHandler.Generate)
	r.Get("/reports/{patientID}", cfg.NarrativeHandler.GetReport)

	r.Post("/search", cfg.KnowledgeHandler.Search)
	r.Get("/drugs", cfg.KnowledgeHandler.ListDrugs)
	r.Get("/syndromes", cfg.KnowledgeHandler.ListSyndromes)
	r.Get("/chunks", cfg.KnowledgeHandler.ListChunks)

	return r
}
