package handlers

import (
	"context"
	"net/http"

	"github.com/clarivex-health/advera/internal/api"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db            Pinger
	embeddingSet  bool
	generationSet bool
}

func NewHealthHandler(db Pinger, embeddingSet, generationSet bool) *HealthHandler {
	return &HealthHandler{
		db:            db,
		embeddingSet:  embeddingSet,
		generationSet: generationSet,
	}
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Check reports per-component health. The endpoint itself always answers
// 200 so orchestrators can distinguish "degraded" from "down".
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"database":   "ok",
		"embedding":  "ok",
		"generation": "ok",
	}

	if h.db == nil {
		components["database"] = "not_configured"
	} else if err := h.db.Ping(r.Context()); err != nil {
		components["database"] = "unavailable"
	}
	if !h.embeddingSet {
		components["embedding"] = "not_configured"
	}
	if !h.generationSet {
		components["generation"] = "not_configured"
	}

	status := "healthy"
	for _, state := range components {
		if state != "ok" {
			status = "degraded"
			break
		}
	}

	api.Success(w, http.StatusOK, HealthResponse{
		Status:     status,
		Components: components,
	})
}
