package http

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/observability"
)

// Handler handles HTTP requests.
type Handler struct {
	models    *domain.ModelRegistry
	summaries domain.SummaryStore
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(models *domain.ModelRegistry, summaries domain.SummaryStore) *Handler {
	return &Handler{
		models:    models,
		summaries: summaries,
	}
}

// ModelsResponse is the body of GET /v1/models.
type ModelsResponse struct {
	Models []domain.ModelDescriptor `json:"models"`
}

// HandleModels lists the selectable models with their rates.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, r, http.StatusOK, ModelsResponse{Models: h.models.List()})
}

// HandleSummary returns the last persisted cost summary.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary, err := h.summaries.Load(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "no summary has been written yet", http.StatusNotFound)
			return
		}
		observability.FromContext(ctx).Error("failed to load summary", observability.Error(err))
		http.Error(w, "failed to load summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, summary)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Already written status, can't change it, just log.
		observability.FromContext(r.Context()).Warn("failed to encode response", observability.Error(err))
	}
}
