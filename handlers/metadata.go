package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"cinespot/models"
	"cinespot/services/metadata"

	"github.com/gorilla/mux"
)

type metadataService interface {
	Search(ctx context.Context, query string, limit int) ([]models.Title, error)
	Details(ctx context.Context, mediaType string, id int64) (*models.Title, error)
	Similar(ctx context.Context, mediaType string, id int64) ([]models.Title, error)
	Trending(ctx context.Context) ([]models.Title, error)
	TopRated(ctx context.Context) ([]models.Title, error)
	Upcoming(ctx context.Context) ([]models.Title, error)
}

var _ metadataService = (*metadata.Service)(nil)

// MetadataHandler is a thin proxy over the catalog service so the frontend
// never talks to TMDB directly.
type MetadataHandler struct {
	Service metadataService
}

func NewMetadataHandler(service metadataService) *MetadataHandler {
	return &MetadataHandler{Service: service}
}

func (h *MetadataHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	results, err := h.Service.Search(r.Context(), query, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeTitles(w, results)
}

func (h *MetadataHandler) Details(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid title id", http.StatusBadRequest)
		return
	}

	title, err := h.Service.Details(r.Context(), vars["mediaType"], id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(title)
}

func (h *MetadataHandler) Similar(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid title id", http.StatusBadRequest)
		return
	}

	results, err := h.Service.Similar(r.Context(), vars["mediaType"], id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeTitles(w, results)
}

func (h *MetadataHandler) Trending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.Trending)
}

func (h *MetadataHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.TopRated)
}

func (h *MetadataHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.Upcoming)
}

func (h *MetadataHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]models.Title, error)) {
	results, err := fetch(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeTitles(w, results)
}

func (h *MetadataHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, metadata.ErrTitleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, metadata.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}

func writeTitles(w http.ResponseWriter, titles []models.Title) {
	if titles == nil {
		titles = []models.Title{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(titles)
}
