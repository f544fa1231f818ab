package handlers

import (
	"encoding/json"
	"net/http"

	"cinespot/services/similarity"
)

// ExpandHandler exposes the TF-IDF expansion as a standalone endpoint so
// clients can grow a seed query into related titles without the full
// spotlight pipeline.
type ExpandHandler struct{}

func NewExpandHandler() *ExpandHandler { return &ExpandHandler{} }

// Ping answers GET with a liveness blob, mirroring the POST contract's path.
func (h *ExpandHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true}`))
}

func (h *ExpandHandler) Expand(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Corpus []string `json:"corpus"`
		Query  string   `json:"query"`
		TopK   int      `json:"topK,omitempty"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, "corpus must be an array of strings and query a string", http.StatusBadRequest)
		return
	}
	if body.Corpus == nil {
		http.Error(w, "corpus must be an array of strings", http.StatusBadRequest)
		return
	}
	if body.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	expanded := similarity.ExpandByTFIDF(body.Corpus, body.Query, body.TopK)
	if expanded == nil {
		expanded = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"query":    body.Query,
		"expanded": expanded,
	})
}
