package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"cinespot/models"
	"cinespot/services/feedback"
	"cinespot/services/library"

	"github.com/gorilla/mux"
)

type libraryService interface {
	List(userID string) []models.LibraryItem
	Add(userID string, input models.LibraryUpsert) (models.LibraryItem, error)
	Remove(userID string, titleID int64) (bool, error)
}

var _ libraryService = (*library.Service)(nil)

type feedbackReader interface {
	All(userID string) map[int64]models.FeedbackEntry
	Set(userID string, titleID int64, update models.FeedbackUpdate) (models.FeedbackEntry, error)
}

var _ feedbackReader = (*feedback.Service)(nil)

type LibraryHandler struct {
	Service  libraryService
	Feedback feedbackReader
}

func NewLibraryHandler(service libraryService, fb feedbackReader) *LibraryHandler {
	return &LibraryHandler{Service: service, Feedback: fb}
}

func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.Service.List(requestUser(r))
	if items == nil {
		items = []models.LibraryItem{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *LibraryHandler) Add(w http.ResponseWriter, r *http.Request) {
	var body models.LibraryUpsert
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.Add(requestUser(r), body)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, library.ErrUserIDRequired), errors.Is(err, library.ErrTitleIDRequired):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *LibraryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	titleID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid title id", http.StatusBadRequest)
		return
	}

	removed, err := h.Service.Remove(requestUser(r), titleID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !removed {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FeedbackMap returns every feedback entry the user has, keyed by title ID.
func (h *LibraryHandler) FeedbackMap(w http.ResponseWriter, r *http.Request) {
	entries := h.Feedback.All(requestUser(r))
	if entries == nil {
		entries = map[int64]models.FeedbackEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// UpdateFeedback merges a partial feedback update (personal rating, watched
// episodes) into the entry for one title.
func (h *LibraryHandler) UpdateFeedback(w http.ResponseWriter, r *http.Request) {
	titleID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid title id", http.StatusBadRequest)
		return
	}

	var body models.FeedbackUpdate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.Feedback.Set(requestUser(r), titleID, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}
