package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cinespot/models"
	"cinespot/services/feedback"
	"cinespot/services/spotlight"

	"github.com/gorilla/mux"
)

type spotlightService interface {
	Get(ctx context.Context, userID string) (models.SpotlightResult, error)
	Refresh(ctx context.Context, userID string) (models.SpotlightResult, error)
	RemoveRecommendation(userID string, titleID int64) bool
}

var _ spotlightService = (*spotlight.Service)(nil)

type feedbackWriter interface {
	Get(userID string, titleID int64) (models.FeedbackEntry, bool)
	Set(userID string, titleID int64, update models.FeedbackUpdate) (models.FeedbackEntry, error)
}

var _ feedbackWriter = (*feedback.Service)(nil)

type SpotlightHandler struct {
	Service  spotlightService
	Feedback feedbackWriter
}

func NewSpotlightHandler(service spotlightService, fb feedbackWriter) *SpotlightHandler {
	return &SpotlightHandler{Service: service, Feedback: fb}
}

// spotlightResponse is the wire shape: the result payload plus an optional
// non-blocking notice when aggregation degraded (stale data or empty result).
type spotlightResponse struct {
	TopPicks  []models.Title    `json:"topPicks"`
	Carousels []models.Carousel `json:"carousels"`
	Notice    string            `json:"notice,omitempty"`
}

func (h *SpotlightHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := requestUser(r)

	var (
		res models.SpotlightResult
		err error
	)
	if r.URL.Query().Get("refresh") != "" {
		res, err = h.Service.Refresh(r.Context(), userID)
	} else {
		res, err = h.Service.Get(r.Context(), userID)
	}

	resp := spotlightResponse{TopPicks: res.TopPicks, Carousels: res.Carousels}
	if resp.TopPicks == nil {
		resp.TopPicks = []models.Title{}
	}
	if resp.Carousels == nil {
		resp.Carousels = []models.Carousel{}
	}
	if err != nil {
		resp.Notice = "Could not fetch new recommendations. Please try again later."
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *SpotlightHandler) RemoveRecommendation(w http.ResponseWriter, r *http.Request) {
	userID := requestUser(r)

	titleID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid title id", http.StatusBadRequest)
		return
	}

	if !h.Service.RemoveRecommendation(userID, titleID) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitFeedback records a thumbs up/down. Posting the identical verdict
// again undoes it; a dislike also scrubs the title from the cached spotlight
// payload immediately.
func (h *SpotlightHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	userID := requestUser(r)

	var body struct {
		TitleID int64  `json:"titleId"`
		Liked   bool   `json:"liked"`
		Reason  string `json:"reason,omitempty"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.TitleID == 0 {
		http.Error(w, "titleId is required", http.StatusBadRequest)
		return
	}

	update := models.FeedbackUpdate{}
	if existing, ok := h.Feedback.Get(userID, body.TitleID); ok &&
		existing.LastFeedback != nil && existing.LastFeedback.Liked == body.Liked {
		update.ClearLastFeedback = true
	} else {
		update.LastFeedback = &models.FeedbackVerdict{
			Liked:     body.Liked,
			Reason:    strings.TrimSpace(body.Reason),
			Timestamp: time.Now(),
		}
	}

	entry, err := h.Feedback.Set(userID, body.TitleID, update)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if update.LastFeedback != nil && !update.LastFeedback.Liked {
		h.Service.RemoveRecommendation(userID, body.TitleID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

// requestUser reads the acting user from the X-User-ID header, falling back
// to the single default user.
func requestUser(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return models.DefaultUserID
}
