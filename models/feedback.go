package models

import "time"

// FeedbackVerdict records the most recent explicit thumbs up/down a user gave
// for a title. A new verdict overwrites the previous one; no history is kept.
type FeedbackVerdict struct {
	Liked     bool      `json:"liked"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FeedbackEntry is one user's relationship to one title.
type FeedbackEntry struct {
	PersonalRating    *float64         `json:"personalRating,omitempty"`
	WatchedEpisodeIDs []int64          `json:"watchedEpisodeIds,omitempty"`
	LastFeedback      *FeedbackVerdict `json:"lastFeedback,omitempty"`
}

// FeedbackUpdate is a partial update merged into an existing FeedbackEntry.
// Nil fields are left untouched; ClearLastFeedback removes the stored verdict
// (used when a user taps the same thumb twice to undo their feedback).
type FeedbackUpdate struct {
	PersonalRating    *float64         `json:"personalRating,omitempty"`
	WatchedEpisodeIDs []int64          `json:"watchedEpisodeIds,omitempty"`
	LastFeedback      *FeedbackVerdict `json:"lastFeedback,omitempty"`
	ClearLastFeedback bool             `json:"clearLastFeedback,omitempty"`
}
