package models

import "time"

// Watch status values tracked per library item.
const (
	WatchStatusPlanToWatch = "Plan to Watch"
	WatchStatusWatching    = "Watching"
	WatchStatusCompleted   = "Completed"
	WatchStatusOnHold      = "On Hold"
	WatchStatusDropped     = "Dropped"
)

// LibraryItem is one owned title in a user's library.
type LibraryItem struct {
	Title        Title     `json:"title"`
	WatchStatus  string    `json:"watchStatus,omitempty"`
	RewatchCount int       `json:"rewatchCount,omitempty"`
	AddedAt      time.Time `json:"addedAt"`
}

// LibraryUpsert is the payload used to add or update a library item.
type LibraryUpsert struct {
	Title        Title  `json:"title"`
	WatchStatus  string `json:"watchStatus,omitempty"`
	RewatchCount int    `json:"rewatchCount,omitempty"`
}
