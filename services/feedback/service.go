package feedback

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cinespot/models"
)

var (
	ErrUserIDRequired  = errors.New("user id required")
	ErrTitleIDRequired = errors.New("title id required")
)

// Service persists per-user feedback annotations (personal ratings, watched
// episodes, thumbs up/down). Updates use merge semantics so a partial write
// never wipes fields it does not mention, and a new verdict always replaces
// the previous one.
type Service struct {
	mu   sync.RWMutex
	path string
	data map[string]map[int64]models.FeedbackEntry // userID -> titleID -> entry
}

// NewService creates the feedback store backed by feedback.json under
// storageDir, or memory-only when storageDir is empty.
func NewService(storageDir string) (*Service, error) {
	svc := &Service{data: make(map[string]map[int64]models.FeedbackEntry)}

	if strings.TrimSpace(storageDir) != "" {
		if err := os.MkdirAll(storageDir, 0o755); err != nil {
			return nil, fmt.Errorf("create feedback dir: %w", err)
		}
		svc.path = filepath.Join(storageDir, "feedback.json")
		if err := svc.load(); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

func (s *Service) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read feedback: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return fmt.Errorf("parse feedback: %w", err)
	}
	return nil
}

func (s *Service) save() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// All returns a snapshot of the user's feedback map.
func (s *Service) All(userID string) map[int64]models.FeedbackEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]models.FeedbackEntry, len(s.data[userID]))
	for id, entry := range s.data[userID] {
		out[id] = entry
	}
	return out
}

// Get returns the entry for one title.
func (s *Service) Get(userID string, titleID int64) (models.FeedbackEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.data[userID][titleID]
	return entry, ok
}

// Set merges the update into the stored entry and persists. Unset fields are
// left alone; ClearLastFeedback removes the stored verdict.
func (s *Service) Set(userID string, titleID int64, update models.FeedbackUpdate) (models.FeedbackEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return models.FeedbackEntry{}, ErrUserIDRequired
	}
	if titleID <= 0 {
		return models.FeedbackEntry{}, ErrTitleIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[userID] == nil {
		s.data[userID] = make(map[int64]models.FeedbackEntry)
	}
	entry := s.data[userID][titleID]

	if update.PersonalRating != nil {
		entry.PersonalRating = update.PersonalRating
	}
	if update.WatchedEpisodeIDs != nil {
		entry.WatchedEpisodeIDs = update.WatchedEpisodeIDs
	}
	if update.ClearLastFeedback {
		entry.LastFeedback = nil
	} else if update.LastFeedback != nil {
		verdict := *update.LastFeedback
		entry.LastFeedback = &verdict
	}

	s.data[userID][titleID] = entry
	if err := s.save(); err != nil {
		return models.FeedbackEntry{}, fmt.Errorf("persist feedback: %w", err)
	}
	return entry, nil
}
