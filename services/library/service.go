package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"cinespot/models"
)

var (
	ErrUserIDRequired     = errors.New("user id required")
	ErrTitleIDRequired    = errors.New("title id required")
	ErrStorageDirRequired = errors.New("storage directory not provided")
)

// Service tracks each user's owned titles with JSON-file persistence. An
// in-memory ID index keeps ownership checks constant-time under the
// aggregator's per-candidate filtering.
type Service struct {
	mu    sync.RWMutex
	path  string
	data  map[string][]models.LibraryItem // userID -> items
	index map[string]map[int64]bool       // userID -> owned title IDs
}

// NewService creates the library service. storageDir is where library.json
// lives; when empty the library is memory-only.
func NewService(storageDir string) (*Service, error) {
	svc := &Service{
		data:  make(map[string][]models.LibraryItem),
		index: make(map[string]map[int64]bool),
	}

	if strings.TrimSpace(storageDir) != "" {
		if err := os.MkdirAll(storageDir, 0o755); err != nil {
			return nil, fmt.Errorf("create library dir: %w", err)
		}
		svc.path = filepath.Join(storageDir, "library.json")
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
		return fmt.Errorf("read library: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return fmt.Errorf("parse library: %w", err)
	}
	for userID, items := range s.data {
		ids := make(map[int64]bool, len(items))
		for _, item := range items {
			ids[item.Title.ID] = true
		}
		s.index[userID] = ids
	}
	return nil
}

// save writes the full library to disk. Callers must hold the write lock.
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

// List returns the user's library sorted by most recently added first.
func (s *Service) List(userID string) []models.LibraryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.LibraryItem, len(s.data[userID]))
	copy(items, s.data[userID])
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AddedAt.After(items[j].AddedAt)
	})
	return items
}

// Titles returns just the owned title records, most recent first.
func (s *Service) Titles(userID string) []models.Title {
	items := s.List(userID)
	titles := make([]models.Title, len(items))
	for i, item := range items {
		titles[i] = item.Title
	}
	return titles
}

// Add inserts the title or updates its status if it is already owned.
func (s *Service) Add(userID string, input models.LibraryUpsert) (models.LibraryItem, error) {
	if strings.TrimSpace(userID) == "" {
		return models.LibraryItem{}, ErrUserIDRequired
	}
	if input.Title.ID <= 0 {
		return models.LibraryItem{}, ErrTitleIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := models.LibraryItem{
		Title:        input.Title,
		WatchStatus:  input.WatchStatus,
		RewatchCount: input.RewatchCount,
		AddedAt:      time.Now().UTC(),
	}
	if item.WatchStatus == "" {
		item.WatchStatus = models.WatchStatusPlanToWatch
	}

	items := s.data[userID]
	replaced := false
	for i, existing := range items {
		if existing.Title.ID == input.Title.ID {
			item.AddedAt = existing.AddedAt
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}
	s.data[userID] = items
	if s.index[userID] == nil {
		s.index[userID] = make(map[int64]bool)
	}
	s.index[userID][item.Title.ID] = true

	if err := s.save(); err != nil {
		return models.LibraryItem{}, fmt.Errorf("persist library: %w", err)
	}
	return item, nil
}

// Remove deletes the title from the user's library. Returns false when the
// title was not owned.
func (s *Service) Remove(userID string, titleID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.data[userID]
	for i, existing := range items {
		if existing.Title.ID == titleID {
			s.data[userID] = append(items[:i], items[i+1:]...)
			delete(s.index[userID], titleID)
			if err := s.save(); err != nil {
				return false, fmt.Errorf("persist library: %w", err)
			}
			return true, nil
		}
	}
	return false, nil
}

// Contains reports whether the user owns the title.
func (s *Service) Contains(userID string, titleID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index[userID][titleID]
}
