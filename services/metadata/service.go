package metadata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cinespot/models"
)

var (
	// ErrTitleNotFound is returned when a search yields no usable result.
	ErrTitleNotFound = errors.New("title not found")
	// ErrNotConfigured is returned when no TMDB API key is set.
	ErrNotConfigured = errTMDBNotConfigured
)

// Service resolves titles against TMDB with a disk cache in front of every
// endpoint. All methods are safe for concurrent use; callers are expected to
// treat any error as "this lookup contributes nothing".
type Service struct {
	tmdb  *tmdbClient
	cache *fileCache

	genreMu    sync.Mutex
	genreNames map[int64]string
	genresAt   time.Time
}

// NewService creates the metadata service. cacheDir receives a dedicated
// subdirectory so cached responses do not collide with other on-disk state.
func NewService(tmdbAPIKey, language, cacheDir string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		tmdb:  newTMDBClient(tmdbAPIKey, language, &http.Client{Timeout: 15 * time.Second}),
		cache: newFileCache(filepath.Join(cacheDir, "metadata"), ttl),
	}
}

// genreMap returns the cached TMDB genre table, refreshing it daily.
// Failures degrade to an empty map; genre names are cosmetic for scoring.
func (s *Service) genreMap(ctx context.Context) map[int64]string {
	s.genreMu.Lock()
	defer s.genreMu.Unlock()
	if s.genreNames != nil && time.Since(s.genresAt) < 24*time.Hour {
		return s.genreNames
	}

	var cached map[int64]string
	if ok, _ := s.cache.get(cacheKey("tmdb", "genres"), &cached); ok {
		s.genreNames = cached
		s.genresAt = time.Now()
		return s.genreNames
	}

	names, err := s.tmdb.fetchGenreMap(ctx)
	if err != nil {
		log.Printf("[metadata] genre map fetch failed: %v", err)
		return map[int64]string{}
	}
	if err := s.cache.set(cacheKey("tmdb", "genres"), names); err != nil {
		log.Printf("[metadata] failed to cache genre map: %v", err)
	}
	s.genreNames = names
	s.genresAt = time.Now()
	return names
}

// Search runs a text search and returns up to limit titles (all when
// limit <= 0).
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.Title, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query required")
	}

	key := cacheKey("tmdb", "search", strings.ToLower(query))
	var titles []models.Title
	if ok, _ := s.cache.get(key, &titles); !ok {
		var err error
		titles, err = s.tmdb.fetchSearch(ctx, query, s.genreMap(ctx))
		if err != nil {
			return nil, err
		}
		if err := s.cache.set(key, titles); err != nil {
			log.Printf("[metadata] failed to cache search results: %v", err)
		}
	}

	if limit > 0 && len(titles) > limit {
		titles = titles[:limit]
	}
	return titles, nil
}

// Resolve maps a bare candidate title string to its best catalog match.
// Suggestion sources hallucinate now and then, so a miss is a normal
// outcome, reported as ErrTitleNotFound.
func (s *Service) Resolve(ctx context.Context, title string) (*models.Title, error) {
	results, err := s.Search(ctx, title, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrTitleNotFound
	}
	t := results[0]
	return &t, nil
}

// Details fetches the full record for one title.
func (s *Service) Details(ctx context.Context, mediaType string, id int64) (*models.Title, error) {
	mediaType = normalizeMediaType(mediaType)
	if id <= 0 {
		return nil, fmt.Errorf("title id required")
	}

	key := cacheKey("tmdb", "details", mediaType, fmt.Sprintf("%d", id))
	var title models.Title
	if ok, _ := s.cache.get(key, &title); ok {
		return &title, nil
	}

	got, err := s.tmdb.fetchDetails(ctx, mediaType, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.set(key, got); err != nil {
		log.Printf("[metadata] failed to cache details: %v", err)
	}
	return got, nil
}

// Similar returns titles related to the given one.
func (s *Service) Similar(ctx context.Context, mediaType string, id int64) ([]models.Title, error) {
	mediaType = normalizeMediaType(mediaType)
	if id <= 0 {
		return nil, fmt.Errorf("title id required")
	}

	key := cacheKey("tmdb", "similar", mediaType, fmt.Sprintf("%d", id))
	var titles []models.Title
	if ok, _ := s.cache.get(key, &titles); ok {
		log.Printf("[metadata] similar cache hit type=%s id=%d count=%d", mediaType, id, len(titles))
		return titles, nil
	}

	titles, err := s.tmdb.fetchSimilar(ctx, mediaType, id, s.genreMap(ctx))
	if err != nil {
		log.Printf("[metadata] similar fetch failed type=%s id=%d: %v", mediaType, id, err)
		return nil, err
	}
	if err := s.cache.set(key, titles); err != nil {
		log.Printf("[metadata] failed to cache similar results: %v", err)
	}
	return titles, nil
}

// Trending returns this week's trending movies and shows.
func (s *Service) Trending(ctx context.Context) ([]models.Title, error) {
	return s.cachedList(ctx, "trending", func(ctx context.Context) ([]models.Title, error) {
		return s.tmdb.fetchTrending(ctx, s.genreMap(ctx))
	})
}

// TopRated returns the all-time top rated movies.
func (s *Service) TopRated(ctx context.Context) ([]models.Title, error) {
	return s.cachedList(ctx, "top_rated", func(ctx context.Context) ([]models.Title, error) {
		return s.tmdb.fetchMovieList(ctx, "/movie/top_rated", s.genreMap(ctx))
	})
}

// Upcoming returns movies releasing soon.
func (s *Service) Upcoming(ctx context.Context) ([]models.Title, error) {
	return s.cachedList(ctx, "upcoming", func(ctx context.Context) ([]models.Title, error) {
		return s.tmdb.fetchMovieList(ctx, "/movie/upcoming", s.genreMap(ctx))
	})
}

func (s *Service) cachedList(ctx context.Context, name string, fetch func(context.Context) ([]models.Title, error)) ([]models.Title, error) {
	key := cacheKey("tmdb", "list", name)
	var titles []models.Title
	if ok, _ := s.cache.get(key, &titles); ok {
		return titles, nil
	}
	titles, err := fetch(ctx)
	if err != nil {
		log.Printf("[metadata] %s fetch failed: %v", name, err)
		return nil, err
	}
	if err := s.cache.set(key, titles); err != nil {
		log.Printf("[metadata] failed to cache %s list: %v", name, err)
	}
	return titles, nil
}

func normalizeMediaType(mediaType string) string {
	if strings.ToLower(strings.TrimSpace(mediaType)) == "tv" {
		return "tv"
	}
	return "movie"
}
