package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"cinespot/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	tmdbPosterSize   = "w780"
	tmdbBackdropSize = "w1280"
)

// Minimal TMDB v3 client (search, details, recommendations and the list
// endpoints the spotlight pipeline needs).

type tmdbClient struct {
	apiKey   string
	language string
	baseURL  string
	httpc    *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		language:    normalizeLanguage(language),
		baseURL:     tmdbBaseURL,
		httpc:       httpc,
		minInterval: 20 * time.Millisecond,
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c.apiKey != ""
}

// normalizeLanguage maps bare 2-letter codes to TMDB's language-region form.
func normalizeLanguage(lang string) string {
	lang = strings.TrimSpace(strings.ReplaceAll(lang, "_", "-"))
	if lang == "" {
		return "en-US"
	}
	parts := strings.SplitN(lang, "-", 2)
	base := strings.ToLower(parts[0])
	if len(parts) == 2 {
		return base + "-" + strings.ToUpper(parts[1])
	}
	return base + "-US"
}

var errTMDBNotConfigured = errors.New("tmdb api key not configured")

// get performs a GET against the TMDB API with retries on transient errors.
func (c *tmdbClient) get(ctx context.Context, path string, params url.Values, v any) error {
	if !c.isConfigured() {
		return errTMDBNotConfigured
	}

	// Throttle so bursts of parallel lookups stay under TMDB's rate limits.
	c.throttleMu.Lock()
	since := time.Since(c.lastRequest)
	if since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
	c.throttleMu.Unlock()

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	endpoint := c.baseURL + path + "?" + params.Encode()

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				io.Copy(io.Discard, resp.Body)
				return fmt.Errorf("tmdb %s: status %d", path, resp.StatusCode)
			}
			if resp.StatusCode >= 400 {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				return retry.Unrecoverable(fmt.Errorf("tmdb %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body))))
			}
			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode tmdb %s: %w", path, err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

type tmdbGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type tmdbItem struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Name         string      `json:"name"`
	MediaType    string      `json:"media_type"`
	Overview     string      `json:"overview"`
	PosterPath   string      `json:"poster_path"`
	BackdropPath string      `json:"backdrop_path"`
	ReleaseDate  string      `json:"release_date"`
	FirstAirDate string      `json:"first_air_date"`
	VoteAverage  float64     `json:"vote_average"`
	Runtime      int         `json:"runtime"`
	GenreIDs     []int64     `json:"genre_ids"`
	Genres       []tmdbGenre `json:"genres"`
}

type tmdbListResponse struct {
	Results []tmdbItem `json:"results"`
}

type tmdbGenreListResponse struct {
	Genres []tmdbGenre `json:"genres"`
}

// normalizeItem converts a raw TMDB payload into a models.Title. List
// endpoints only carry genre IDs, so the id-to-name map fills in names when
// the full genre objects are absent. Duplicate genre IDs are dropped,
// preserving first occurrence order.
func normalizeItem(item tmdbItem, mediaType string, genreNames map[int64]string) models.Title {
	name := item.Title
	if name == "" {
		name = item.Name
	}
	release := item.ReleaseDate
	if release == "" {
		release = item.FirstAirDate
	}
	mt := item.MediaType
	if mt == "" {
		mt = mediaType
	}

	var genres []models.Genre
	seen := make(map[int64]bool)
	for _, g := range item.Genres {
		if g.ID == 0 || seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		genres = append(genres, models.Genre{ID: g.ID, Name: g.Name})
	}
	for _, id := range item.GenreIDs {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		genres = append(genres, models.Genre{ID: id, Name: genreNames[id]})
	}

	rating := item.VoteAverage
	if rating < 0 {
		rating = 0
	}
	if rating > 10 {
		rating = 10
	}

	return models.Title{
		ID:          item.ID,
		Name:        name,
		MediaType:   mt,
		Genres:      genres,
		Rating:      rating,
		ReleaseDate: release,
		Overview:    item.Overview,
		PosterURL:   buildImageURL(item.PosterPath, tmdbPosterSize),
		BackdropURL: buildImageURL(item.BackdropPath, tmdbBackdropSize),
		Runtime:     item.Runtime,
	}
}

func buildImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return tmdbImageBaseURL + "/" + size + path
}

// fetchSearch runs a multi-search and keeps movie/tv results that have a
// poster, mirroring what the catalog considers a presentable title.
func (c *tmdbClient) fetchSearch(ctx context.Context, query string, genreNames map[int64]string) ([]models.Title, error) {
	var resp tmdbListResponse
	if err := c.get(ctx, "/search/multi", url.Values{"query": {query}}, &resp); err != nil {
		return nil, err
	}
	var out []models.Title
	for _, item := range resp.Results {
		if item.MediaType != "movie" && item.MediaType != "tv" {
			continue
		}
		if item.PosterPath == "" {
			continue
		}
		out = append(out, normalizeItem(item, item.MediaType, genreNames))
	}
	return out, nil
}

func (c *tmdbClient) fetchDetails(ctx context.Context, mediaType string, id int64) (*models.Title, error) {
	var item tmdbItem
	if err := c.get(ctx, fmt.Sprintf("/%s/%d", mediaType, id), nil, &item); err != nil {
		return nil, err
	}
	title := normalizeItem(item, mediaType, nil)
	return &title, nil
}

// fetchSimilar returns TMDB's recommendations for a title. The
// recommendations endpoint gives noticeably better results than /similar.
func (c *tmdbClient) fetchSimilar(ctx context.Context, mediaType string, id int64, genreNames map[int64]string) ([]models.Title, error) {
	var resp tmdbListResponse
	if err := c.get(ctx, fmt.Sprintf("/%s/%d/recommendations", mediaType, id), nil, &resp); err != nil {
		return nil, err
	}
	var out []models.Title
	for _, item := range resp.Results {
		mt := item.MediaType
		if mt == "" {
			mt = mediaType
		}
		if mt != "movie" && mt != "tv" {
			continue
		}
		out = append(out, normalizeItem(item, mt, genreNames))
	}
	return out, nil
}

func (c *tmdbClient) fetchTrending(ctx context.Context, genreNames map[int64]string) ([]models.Title, error) {
	var resp tmdbListResponse
	if err := c.get(ctx, "/trending/all/week", nil, &resp); err != nil {
		return nil, err
	}
	var out []models.Title
	for _, item := range resp.Results {
		if item.MediaType != "movie" && item.MediaType != "tv" {
			continue
		}
		if item.PosterPath == "" {
			continue
		}
		out = append(out, normalizeItem(item, item.MediaType, genreNames))
	}
	return out, nil
}

func (c *tmdbClient) fetchMovieList(ctx context.Context, path string, genreNames map[int64]string) ([]models.Title, error) {
	var resp tmdbListResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Title, 0, len(resp.Results))
	for _, item := range resp.Results {
		out = append(out, normalizeItem(item, "movie", genreNames))
	}
	return out, nil
}

// fetchGenreMap loads the movie and TV genre id-to-name tables.
func (c *tmdbClient) fetchGenreMap(ctx context.Context) (map[int64]string, error) {
	names := make(map[int64]string)
	for _, path := range []string{"/genre/movie/list", "/genre/tv/list"} {
		var resp tmdbGenreListResponse
		if err := c.get(ctx, path, nil, &resp); err != nil {
			return nil, err
		}
		for _, g := range resp.Genres {
			if _, ok := names[g.ID]; !ok {
				names[g.ID] = g.Name
			}
		}
	}
	return names, nil
}
