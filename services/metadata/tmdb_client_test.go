package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := map[string]string{
		"":      "en-US",
		"en":    "en-US",
		"en_US": "en-US",
		"pt-br": "pt-BR",
		"fr-FR": "fr-FR",
		"es":    "es-US",
	}
	for input, expect := range tests {
		assert.Equal(t, expect, normalizeLanguage(input), "input %q", input)
	}
}

func TestBuildImageURL(t *testing.T) {
	assert.Empty(t, buildImageURL("", tmdbPosterSize))
	assert.Equal(t, "https://image.tmdb.org/t/p/w780/poster.png", buildImageURL("/poster.png", tmdbPosterSize))
}

func TestNormalizeItemPrefersMovieFields(t *testing.T) {
	item := tmdbItem{
		ID:          603,
		Title:       "The Matrix",
		MediaType:   "movie",
		ReleaseDate: "1999-03-31",
		VoteAverage: 8.2,
		GenreIDs:    []int64{28, 878, 28},
	}
	got := normalizeItem(item, "movie", map[int64]string{28: "Action", 878: "Science Fiction"})

	assert.Equal(t, "The Matrix", got.Name)
	assert.Equal(t, "movie", got.MediaType)
	assert.Equal(t, "1999-03-31", got.ReleaseDate)
	// Duplicate genre ID 28 must be dropped, order preserved.
	if assert.Len(t, got.Genres, 2) {
		assert.Equal(t, "Action", got.Genres[0].Name)
		assert.Equal(t, "Science Fiction", got.Genres[1].Name)
	}
}

func TestNormalizeItemTVFallbacks(t *testing.T) {
	item := tmdbItem{
		ID:           1396,
		Name:         "Breaking Bad",
		FirstAirDate: "2008-01-20",
		VoteAverage:  12, // out of range, must clamp
	}
	got := normalizeItem(item, "tv", nil)

	assert.Equal(t, "Breaking Bad", got.Name)
	assert.Equal(t, "tv", got.MediaType)
	assert.Equal(t, "2008-01-20", got.ReleaseDate)
	assert.Equal(t, 10.0, got.Rating)
}

func TestNormalizeItemMergesFullGenres(t *testing.T) {
	item := tmdbItem{
		ID:     1,
		Title:  "X",
		Genres: []tmdbGenre{{ID: 18, Name: "Drama"}},
	}
	got := normalizeItem(item, "movie", nil)
	if assert.Len(t, got.Genres, 1) {
		assert.Equal(t, int64(18), got.Genres[0].ID)
		assert.Equal(t, "Drama", got.Genres[0].Name)
	}
}
