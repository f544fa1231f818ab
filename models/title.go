package models

// Genre is a single genre tag as reported by TMDB.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Title is the normalized representation of a movie or TV title. It is
// created by the metadata service on lookup and treated as an immutable
// value from then on.
type Title struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	MediaType   string  `json:"mediaType"` // "movie" or "tv"
	Genres      []Genre `json:"genres,omitempty"`
	Rating      float64 `json:"rating"` // TMDB vote average, 0-10
	ReleaseDate string  `json:"releaseDate,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	PosterURL   string  `json:"posterUrl,omitempty"`
	BackdropURL string  `json:"backdropUrl,omitempty"`
	Runtime     int     `json:"runtime,omitempty"`
}

// HasGenre reports whether the title carries the given genre ID.
func (t Title) HasGenre(genreID int64) bool {
	for _, g := range t.Genres {
		if g.ID == genreID {
			return true
		}
	}
	return false
}
