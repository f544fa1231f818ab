package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cinespot/models"
	"cinespot/services/metadata"

	"github.com/gorilla/mux"
)

type fakeCatalog struct {
	search  []models.Title
	similar []models.Title
	err     error
}

func (f *fakeCatalog) Search(context.Context, string, int) ([]models.Title, error) {
	return f.search, f.err
}

func (f *fakeCatalog) Details(context.Context, string, int64) (*models.Title, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.search) == 0 {
		return nil, metadata.ErrTitleNotFound
	}
	return &f.search[0], nil
}

func (f *fakeCatalog) Similar(context.Context, string, int64) ([]models.Title, error) {
	return f.similar, f.err
}

func (f *fakeCatalog) Trending(context.Context) ([]models.Title, error) { return f.search, f.err }
func (f *fakeCatalog) TopRated(context.Context) ([]models.Title, error) { return f.search, f.err }
func (f *fakeCatalog) Upcoming(context.Context) ([]models.Title, error) { return f.search, f.err }

func metadataRouter(h *MetadataHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/metadata/search", h.Search).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/trending", h.Trending).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/{mediaType}/{id}/similar", h.Similar).Methods(http.MethodGet)
	r.HandleFunc("/api/metadata/{mediaType}/{id}", h.Details).Methods(http.MethodGet)
	return r
}

func TestMetadataSearch(t *testing.T) {
	h := NewMetadataHandler(&fakeCatalog{search: []models.Title{{ID: 1, Name: "Heat"}}})
	r := metadataRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/metadata/search?q=heat", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var titles []models.Title
	if err := json.Unmarshal(rec.Body.Bytes(), &titles); err != nil {
		t.Fatal(err)
	}
	if len(titles) != 1 || titles[0].Name != "Heat" {
		t.Fatalf("unexpected result: %+v", titles)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/metadata/search", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing q: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/metadata/search?q=heat&limit=bogus", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: status = %d", rec.Code)
	}
}

func TestMetadataErrors(t *testing.T) {
	h := NewMetadataHandler(&fakeCatalog{err: metadata.ErrNotConfigured})
	r := metadataRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/metadata/trending", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("not configured: status = %d", rec.Code)
	}

	h = NewMetadataHandler(&fakeCatalog{})
	r = metadataRouter(h)
	req = httptest.NewRequest(http.MethodGet, "/api/metadata/movie/603", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("details miss: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/metadata/movie/603/similar", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("similar: status = %d", rec.Code)
	}
}
