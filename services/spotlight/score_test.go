package spotlight

import (
	"testing"
	"time"

	"cinespot/models"
)

func ratingPtr(v float64) *float64 { return &v }

func verdict(liked bool) *models.FeedbackVerdict {
	return &models.FeedbackVerdict{Liked: liked, Timestamp: time.Now()}
}

func libItem(id int64, name string, genres ...int64) models.LibraryItem {
	t := models.Title{ID: id, Name: name, MediaType: "movie"}
	for _, g := range genres {
		t.Genres = append(t.Genres, models.Genre{ID: g})
	}
	return models.LibraryItem{Title: t, WatchStatus: models.WatchStatusCompleted}
}

func TestScoreNoveltyBonus(t *testing.T) {
	sctx := BuildScoringContext(nil, map[int64]models.FeedbackEntry{
		2: {PersonalRating: ratingPtr(7)},
	}, nil)

	fresh := models.Title{ID: 1, Name: "Fresh", Rating: 7.0}
	known := models.Title{ID: 2, Name: "Known", Rating: 7.0}

	if got, want := Score(fresh, sctx)-Score(known, sctx), noveltyBonus; got != want {
		t.Fatalf("novelty delta = %v, want %v", got, want)
	}
}

func TestScoreLikedAndDisliked(t *testing.T) {
	fb := map[int64]models.FeedbackEntry{
		10: {LastFeedback: verdict(true)},
		11: {LastFeedback: verdict(false)},
	}
	sctx := BuildScoringContext(nil, fb, nil)

	neutral := models.Title{ID: 12, Name: "Neutral", Rating: 6.0}
	liked := models.Title{ID: 10, Name: "Liked", Rating: 6.0}
	disliked := models.Title{ID: 11, Name: "Disliked", Rating: 6.0}

	// Liked and disliked titles lose the novelty bonus but gain/lose their
	// explicit feedback weight.
	if got, want := Score(liked, sctx)-Score(neutral, sctx), likedBonus-noveltyBonus; got != want {
		t.Fatalf("liked delta = %v, want %v", got, want)
	}
	if got, want := Score(neutral, sctx)-Score(disliked, sctx), dislikedPenalty+noveltyBonus; got != want {
		t.Fatalf("disliked delta = %v, want %v", got, want)
	}
}

func TestScoreGenreAffinity(t *testing.T) {
	items := []models.LibraryItem{
		libItem(1, "Owned One", 18),
		libItem(2, "Owned Two", 18),
		libItem(3, "Owned Three", 35),
	}
	sctx := BuildScoringContext(items, nil, nil)

	drama := models.Title{ID: 50, Name: "Drama Pick", Rating: 5.0,
		Genres: []models.Genre{{ID: 18}}}
	comedy := models.Title{ID: 51, Name: "Comedy Pick", Rating: 5.0,
		Genres: []models.Genre{{ID: 35}}}

	// Two owned dramas vs one owned comedy.
	if got, want := Score(drama, sctx)-Score(comedy, sctx), genreAffinityWeight; got != want {
		t.Fatalf("genre affinity delta = %v, want %v", got, want)
	}
}

func TestScoreDislikedGenrePenaltyOncePerOwnedTitle(t *testing.T) {
	items := []models.LibraryItem{
		libItem(1, "Hated One", 27, 53),
		libItem(2, "Hated Two", 27),
	}
	fb := map[int64]models.FeedbackEntry{
		1: {LastFeedback: verdict(false)},
		2: {LastFeedback: verdict(false)},
	}
	sctx := BuildScoringContext(items, fb, nil)

	// Shares two genres with the first disliked title and one with the
	// second: penalty counts once per disliked owned title, not per genre.
	horror := models.Title{ID: 60, Name: "Horror Pick",
		Genres: []models.Genre{{ID: 27}, {ID: 53}}}
	clean := models.Title{ID: 61, Name: "Clean Pick"}

	genreAffinity := genreAffinityWeight * (2 + 1) // histogram contributions
	got := Score(horror, sctx) - Score(clean, sctx)
	want := genreAffinity - 2*dislikedGenrePenalty
	if got != want {
		t.Fatalf("disliked genre delta = %v, want %v", got, want)
	}
}

func TestScoreRewatchAffinityOrdering(t *testing.T) {
	rewatched := libItem(1, "Comfort Show", 10765)
	rewatched.RewatchCount = 3
	items := []models.LibraryItem{rewatched}
	sctx := BuildScoringContext(items, nil, nil)

	inGenre := models.Title{ID: 70, Name: "Same Genre", Rating: 7.0,
		Genres: []models.Genre{{ID: 10765}}}
	offGenre := models.Title{ID: 71, Name: "Other Genre", Rating: 7.0,
		Genres: []models.Genre{{ID: 99}}}

	if Score(inGenre, sctx) <= Score(offGenre, sctx) {
		t.Fatalf("rewatch-genre candidate should outrank: %v <= %v",
			Score(inGenre, sctx), Score(offGenre, sctx))
	}
	if got, want := Score(inGenre, sctx)-Score(offGenre, sctx), genreAffinityWeight+rewatchAffinityBonus; got != want {
		t.Fatalf("rewatch delta = %v, want %v", got, want)
	}
}

func TestScoreProvenanceBonus(t *testing.T) {
	sctx := BuildScoringContext(nil, nil, []string{"  The Prestige "})

	ai := models.Title{ID: 80, Name: "The Prestige", Rating: 8.0}
	expanded := models.Title{ID: 81, Name: "The Illusionist", Rating: 8.0}

	if got, want := Score(ai, sctx)-Score(expanded, sctx), provenanceBonus; got != want {
		t.Fatalf("provenance delta = %v, want %v", got, want)
	}
}
