package spotlight

import (
	"strings"

	"cinespot/models"
)

// Score weights. The formula is a deliberately simple linear sum; tweaking
// these changes ranking behavior directly, so they live in one place.
const (
	ratingWeight         = 2.0  // per point of TMDB rating
	noveltyBonus         = 5.0  // title the user has never interacted with
	genreAffinityWeight  = 1.5  // per owned title sharing each genre
	likedBonus           = 15.0 // explicit thumbs up on this exact title
	dislikedPenalty      = 50.0 // explicit thumbs down; suppresses, never removes
	dislikedGenrePenalty = 3.0  // per disliked owned title sharing a genre
	rewatchAffinityBonus = 3.0  // owns a rewatched title in a shared genre
	provenanceBonus      = 6.0  // proposed by an LLM rather than found via expansion
)

// ScoringContext is the per-run snapshot of user signals that the pure Score
// function ranks against. Build it once per aggregation; it never touches
// I/O afterwards.
type ScoringContext struct {
	// GenreHistogram counts how many owned titles carry each genre ID.
	GenreHistogram map[int64]int
	// Feedback is the user's full feedback map, keyed by title ID.
	Feedback map[int64]models.FeedbackEntry
	// DislikedOwnedGenres holds one genre-ID set per owned title the user
	// explicitly disliked.
	DislikedOwnedGenres []map[int64]bool
	// RewatchGenres is the set of genre IDs on owned titles watched more
	// than once.
	RewatchGenres map[int64]bool
	// AISourced holds lower-cased candidate titles that came straight from a
	// suggestion source, for the provenance bonus.
	AISourced map[string]bool
}

// BuildScoringContext derives the scoring signals from a library snapshot
// and feedback map. aiTitles are the raw candidate strings the suggestion
// chain proposed.
func BuildScoringContext(items []models.LibraryItem, fb map[int64]models.FeedbackEntry, aiTitles []string) ScoringContext {
	sctx := ScoringContext{
		GenreHistogram: make(map[int64]int),
		Feedback:       fb,
		RewatchGenres:  make(map[int64]bool),
		AISourced:      make(map[string]bool, len(aiTitles)),
	}

	for _, item := range items {
		disliked := false
		if entry, ok := fb[item.Title.ID]; ok && entry.LastFeedback != nil && !entry.LastFeedback.Liked {
			disliked = true
		}
		var dislikedGenres map[int64]bool
		if disliked {
			dislikedGenres = make(map[int64]bool, len(item.Title.Genres))
		}
		for _, g := range item.Title.Genres {
			sctx.GenreHistogram[g.ID]++
			if item.RewatchCount > 1 {
				sctx.RewatchGenres[g.ID] = true
			}
			if disliked {
				dislikedGenres[g.ID] = true
			}
		}
		if disliked && len(dislikedGenres) > 0 {
			sctx.DislikedOwnedGenres = append(sctx.DislikedOwnedGenres, dislikedGenres)
		}
	}

	for _, title := range aiTitles {
		sctx.AISourced[strings.ToLower(strings.TrimSpace(title))] = true
	}
	return sctx
}

// Score computes the candidate's rank value. Pure: identical inputs always
// produce the identical score.
func Score(t models.Title, sctx ScoringContext) float64 {
	score := t.Rating * ratingWeight

	entry, known := sctx.Feedback[t.ID]
	if !known {
		score += noveltyBonus
	}

	for _, g := range t.Genres {
		score += genreAffinityWeight * float64(sctx.GenreHistogram[g.ID])
	}

	if known && entry.LastFeedback != nil {
		if entry.LastFeedback.Liked {
			score += likedBonus
		} else {
			score -= dislikedPenalty
		}
	}

	for _, dislikedGenres := range sctx.DislikedOwnedGenres {
		for _, g := range t.Genres {
			if dislikedGenres[g.ID] {
				score -= dislikedGenrePenalty
				break
			}
		}
	}

	for _, g := range t.Genres {
		if sctx.RewatchGenres[g.ID] {
			score += rewatchAffinityBonus
			break
		}
	}

	if sctx.AISourced[strings.ToLower(strings.TrimSpace(t.Name))] {
		score += provenanceBonus
	}

	return score
}
