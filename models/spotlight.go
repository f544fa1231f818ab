package models

// SuggestionInput summarizes a user's recent activity for the title
// suggestion endpoints. The title lists are comma-joined strings because
// that is what the LLM prompts consume; CollectedTitles is passed through
// as an exclusion hint only and is not enforced by the sources themselves.
type SuggestionInput struct {
	WatchedTitles   string   `json:"watchedTitles"`
	AddedTitles     string   `json:"addedTitles"`
	LikedTitles     string   `json:"likedTitles"`
	CollectedTitles []string `json:"collectedTitles"`
}

// SuggestionCarousel is one labeled group of unresolved candidate titles
// proposed by a suggestion source.
type SuggestionCarousel struct {
	Title           string   `json:"title"`
	Recommendations []string `json:"recommendations"`
}

// SuggestionOutput is the raw result of a suggestion source: bare title
// strings, not yet resolved against the metadata catalog.
type SuggestionOutput struct {
	TopPicks  []string             `json:"topPicks"`
	Carousels []SuggestionCarousel `json:"carousels"`
}

// IsEmpty reports whether the output carries no usable titles at all.
func (o SuggestionOutput) IsEmpty() bool {
	if len(o.TopPicks) > 0 {
		return false
	}
	for _, c := range o.Carousels {
		if len(c.Recommendations) > 0 {
			return false
		}
	}
	return true
}

// Carousel is a labeled, capped, ordered list of resolved recommendations.
type Carousel struct {
	Label string  `json:"title"`
	Items []Title `json:"recommendations"`
}

// SpotlightResult is the final personalized recommendation payload: the
// distinguished top-picks list plus themed carousels. No owned title appears
// anywhere in it, no title appears both in TopPicks and in a carousel, and
// carousel labels are unique case-insensitively.
type SpotlightResult struct {
	TopPicks  []Title    `json:"topPicks"`
	Carousels []Carousel `json:"carousels"`
}
