package suggest

import (
	"context"
	"errors"
	"strings"

	"cinespot/models"
	"cinespot/services/similarity"
)

// localExpandTopK is how many corpus titles the local branch promotes into
// topPicks when both LLM sources come up empty.
const localExpandTopK = 12

// fallbackSeed is used when the user has no watched or liked title to seed
// the expansion with.
const fallbackSeed = "popular movies"

// LocalSource is the last stop of the chain: a TF-IDF expansion over the
// generic popularity corpus, seeded by the user's most recent genuine
// watched or liked title. No network, no API keys, always answers as long as
// the corpus is non-empty.
type LocalSource struct{}

func NewLocalSource() *LocalSource { return &LocalSource{} }

func (s *LocalSource) Name() string { return "local-tfidf" }

func (s *LocalSource) Suggest(ctx context.Context, sctx *Context) (models.SuggestionOutput, error) {
	if sctx.Corpus == nil {
		return models.SuggestionOutput{}, errors.New("no corpus provider")
	}
	corpus, err := sctx.Corpus(ctx)
	if err != nil {
		return models.SuggestionOutput{}, err
	}
	if len(corpus) == 0 {
		return models.SuggestionOutput{}, nil
	}

	seed := strings.TrimSpace(sctx.Seed)
	if seed == "" {
		seed = fallbackSeed
	}

	expanded := similarity.ExpandByTFIDF(corpus, seed, localExpandTopK)
	return models.SuggestionOutput{TopPicks: expanded}, nil
}
