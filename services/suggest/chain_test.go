package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"cinespot/models"
)

type stubSource struct {
	name   string
	out    models.SuggestionOutput
	err    error
	called *bool
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Suggest(ctx context.Context, sctx *Context) (models.SuggestionOutput, error) {
	if s.called != nil {
		*s.called = true
	}
	return s.out, s.err
}

func TestChainFirstNonEmptyWins(t *testing.T) {
	var secondCalled bool
	first := &stubSource{name: "first", out: models.SuggestionOutput{TopPicks: []string{"Dune"}}}
	second := &stubSource{name: "second", called: &secondCalled, out: models.SuggestionOutput{TopPicks: []string{"Tenet"}}}

	chain := NewChain(0, first, second)
	out := chain.Suggest(context.Background(), &Context{})

	if len(out.TopPicks) != 1 || out.TopPicks[0] != "Dune" {
		t.Fatalf("expected first source output, got %+v", out)
	}
	if secondCalled {
		t.Fatalf("second source must not run when the first produced titles")
	}
}

func TestChainNonEmptyTopPicksStopsChainDespiteEmptyCarousels(t *testing.T) {
	var secondCalled bool
	first := &stubSource{name: "first", out: models.SuggestionOutput{
		TopPicks:  []string{"Heat"},
		Carousels: []models.SuggestionCarousel{{Title: "Empty", Recommendations: nil}},
	}}
	second := &stubSource{name: "second", called: &secondCalled}

	chain := NewChain(0, first, second)
	out := chain.Suggest(context.Background(), &Context{})

	if len(out.TopPicks) != 1 {
		t.Fatalf("expected first source output, got %+v", out)
	}
	if secondCalled {
		t.Fatalf("partial output must not trigger the next branch")
	}
}

func TestChainSkipsFailingAndEmptySources(t *testing.T) {
	failing := &stubSource{name: "failing", err: errors.New("503 service unavailable")}
	empty := &stubSource{name: "empty"}
	winning := &stubSource{name: "winning", out: models.SuggestionOutput{
		Carousels: []models.SuggestionCarousel{{Title: "Because you watched Alien", Recommendations: []string{"Aliens"}}},
	}}

	chain := NewChain(time.Second, failing, empty, winning)
	out := chain.Suggest(context.Background(), &Context{})

	if out.IsEmpty() {
		t.Fatalf("expected winning source output, got empty")
	}
	if out.Carousels[0].Title != "Because you watched Alien" {
		t.Fatalf("unexpected carousel: %+v", out.Carousels)
	}
}

func TestChainAllEmptyReturnsZeroValue(t *testing.T) {
	chain := NewChain(0, &stubSource{name: "a", err: errors.New("down")}, &stubSource{name: "b"})
	out := chain.Suggest(context.Background(), &Context{})
	if !out.IsEmpty() {
		t.Fatalf("expected empty output, got %+v", out)
	}
}

func TestLocalSourceExpandsCorpus(t *testing.T) {
	src := NewLocalSource()
	sctx := &Context{
		Corpus: func(ctx context.Context) ([]string, error) {
			return []string{"Prison Break", "The Office", "Oz", "Peaky Blinders"}, nil
		},
		Seed: "prison drama",
	}

	out, err := src.Suggest(context.Background(), sctx)
	if err != nil {
		t.Fatalf("local source returned error: %v", err)
	}
	if len(out.TopPicks) == 0 {
		t.Fatalf("expected topPicks from local expansion")
	}
	if len(out.TopPicks) > localExpandTopK {
		t.Fatalf("expected at most %d picks, got %d", localExpandTopK, len(out.TopPicks))
	}
	if out.TopPicks[0] != "Prison Break" {
		t.Fatalf("expected the prison title first, got %q", out.TopPicks[0])
	}
}

func TestLocalSourceEmptyCorpus(t *testing.T) {
	src := NewLocalSource()
	sctx := &Context{Corpus: func(ctx context.Context) ([]string, error) { return nil, nil }}

	out, err := src.Suggest(context.Background(), sctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsEmpty() {
		t.Fatalf("expected empty output for empty corpus")
	}
}

func TestLocalSourceDefaultSeed(t *testing.T) {
	src := NewLocalSource()
	sctx := &Context{
		Corpus: func(ctx context.Context) ([]string, error) {
			return []string{"Popular Movies Tonight", "Obscure Short"}, nil
		},
	}

	out, err := src.Suggest(context.Background(), sctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.TopPicks) != 2 {
		t.Fatalf("expected the whole corpus back, got %v", out.TopPicks)
	}
	if out.TopPicks[0] != "Popular Movies Tonight" {
		t.Fatalf("default seed should rank the popular title first, got %q", out.TopPicks[0])
	}
}

func TestChainFallsThroughToLocal(t *testing.T) {
	failing := &stubSource{name: "openai", err: errors.New("status 503")}
	disabled := &stubSource{name: "gemini", err: errors.New("gemini flow disabled")}

	chain := NewChain(time.Second, failing, disabled, NewLocalSource())
	out := chain.Suggest(context.Background(), &Context{
		Corpus: func(ctx context.Context) ([]string, error) {
			return []string{"Trending One", "Trending Two", "Top Rated Three"}, nil
		},
		Seed: "trending",
	})

	if len(out.TopPicks) == 0 {
		t.Fatalf("local branch must populate topPicks when both LLM sources fail")
	}
}
