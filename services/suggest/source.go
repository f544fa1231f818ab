package suggest

import (
	"context"
	"log"
	"time"

	"cinespot/models"
)

// Context carries everything a suggestion source may need for one run. The
// LLM-backed sources consume Input; the local expansion source consumes
// Corpus and Seed. Corpus is a lazy provider because the popularity corpus is
// fetched concurrently with the chain and is only awaited if the local branch
// actually runs.
type Context struct {
	Input  models.SuggestionInput
	Corpus func(ctx context.Context) ([]string, error)
	Seed   string
}

// Source is one suggestion strategy. Implementations return an error (or an
// empty output) when they cannot contribute; they never panic the chain.
type Source interface {
	Name() string
	Suggest(ctx context.Context, sctx *Context) (models.SuggestionOutput, error)
}

// Chain tries its sources in priority order and returns the first non-empty
// output. There is no merging across sources: once a source yields any
// usable title, the rest are skipped even if parts of its output are empty.
type Chain struct {
	sources []Source
	timeout time.Duration
}

// NewChain builds a chain over the given sources. timeout bounds each
// source individually; zero disables the per-source bound.
func NewChain(timeout time.Duration, sources ...Source) *Chain {
	return &Chain{sources: sources, timeout: timeout}
}

// Suggest walks the chain. A source failure is logged and treated as an
// empty result; a chain where every source comes up empty returns the zero
// output, which the aggregator handles downstream.
func (c *Chain) Suggest(ctx context.Context, sctx *Context) models.SuggestionOutput {
	for _, src := range c.sources {
		srcCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			srcCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		out, err := src.Suggest(srcCtx, sctx)
		if err != nil {
			log.Printf("[suggest] source %s failed: %v", src.Name(), err)
			continue
		}
		if out.IsEmpty() {
			log.Printf("[suggest] source %s returned no titles", src.Name())
			continue
		}
		log.Printf("[suggest] using source %s (topPicks=%d carousels=%d)", src.Name(), len(out.TopPicks), len(out.Carousels))
		return out
	}
	return models.SuggestionOutput{}
}
