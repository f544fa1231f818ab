package spotlight

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"

	"cinespot/models"
	"cinespot/services/suggest"
)

// ErrAllSourcesFailed reports that nothing could be produced at all: every
// external feed failed and the suggestion chain came up empty. Callers
// should prefer a stale cache entry over a blank screen.
var ErrAllSourcesFailed = errors.New("all recommendation sources failed")

const (
	maxTopPicks        = 6
	maxCarouselItems   = 5
	maxTrendingItems   = 6
	maxActivityTitles  = 5
	maxPoolSeeds       = 3
	resolveConcurrency = 8

	trendingLabel = "Trending Now"
)

// metadataService is the resolver boundary the aggregator depends on. Every
// method may fail; a failure means "contributes nothing".
type metadataService interface {
	Resolve(ctx context.Context, title string) (*models.Title, error)
	Similar(ctx context.Context, mediaType string, id int64) ([]models.Title, error)
	Trending(ctx context.Context) ([]models.Title, error)
	TopRated(ctx context.Context) ([]models.Title, error)
	Upcoming(ctx context.Context) ([]models.Title, error)
}

type libraryService interface {
	List(userID string) []models.LibraryItem
	Contains(userID string, titleID int64) bool
}

type feedbackService interface {
	All(userID string) map[int64]models.FeedbackEntry
}

type suggester interface {
	Suggest(ctx context.Context, sctx *suggest.Context) models.SuggestionOutput
}

// Service turns the candidate pool from the suggestion chain plus direct
// similar-title lookups into the final deduplicated, personalized spotlight
// payload, with a 30-minute result cache in front.
type Service struct {
	metadata metadataService
	library  libraryService
	feedback feedbackService
	chain    suggester
	cache    *resultCache
}

func NewService(meta metadataService, lib libraryService, fb feedbackService, chain suggester, cacheDir string) *Service {
	return &Service{
		metadata: meta,
		library:  lib,
		feedback: fb,
		chain:    chain,
		cache:    newResultCache(cacheDir, cacheTTL),
	}
}

// Get returns the cached result while fresh, otherwise re-runs the pipeline.
func (s *Service) Get(ctx context.Context, userID string) (models.SpotlightResult, error) {
	if res, ok := s.cache.read(userID); ok {
		return res, nil
	}
	return s.Refresh(ctx, userID)
}

// Refresh always re-runs the aggregation. On total failure it falls back to
// the last persisted result, however stale, and still reports the error so
// the caller can surface a non-blocking notice.
func (s *Service) Refresh(ctx context.Context, userID string) (models.SpotlightResult, error) {
	res, err := s.aggregate(ctx, userID)
	if err != nil {
		log.Printf("[spotlight] aggregation failed for user %s: %v", userID, err)
		if stale, ok := s.cache.readStale(userID); ok {
			return stale, err
		}
		return emptyResult(), err
	}
	s.cache.write(userID, res)
	return res, nil
}

// RemoveRecommendation hides one title from the cached payload without
// re-running aggregation. Used when the user thumbs a recommendation down.
func (s *Service) RemoveRecommendation(userID string, titleID int64) bool {
	return s.cache.invalidateOne(userID, titleID)
}

func emptyResult() models.SpotlightResult {
	return models.SpotlightResult{TopPicks: []models.Title{}, Carousels: []models.Carousel{}}
}

// candidate is an unresolved title string with its provenance.
type candidate struct {
	name   string
	fromAI bool
}

// seedKind distinguishes what a seed title is used for.
type seedKind int

const (
	seedLiked seedKind = iota
	seedAdded
	seedFinished
	seedExtra
)

type seedInfo struct {
	title models.Title
	kind  seedKind
}

func (s *Service) aggregate(ctx context.Context, userID string) (models.SpotlightResult, error) {
	items := s.library.List(userID) // most recently added first
	fb := s.feedback.All(userID)

	input := buildSuggestionInput(items, fb)
	seeds := collectSeeds(items, fb)

	// The three popularity fetches and the suggestion chain have no data
	// dependency on each other and run concurrently. The chain's local
	// branch needs the popularity corpus, so it gets a provider that blocks
	// until the fetches land.
	var (
		trending, topRated, upcoming []models.Title
		trendErr, topErr, upErr      error
	)
	popDone := make(chan struct{})
	popPool := pool.New()
	popPool.Go(func() { trending, trendErr = s.metadata.Trending(ctx) })
	popPool.Go(func() { topRated, topErr = s.metadata.TopRated(ctx) })
	popPool.Go(func() { upcoming, upErr = s.metadata.Upcoming(ctx) })
	go func() {
		popPool.Wait()
		close(popDone)
	}()

	corpus := func(ctx context.Context) ([]string, error) {
		select {
		case <-popDone:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return titleNames(dedupeTitles(trending, topRated, upcoming)), nil
	}

	suggestion := s.chain.Suggest(ctx, &suggest.Context{
		Input:  input,
		Corpus: corpus,
		Seed:   activitySeed(items, fb),
	})
	<-popDone

	if trendErr != nil && topErr != nil && upErr != nil && suggestion.IsEmpty() {
		return models.SpotlightResult{}, ErrAllSourcesFailed
	}

	// Candidate strings, excluding owned titles by name before any network
	// resolution happens.
	ownedNames := make(map[string]bool, len(items))
	for _, item := range items {
		ownedNames[strings.ToLower(item.Title.Name)] = true
	}

	var cands []candidate
	var aiTitles []string
	seenNames := make(map[string]bool)
	addCandidate := func(name string, fromAI bool) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if fromAI {
			aiTitles = append(aiTitles, name)
		}
		key := strings.ToLower(name)
		if seenNames[key] || ownedNames[key] {
			return
		}
		seenNames[key] = true
		cands = append(cands, candidate{name: name, fromAI: fromAI})
	}
	for _, t := range suggestion.TopPicks {
		addCandidate(t, true)
	}
	for _, c := range suggestion.Carousels {
		for _, t := range c.Recommendations {
			addCandidate(t, true)
		}
	}

	// Resolve every candidate concurrently. Results land in a slot per
	// candidate so discovery order stays deterministic no matter which
	// lookup finishes first. Failures just leave their slot nil.
	resolved := make([]*models.Title, len(cands))
	rp := pool.New().WithMaxGoroutines(resolveConcurrency)
	for i := range cands {
		i := i
		rp.Go(func() {
			t, err := s.metadata.Resolve(ctx, cands[i].name)
			if err != nil {
				return
			}
			resolved[i] = t
		})
	}
	rp.Wait()

	// Seed-based similar-title lookups, one per distinct seed, concurrent.
	similarBySeed := make(map[int64][]models.Title, len(seeds))
	var eg errgroup.Group
	var mu sync.Mutex
	for _, sd := range seeds {
		sd := sd
		eg.Go(func() error {
			list, err := s.metadata.Similar(ctx, sd.title.MediaType, sd.title.ID)
			if err != nil {
				return nil
			}
			mu.Lock()
			similarBySeed[sd.title.ID] = list
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	// Fold everything into one pool, deduplicated by ID, owned titles out.
	type pooled struct {
		title  models.Title
		fromAI bool
	}
	var candidatePool []pooled
	seenIDs := make(map[int64]bool)
	addResolved := func(t models.Title, fromAI bool) {
		if t.ID == 0 || seenIDs[t.ID] {
			return
		}
		if s.library.Contains(userID, t.ID) {
			return
		}
		seenIDs[t.ID] = true
		candidatePool = append(candidatePool, pooled{title: t, fromAI: fromAI})
	}
	for i, r := range resolved {
		if r != nil {
			addResolved(*r, cands[i].fromAI)
		}
	}
	poolSeeds := 0
	for _, sd := range seeds {
		if sd.kind == seedFinished {
			continue // carousel-only seed
		}
		if poolSeeds >= maxPoolSeeds {
			break
		}
		poolSeeds++
		for _, t := range similarBySeed[sd.title.ID] {
			addResolved(t, false)
		}
	}

	// Score and pick the top list. Scores are computed once and the sort is
	// stable, so discovery order breaks ties.
	sctx := BuildScoringContext(items, fb, aiTitles)
	scores := make([]float64, len(candidatePool))
	for i, p := range candidatePool {
		scores[i] = Score(p.title, sctx)
	}
	order := make([]int, len(candidatePool))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	topPicks := make([]models.Title, 0, maxTopPicks)
	topPickIDs := make(map[int64]bool, maxTopPicks)
	for _, idx := range order {
		if len(topPicks) == maxTopPicks {
			break
		}
		topPicks = append(topPicks, candidatePool[idx].title)
		topPickIDs[candidatePool[idx].title.ID] = true
	}

	carousels := s.buildCarousels(userID, suggestion, resolved, cands, seeds, similarBySeed, trending, topRated, upcoming, topPickIDs)

	result := models.SpotlightResult{TopPicks: topPicks, Carousels: carousels}
	if len(result.TopPicks) == 0 && len(result.Carousels) == 0 {
		return models.SpotlightResult{}, ErrAllSourcesFailed
	}
	log.Printf("[spotlight] aggregated for user %s: topPicks=%d carousels=%d", userID, len(result.TopPicks), len(result.Carousels))
	return result, nil
}

// buildCarousels assembles the labeled carousels: AI-sourced ones when the
// chain supplied at least one carousel with a resolvable item, deterministic
// ones otherwise, then label dedup, backfill and cleanup.
func (s *Service) buildCarousels(
	userID string,
	suggestion models.SuggestionOutput,
	resolved []*models.Title,
	cands []candidate,
	seeds []seedInfo,
	similarBySeed map[int64][]models.Title,
	trending, topRated, upcoming []models.Title,
	topPickIDs map[int64]bool,
) []models.Carousel {
	// Resolved titles back by candidate name for the AI carousel path.
	byName := make(map[string]*models.Title, len(cands))
	for i, r := range resolved {
		if r != nil {
			byName[strings.ToLower(cands[i].name)] = r
		}
	}

	usable := func(t models.Title) bool {
		return t.ID != 0 && !s.library.Contains(userID, t.ID) && !topPickIDs[t.ID]
	}

	var carousels []models.Carousel

	// AI carousels win over the deterministic set when at least one of them
	// resolves at least one item.
	aiUsable := false
	var aiCarousels []models.Carousel
	for _, sc := range suggestion.Carousels {
		var items []models.Title
		seen := make(map[int64]bool)
		for _, name := range sc.Recommendations {
			t, ok := byName[strings.ToLower(strings.TrimSpace(name))]
			if !ok || !usable(*t) || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			items = append(items, *t)
			if len(items) == maxCarouselItems {
				break
			}
		}
		if len(items) > 0 {
			aiUsable = true
		}
		aiCarousels = append(aiCarousels, models.Carousel{Label: sc.Title, Items: items})
	}

	if aiUsable {
		carousels = aiCarousels
	} else {
		// Trending Now is always attempted.
		var trendingItems []models.Title
		for _, t := range trending {
			if !usable(t) {
				continue
			}
			trendingItems = append(trendingItems, t)
			if len(trendingItems) == maxTrendingItems {
				break
			}
		}
		carousels = append(carousels, models.Carousel{Label: trendingLabel, Items: trendingItems})

		for _, sd := range seeds {
			var label string
			switch sd.kind {
			case seedLiked:
				label = "Because you liked " + sd.title.Name
			case seedAdded:
				label = "Because you added " + sd.title.Name
			case seedFinished:
				label = "Finished Watching: " + sd.title.Name + "?"
			default:
				continue
			}
			var items []models.Title
			seen := make(map[int64]bool)
			for _, t := range similarBySeed[sd.title.ID] {
				if !usable(t) || seen[t.ID] {
					continue
				}
				seen[t.ID] = true
				items = append(items, t)
				if len(items) == maxCarouselItems {
					break
				}
			}
			carousels = append(carousels, models.Carousel{Label: label, Items: items})
		}
	}

	// Label dedup, case-insensitive, first encountered wins.
	deduped := carousels[:0]
	seenLabels := make(map[string]bool, len(carousels))
	for _, c := range carousels {
		key := strings.ToLower(strings.TrimSpace(c.Label))
		if key == "" || seenLabels[key] {
			continue
		}
		seenLabels[key] = true
		deduped = append(deduped, c)
	}
	carousels = deduped

	// Backfill empty carousels from top-rated, then upcoming, then trending,
	// and drop any carousel that is still empty.
	backfill := dedupeTitles(topRated, upcoming, trending)
	final := carousels[:0]
	for _, c := range carousels {
		if len(c.Items) == 0 {
			seen := make(map[int64]bool)
			for _, t := range backfill {
				if !usable(t) || seen[t.ID] {
					continue
				}
				seen[t.ID] = true
				c.Items = append(c.Items, t)
				if len(c.Items) == maxCarouselItems {
					break
				}
			}
		}
		if len(c.Items) == 0 {
			continue
		}
		final = append(final, c)
	}
	return final
}

// buildSuggestionInput summarizes the user's recent activity for the LLM
// sources. Lists are capped and comma-joined; empty lists read "N/A" so the
// prompt stays well-formed.
func buildSuggestionInput(items []models.LibraryItem, fb map[int64]models.FeedbackEntry) models.SuggestionInput {
	var watched, added, liked []string
	collected := make([]string, 0, len(items))
	for _, item := range items {
		collected = append(collected, item.Title.Name)
		if item.WatchStatus == models.WatchStatusCompleted && len(watched) < maxActivityTitles {
			watched = append(watched, item.Title.Name)
		}
		if len(added) < maxActivityTitles {
			added = append(added, item.Title.Name)
		}
		if isLiked(item, fb) && len(liked) < maxActivityTitles {
			liked = append(liked, item.Title.Name)
		}
	}
	return models.SuggestionInput{
		WatchedTitles:   joinOrNA(watched),
		AddedTitles:     joinOrNA(added),
		LikedTitles:     joinOrNA(liked),
		CollectedTitles: collected,
	}
}

func joinOrNA(names []string) string {
	if len(names) == 0 {
		return "N/A"
	}
	return strings.Join(names, ", ")
}

func isLiked(item models.LibraryItem, fb map[int64]models.FeedbackEntry) bool {
	entry, ok := fb[item.Title.ID]
	if !ok {
		return false
	}
	if entry.LastFeedback != nil && entry.LastFeedback.Liked {
		return true
	}
	return entry.PersonalRating != nil && *entry.PersonalRating >= 8
}

// activitySeed picks the query seed for the local TF-IDF branch: the most
// recent genuinely watched title, else the most recent liked one, else empty
// (the local source substitutes its own generic seed).
func activitySeed(items []models.LibraryItem, fb map[int64]models.FeedbackEntry) string {
	for _, item := range items {
		if item.WatchStatus == models.WatchStatusCompleted {
			return item.Title.Name
		}
	}
	for _, item := range items {
		if isLiked(item, fb) {
			return item.Title.Name
		}
	}
	return ""
}

// collectSeeds picks the highest-signal seed titles: the best liked title,
// the most recently added, the most recently completed TV show, plus one
// extra recent addition used only for pool expansion. Distinct by title ID.
func collectSeeds(items []models.LibraryItem, fb map[int64]models.FeedbackEntry) []seedInfo {
	var seeds []seedInfo
	used := make(map[int64]bool)
	add := func(t models.Title, kind seedKind) {
		if t.ID == 0 || used[t.ID] {
			return
		}
		used[t.ID] = true
		seeds = append(seeds, seedInfo{title: t, kind: kind})
	}

	// Best liked: latest explicit thumbs up, else highest personal rating.
	var liked *models.LibraryItem
	var likedAt time.Time
	var bestRating float64
	for i := range items {
		entry, ok := fb[items[i].Title.ID]
		if !ok {
			continue
		}
		if entry.LastFeedback != nil && entry.LastFeedback.Liked {
			if liked == nil || entry.LastFeedback.Timestamp.After(likedAt) {
				liked = &items[i]
				likedAt = entry.LastFeedback.Timestamp
			}
		}
	}
	if liked == nil {
		for i := range items {
			entry, ok := fb[items[i].Title.ID]
			if !ok || entry.PersonalRating == nil {
				continue
			}
			if *entry.PersonalRating >= 8 && *entry.PersonalRating > bestRating {
				liked = &items[i]
				bestRating = *entry.PersonalRating
			}
		}
	}
	if liked != nil {
		add(liked.Title, seedLiked)
	}

	if len(items) > 0 {
		add(items[0].Title, seedAdded)
	}

	for _, item := range items {
		if item.WatchStatus == models.WatchStatusCompleted && item.Title.MediaType == "tv" {
			add(item.Title, seedFinished)
			break
		}
	}

	for _, item := range items {
		if !used[item.Title.ID] {
			add(item.Title, seedExtra)
			break
		}
	}
	return seeds
}

// dedupeTitles merges the lists preserving order, dropping repeated IDs.
func dedupeTitles(lists ...[]models.Title) []models.Title {
	var out []models.Title
	seen := make(map[int64]bool)
	for _, list := range lists {
		for _, t := range list {
			if t.ID == 0 || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			out = append(out, t)
		}
	}
	return out
}

func titleNames(titles []models.Title) []string {
	names := make([]string, 0, len(titles))
	for _, t := range titles {
		if t.Name != "" {
			names = append(names, t.Name)
		}
	}
	return names
}
