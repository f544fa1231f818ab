package spotlight

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"cinespot/models"
)

// cacheTTL is how long one aggregation result stays fresh.
const cacheTTL = 30 * time.Minute

// cacheEntry is a persisted aggregation snapshot.
type cacheEntry struct {
	Payload   models.SpotlightResult `json:"payload"`
	CreatedAt time.Time              `json:"createdAt"`
}

// resultCache stores one aggregation result per user on disk. It exists so
// a page view does not re-run the whole multi-network-call pipeline; the
// aggregator, not the cache, decides when staleness is acceptable.
type resultCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

func newResultCache(dir string, ttl time.Duration) *resultCache {
	if ttl <= 0 {
		ttl = cacheTTL
	}
	return &resultCache{dir: dir, ttl: ttl, now: time.Now}
}

func (c *resultCache) path(userID string) string {
	return filepath.Join(c.dir, "spotlight-"+userID+".json")
}

// readEntry loads the raw entry regardless of age. Missing or corrupt files
// read as absent.
func (c *resultCache) readEntry(userID string) (cacheEntry, bool) {
	raw, err := os.ReadFile(c.path(userID))
	if err != nil {
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		log.Printf("[spotlight] dropping unreadable cache entry for user %s: %v", userID, err)
		_ = os.Remove(c.path(userID))
		return cacheEntry{}, false
	}
	return entry, true
}

// read returns the cached result only while it is fresh.
func (c *resultCache) read(userID string) (models.SpotlightResult, bool) {
	entry, ok := c.readEntry(userID)
	if !ok {
		return models.SpotlightResult{}, false
	}
	if c.now().Sub(entry.CreatedAt) >= c.ttl {
		return models.SpotlightResult{}, false
	}
	return entry.Payload, true
}

// readStale returns whatever result is on disk, however old. Used as the
// last resort when a fresh aggregation fails outright.
func (c *resultCache) readStale(userID string) (models.SpotlightResult, bool) {
	entry, ok := c.readEntry(userID)
	if !ok {
		return models.SpotlightResult{}, false
	}
	return entry.Payload, true
}

// write overwrites the user's entry unconditionally with a fresh timestamp.
func (c *resultCache) write(userID string, payload models.SpotlightResult) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		log.Printf("[spotlight] cache dir unavailable: %v", err)
		return
	}
	entry := cacheEntry{Payload: payload, CreatedAt: c.now()}
	raw, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[spotlight] failed to encode cache entry: %v", err)
		return
	}
	tmp := c.path(userID) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		log.Printf("[spotlight] failed to write cache entry: %v", err)
		return
	}
	if err := os.Rename(tmp, c.path(userID)); err != nil {
		log.Printf("[spotlight] failed to publish cache entry: %v", err)
	}
}

// invalidateOne scrubs a single title from the cached payload in place.
// CreatedAt is preserved: this is a surgical removal after explicit user
// feedback, not a refresh.
func (c *resultCache) invalidateOne(userID string, titleID int64) bool {
	entry, ok := c.readEntry(userID)
	if !ok {
		return false
	}

	removed := false
	topPicks := entry.Payload.TopPicks[:0]
	for _, t := range entry.Payload.TopPicks {
		if t.ID == titleID {
			removed = true
			continue
		}
		topPicks = append(topPicks, t)
	}
	entry.Payload.TopPicks = topPicks

	for i := range entry.Payload.Carousels {
		items := entry.Payload.Carousels[i].Items[:0]
		for _, t := range entry.Payload.Carousels[i].Items {
			if t.ID == titleID {
				removed = true
				continue
			}
			items = append(items, t)
		}
		entry.Payload.Carousels[i].Items = items
	}

	if !removed {
		return false
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return false
	}
	tmp := c.path(userID) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return false
	}
	if err := os.Rename(tmp, c.path(userID)); err != nil {
		return false
	}
	return true
}
