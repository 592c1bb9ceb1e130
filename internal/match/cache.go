package match

import (
	"regexp"
	"strings"
	"sync"

	"github.com/franz/media-tracker/internal/media"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// CacheKey normalizes the preferred title variant into a search cache key:
// lowercased, punctuation replaced by spaces, whitespace collapsed. Empty
// when the set has no title at all.
func CacheKey(titles media.Titles) string {
	best := titles.Best()
	if best == "" {
		return ""
	}
	key := nonWord.ReplaceAllString(strings.ToLower(best), " ")
	return strings.Join(strings.Fields(key), " ")
}

// Cache holds search results for the lifetime of one import run. Stored and
// returned lists are copies, so callers may mutate what they get back.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]media.Candidate
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]media.Candidate)}
}

// Get returns a copy of the cached candidates for key
func (c *Cache) Get(key string) ([]media.Candidate, bool) {
	if c == nil || key == "" {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cands, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return media.CloneAll(cands), true
}

// Put stores a copy of cands under key. An empty result is cached too.
func (c *Cache) Put(key string, cands []media.Candidate) {
	if c == nil || key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := media.CloneAll(cands)
	if stored == nil {
		stored = []media.Candidate{}
	}
	c.entries[key] = stored
}

// Len returns the number of cached keys
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
