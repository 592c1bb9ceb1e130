package match

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/offline"
	"github.com/franz/media-tracker/internal/parse"
	"github.com/franz/media-tracker/internal/util"
)

const (
	// DefaultAnimePace is the minimum interval between AniList calls
	DefaultAnimePace = 2500 * time.Millisecond

	// DefaultOfflineMinScore is the fuzzy cutoff (0-100) for offline lookups
	DefaultOfflineMinScore = 85

	// offlineTrust is the confidence an offline hit needs to drive the search
	offlineTrust = 0.85

	// AnimeMinConfidence is the default acceptance floor for anime
	AnimeMinConfidence = 0.40
)

// Search tiers, in the order they are tried
const (
	TierOffline   = "offline"
	TierEnglish   = "english"
	TierRomaji    = "romaji"
	TierJapanese  = "japanese"
	TierCleaned   = "cleaned"
	TierChinese   = "chinese"
	TierRelations = "relations"
	TierTitle     = "title"
)

// AnimeStrategy searches AniList in tiers, stopping at the first tier that
// produces candidates
type AnimeStrategy struct {
	client   AnimeCatalog
	index    *offline.Index
	minScore float64
	pacer    *Pacer
	observe  Observer
}

// AnimeOption configures an AnimeStrategy
type AnimeOption func(*AnimeStrategy)

// WithOfflineIndex enables the offline first pass; a nil index is ignored
func WithOfflineIndex(ix *offline.Index, minScore float64) AnimeOption {
	return func(s *AnimeStrategy) {
		s.index = ix
		if minScore > 0 {
			s.minScore = minScore
		}
	}
}

// WithAnimePace overrides the interval between remote calls
func WithAnimePace(d time.Duration) AnimeOption {
	return func(s *AnimeStrategy) { s.pacer = NewPacer(d) }
}

// WithAnimeObserver registers a callback for every remote call
func WithAnimeObserver(fn Observer) AnimeOption {
	return func(s *AnimeStrategy) { s.observe = fn }
}

// NewAnimeStrategy creates the anime strategy over an AniList client
func NewAnimeStrategy(client AnimeCatalog, opts ...AnimeOption) *AnimeStrategy {
	s := &AnimeStrategy{
		client:   client,
		minScore: DefaultOfflineMinScore,
		pacer:    NewPacer(DefaultAnimePace),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind implements Strategy
func (s *AnimeStrategy) Kind() media.Kind { return media.KindAnime }

// MinConfidence implements Strategy
func (s *AnimeStrategy) MinConfidence() float64 { return AnimeMinConfidence }

// Score implements Strategy
func (s *AnimeStrategy) Score(titles media.Titles, c media.Candidate) (float64, []string) {
	return ScoreAnime(titles, c)
}

// Search implements Strategy
func (s *AnimeStrategy) Search(ctx context.Context, cache *Cache, titles media.Titles) ([]media.Candidate, bool, error) {
	key := CacheKey(titles)
	if cands, ok := cache.Get(key); ok {
		util.DebugLog("Search cache hit for '%s'", key)
		return cands, true, nil
	}

	cands, err := s.search(ctx, titles)
	if err != nil {
		return nil, false, err
	}
	cache.Put(key, cands)
	return cands, false, nil
}

func (s *AnimeStrategy) search(ctx context.Context, titles media.Titles) ([]media.Candidate, error) {
	found := newDedup()

	// Offline index: a trusted hit gives a canonical title to search with
	if hits := s.index.Match(titles, s.minScore); len(hits) > 0 && hits[0].Confidence >= offlineTrust {
		canonical := hits[0].Entry.Title
		util.DebugLog("Offline match: '%s' (AniList %d, %.0f%%)", canonical, hits[0].AniListID, hits[0].Confidence*100)
		ok, err := s.strictTier(ctx, found, TierOffline, canonical, 0)
		if err != nil || ok {
			return found.cands, err
		}
	}

	english := titles.English
	if english == "" {
		english = titles.Romaji
	}
	if english != "" {
		query, year := parse.ExtractYear(english)
		ok, err := s.strictTier(ctx, found, TierEnglish, query, year)
		if err != nil || ok {
			return found.cands, err
		}
	}

	if found.len() == 0 && titles.Romaji != "" && titles.Romaji != titles.English {
		query, year := parse.ExtractYear(titles.Romaji)
		if err := s.plainTier(ctx, found, TierRomaji, query, year); err != nil {
			return nil, err
		}
	}

	if found.len() == 0 && titles.Japanese != "" {
		if err := s.plainTier(ctx, found, TierJapanese, titles.Japanese, 0); err != nil {
			return nil, err
		}
	}

	if found.len() == 0 && titles.English != "" {
		if cleaned := CleanForSearch(titles.English); cleaned != "" && cleaned != titles.English {
			if err := s.plainTier(ctx, found, TierCleaned, cleaned, 0); err != nil {
				return nil, err
			}
		}
	}

	if found.len() == 0 && hasLatinLetter(titles.Chinese) {
		if err := s.plainTier(ctx, found, TierChinese, titles.Chinese, 0); err != nil {
			return nil, err
		}
	}

	return found.cands, nil
}

// strictTier searches, keeps only close title matches and, when any
// survive, pulls in the top hit's franchise. It reports whether the tier
// produced candidates.
func (s *AnimeStrategy) strictTier(ctx context.Context, found *dedup, tier, query string, year int) (bool, error) {
	results, err := s.call(ctx, tier, query, year)
	if err != nil {
		return false, err
	}
	results = StrictFilter(query, results)
	if len(results) == 0 {
		return false, nil
	}
	found.add(results...)

	related, err := s.relations(ctx, results[0].ExternalID)
	if err != nil {
		return false, err
	}
	found.add(related...)
	return true, nil
}

func (s *AnimeStrategy) plainTier(ctx context.Context, found *dedup, tier, query string, year int) error {
	results, err := s.call(ctx, tier, query, year)
	if err != nil {
		return err
	}
	found.add(results...)
	return nil
}

func (s *AnimeStrategy) call(ctx context.Context, tier, query string, year int) ([]media.Candidate, error) {
	if err := s.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	results, err := s.client.SearchAnime(ctx, query, year)
	s.notify(SearchEvent{Kind: media.KindAnime, Tier: tier, Query: query, Year: year, Results: len(results), Duration: time.Since(start), Err: err})
	if err := contained(ctx, err, tier, query); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *AnimeStrategy) relations(ctx context.Context, id int64) ([]media.Candidate, error) {
	if err := s.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	related, err := s.client.GetAnimeWithRelations(ctx, id)
	query := strconv.FormatInt(id, 10)
	s.notify(SearchEvent{Kind: media.KindAnime, Tier: TierRelations, Query: query, Results: len(related), Duration: time.Since(start), Err: err})
	if err := contained(ctx, err, TierRelations, query); err != nil {
		return nil, err
	}
	return related, nil
}

func (s *AnimeStrategy) notify(ev SearchEvent) {
	if s.observe != nil {
		s.observe(ev)
	}
}

var searchNoise = []*regexp.Regexp{
	regexp.MustCompile(`\(\d{4}\)`),
	regexp.MustCompile(`(?i)\s*\bseason\s*\d+`),
	regexp.MustCompile(`(?i)\s*\bs\d+\b`),
	regexp.MustCompile(`(?i)\s*\bpart\s*\d+`),
	nonWord,
}

// CleanForSearch strips year, season and part markers and punctuation
// from a title to broaden a search
func CleanForSearch(title string) string {
	for _, re := range searchNoise {
		title = re.ReplaceAllString(title, " ")
	}
	return strings.Join(strings.Fields(title), " ")
}

func hasLatinLetter(s string) bool {
	for _, r := range s {
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
