package match

import (
	"context"
	"strconv"
	"time"

	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/util"
)

// TitleMinConfidence is the default acceptance floor for movies and TV
const TitleMinConfidence = 0.35

// TitleStrategy searches TMDB once per entry, with the parsed year as a
// filter. There are no fallback tiers; scoring handles precision.
type TitleStrategy struct {
	kind    media.Kind
	client  TitleCatalog
	pacer   *Pacer
	observe Observer
}

// TitleOption configures a TitleStrategy
type TitleOption func(*TitleStrategy)

// WithTitlePace sets a minimum interval between TMDB calls (none by default)
func WithTitlePace(d time.Duration) TitleOption {
	return func(s *TitleStrategy) { s.pacer = NewPacer(d) }
}

// WithTitleObserver registers a callback for every remote call
func WithTitleObserver(fn Observer) TitleOption {
	return func(s *TitleStrategy) { s.observe = fn }
}

// NewTitleStrategy creates the movie or TV strategy; any other kind is
// treated as a movie
func NewTitleStrategy(kind media.Kind, client TitleCatalog, opts ...TitleOption) *TitleStrategy {
	if kind != media.KindTV {
		kind = media.KindMovie
	}
	s := &TitleStrategy{kind: kind, client: client, pacer: NewPacer(0)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind implements Strategy
func (s *TitleStrategy) Kind() media.Kind { return s.kind }

// MinConfidence implements Strategy
func (s *TitleStrategy) MinConfidence() float64 { return TitleMinConfidence }

// Score implements Strategy
func (s *TitleStrategy) Score(titles media.Titles, c media.Candidate) (float64, []string) {
	return ScoreTitle(titles, c)
}

// Search implements Strategy
func (s *TitleStrategy) Search(ctx context.Context, cache *Cache, titles media.Titles) ([]media.Candidate, bool, error) {
	key := CacheKey(titles)
	if key != "" && titles.Year != "" {
		key += " " + titles.Year
	}
	if cands, ok := cache.Get(key); ok {
		util.DebugLog("Search cache hit for '%s'", key)
		return cands, true, nil
	}

	query := titles.Title
	if query == "" {
		query = titles.Best()
	}
	year, _ := strconv.Atoi(titles.Year)

	if err := s.pacer.Wait(ctx); err != nil {
		return nil, false, err
	}
	var results []media.Candidate
	var err error
	start := time.Now()
	if s.kind == media.KindTV {
		results, err = s.client.SearchTV(ctx, query, year)
	} else {
		results, err = s.client.SearchMovie(ctx, query, year)
	}
	if s.observe != nil {
		s.observe(SearchEvent{Kind: s.kind, Tier: TierTitle, Query: query, Year: year, Results: len(results), Duration: time.Since(start), Err: err})
	}
	if err := contained(ctx, err, TierTitle, query); err != nil {
		return nil, false, err
	}
	if err != nil {
		results = nil
	}

	found := newDedup()
	found.add(results...)
	cache.Put(key, found.cands)
	return found.cands, false, nil
}
