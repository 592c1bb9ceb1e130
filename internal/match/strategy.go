// Package match finds catalog candidates for parsed titles and scores them.
// There is one strategy per media kind: anime goes through the offline index
// and a tiered AniList search, movies and TV shows through a single TMDB
// search.
package match

import (
	"context"
	"errors"
	"time"

	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/util"
)

// Strategy searches and scores candidates for one media kind
type Strategy interface {
	Kind() media.Kind

	// Search returns deduplicated candidates for titles and whether they
	// came from cache. Remote failures other than exhausted rate limits
	// yield no candidates instead of an error.
	Search(ctx context.Context, cache *Cache, titles media.Titles) ([]media.Candidate, bool, error)

	// Score rates one candidate in [0, 1] and names the variants that matched
	Score(titles media.Titles, c media.Candidate) (float64, []string)

	// MinConfidence is the default acceptance floor for this kind
	MinConfidence() float64
}

// SearchEvent describes one remote call made by a strategy
type SearchEvent struct {
	Kind     media.Kind
	Tier     string
	Query    string
	Year     int
	Results  int
	Duration time.Duration
	Err      error
}

// Observer receives a SearchEvent after every remote call
type Observer func(SearchEvent)

// AnimeCatalog is the remote anime catalog (AniList)
type AnimeCatalog interface {
	SearchAnime(ctx context.Context, query string, year int) ([]media.Candidate, error)
	GetAnimeWithRelations(ctx context.Context, id int64) ([]media.Candidate, error)
}

// TitleCatalog is the remote movie and TV catalog (TMDB)
type TitleCatalog interface {
	SearchMovie(ctx context.Context, query string, year int) ([]media.Candidate, error)
	SearchTV(ctx context.Context, query string, year int) ([]media.Candidate, error)
}

// contained decides whether a remote error stays inside the call that
// raised it. Exhausted rate limits and cancellation of ctx propagate; every
// other failure, including an HTTP client timeout, is logged and treated as
// an empty result.
func contained(ctx context.Context, err error, tier, query string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, util.ErrRemoteTransient) {
		return err
	}
	util.WarnLog("Search (%s) for '%s' failed, treating as no results: %v", tier, query, err)
	return nil
}

// dedup collects candidates in order, dropping repeated external ids
type dedup struct {
	seen  map[int64]bool
	cands []media.Candidate
}

func newDedup() *dedup {
	return &dedup{seen: make(map[int64]bool)}
}

func (d *dedup) add(cands ...media.Candidate) {
	for _, c := range cands {
		if d.seen[c.ExternalID] {
			continue
		}
		d.seen[c.ExternalID] = true
		d.cands = append(d.cands, c)
	}
}

func (d *dedup) len() int {
	return len(d.cands)
}
