// Package offline is an optional local lookup of known anime titles, built
// from an anime-offline-database JSON dump. It gives the search strategy a
// rate-limit-free first pass. A nil *Index is valid and never matches.
package offline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/franz/media-tracker/internal/fuzzy"
	"github.com/franz/media-tracker/internal/media"
	"github.com/franz/media-tracker/internal/util"
)

const (
	// DownloadURL is where the reference dump is published
	DownloadURL = "https://github.com/manami-project/anime-offline-database/raw/master/anime-offline-database-minified.json"

	// fuzzyLimit caps fuzzy hits per search variant
	fuzzyLimit = 10

	anilistHost = "anilist.co"
)

// Season is the airing season of an entry
type Season struct {
	Season string `json:"season"`
	Year   int    `json:"year"`
}

// Entry is one anime in the reference dump
type Entry struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Episodes    int      `json:"episodes"`
	Synonyms    []string `json:"synonyms"`
	Sources     []string `json:"sources"`
	AnimeSeason *Season  `json:"animeSeason"`
}

// Year returns the airing year, or 0 when the dump has none
func (e *Entry) Year() int {
	if e.AnimeSeason == nil {
		return 0
	}
	return e.AnimeSeason.Year
}

// AniListID extracts the id from the entry's anilist.co source URL
// ("https://anilist.co/anime/12345"). Zero when there is none.
func (e *Entry) AniListID() int64 {
	for _, src := range e.Sources {
		if !strings.Contains(src, anilistHost) {
			continue
		}
		src = strings.TrimRight(src, "/")
		last := src[strings.LastIndex(src, "/")+1:]
		if id, err := strconv.ParseInt(last, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	return 0
}

// Hit is one matched entry
type Hit struct {
	AniListID  int64
	Confidence float64 // fuzzy score / 100
	MatchedOn  string  // title variant key that produced the best score
	Entry      *Entry
}

// Index maps normalized titles and synonyms to entries
type Index struct {
	entries []*Entry
	byTitle map[string][]*Entry
	keys    []string
	keyLen  []int
}

// Open loads the dump at path. It never fails: a missing or unreadable
// file is logged and yields a nil index, which matches nothing.
func Open(path string) *Index {
	if path == "" {
		util.DebugLog("Offline index: no database configured")
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		util.WarnLog("Offline index: database not found at %s (download it from %s)", path, DownloadURL)
		return nil
	}
	defer f.Close()

	ix, err := Load(f)
	if err != nil {
		util.WarnLog("Offline index: failed to load %s: %v", path, err)
		return nil
	}

	util.InfoLog("Loaded offline database: %d anime, %d unique titles", len(ix.entries), len(ix.keys))
	return ix
}

// Load builds an index from JSON: either a top-level array of entries or
// the published {"data": [...]} envelope.
func Load(r io.Reader) (*Index, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read database: %w", err)
	}

	var entries []*Entry
	trimmed := strings.TrimLeft(string(raw), " \t\r\n\ufeff")
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal([]byte(trimmed), &entries)
	} else {
		var envelope struct {
			Data []*Entry `json:"data"`
		}
		err = json.Unmarshal([]byte(trimmed), &envelope)
		entries = envelope.Data
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode database: %w", err)
	}

	ix := &Index{byTitle: make(map[string][]*Entry)}
	for _, e := range entries {
		if e == nil {
			continue
		}
		ix.entries = append(ix.entries, e)
		seen := make(map[string]bool)
		for _, title := range append([]string{e.Title}, e.Synonyms...) {
			key := Normalize(title)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			if _, ok := ix.byTitle[key]; !ok {
				ix.keys = append(ix.keys, key)
			}
			ix.byTitle[key] = append(ix.byTitle[key], e)
		}
	}

	sort.Strings(ix.keys)
	ix.keyLen = make([]int, len(ix.keys))
	for i, k := range ix.keys {
		ix.keyLen[i] = len([]rune(k))
	}
	return ix, nil
}

// Len returns the number of entries; zero for a nil index
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

var punctuation = strings.NewReplacer(
	":", " ", "：", " ", "~", " ", "〜", " ", "!", " ", "！", " ",
	"?", " ", "？", " ", "-", " ", "–", " ", "—", " ",
)

// Normalize applies NFKC, lowercases, turns separator punctuation into
// spaces and collapses whitespace
func Normalize(title string) string {
	if title == "" {
		return ""
	}
	t := norm.NFKC.String(title)
	t = strings.ToLower(t)
	t = punctuation.Replace(t)
	return strings.Join(strings.Fields(t), " ")
}

type scored struct {
	key   string
	score float64
}

// Match looks every title variant up exactly, then fuzzily with the given
// cutoff (0-100). Hits sharing an AniList id keep their best score. Results
// are sorted by confidence, highest first.
func (ix *Index) Match(titles media.Titles, minScore float64) []Hit {
	if ix == nil || len(ix.keys) == 0 {
		return nil
	}

	best := make(map[int64]*Hit)
	var order []int64
	record := func(key string, score float64, variant string) {
		for _, e := range ix.byTitle[key] {
			id := e.AniListID()
			if id == 0 {
				continue
			}
			conf := score / 100
			if h, ok := best[id]; ok {
				if conf > h.Confidence {
					h.Confidence, h.MatchedOn, h.Entry = conf, variant, e
				}
				continue
			}
			best[id] = &Hit{AniListID: id, Confidence: conf, MatchedOn: variant, Entry: e}
			order = append(order, id)
		}
	}

	searched := make(map[string]bool)
	for _, v := range titles.Variants() {
		q := Normalize(v.Value)
		if q == "" || searched[q] {
			continue
		}
		searched[q] = true

		if _, ok := ix.byTitle[q]; ok {
			record(q, 100, v.Key)
		}
		for _, s := range ix.fuzzyTop(q, minScore) {
			record(s.key, s.score, v.Key)
		}
	}

	hits := make([]Hit, 0, len(order))
	for _, id := range order {
		hits = append(hits, *best[id])
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Confidence > hits[j].Confidence
	})
	return hits
}

// fuzzyTop returns up to fuzzyLimit keys scoring at least minScore against q
func (ix *Index) fuzzyTop(q string, minScore float64) []scored {
	ql := len([]rune(q))
	var out []scored
	for i, key := range ix.keys {
		if fuzzy.MaxRatio(ql, ix.keyLen[i]) < minScore {
			continue
		}
		if s := fuzzy.Ratio(q, key); s >= minScore {
			out = append(out, scored{key: key, score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].score > out[j].score
	})
	if len(out) > fuzzyLimit {
		out = out[:fuzzyLimit]
	}
	return out
}
