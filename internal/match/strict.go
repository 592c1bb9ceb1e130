package match

import (
	"github.com/franz/media-tracker/internal/fuzzy"
	"github.com/franz/media-tracker/internal/media"
)

// Strict filter thresholds by search-title word count
const (
	strictOneWord   = 85
	strictTwoWords  = 80
	strictManyWords = 70
)

// StrictFilter keeps candidates with at least one title variant close
// enough to the search title. Short titles need a higher character ratio and
// a variant with about as many words; "AIR" must not pull in "Air Gear".
func StrictFilter(search string, cands []media.Candidate) []media.Candidate {
	words := fuzzy.WordCount(search)
	if words == 0 {
		return nil
	}

	var kept []media.Candidate
	for _, c := range cands {
		for _, variant := range []string{c.Title, c.RomajiTitle, c.NativeTitle} {
			if variant != "" && strictPass(search, words, variant) {
				kept = append(kept, c)
				break
			}
		}
	}
	return kept
}

func strictPass(search string, words int, variant string) bool {
	ratio := fuzzy.FoldRatio(search, variant)
	if words >= 3 {
		return ratio >= strictManyWords
	}

	threshold := float64(strictOneWord)
	if words == 2 {
		threshold = strictTwoWords
	}
	diff := words - fuzzy.WordCount(variant)
	if diff < 0 {
		diff = -diff
	}
	return ratio >= threshold && diff <= 1
}
