// Package fuzzy provides the string similarity measures used for title
// matching: an indel-based character ratio on a 0-100 scale and word-set
// overlap.
package fuzzy

import (
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio returns 100 * 2*LCS(a, b) / (len(a)+len(b)), the normalized indel
// similarity. Identical strings score 100; two empty strings also score 100.
func Ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la+lb == 0 {
		return 100
	}
	if la == 0 || lb == 0 {
		return 0
	}
	return 200 * float64(edlib.LCS(a, b)) / float64(la+lb)
}

// MaxRatio is the best Ratio two strings of these rune lengths could reach.
// Used to skip comparisons that cannot clear a cutoff.
func MaxRatio(la, lb int) float64 {
	if la+lb == 0 {
		return 100
	}
	return 200 * float64(min(la, lb)) / float64(la+lb)
}

// FoldRatio is Ratio on lowercased input
func FoldRatio(a, b string) float64 {
	return Ratio(strings.ToLower(a), strings.ToLower(b))
}

// WordCount counts whitespace-separated words
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Jaccard returns |A∩B| / |A∪B| over the whitespace-separated word sets.
// Zero when either side has no words.
func Jaccard(a, b string) float64 {
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}
