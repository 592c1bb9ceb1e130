package match

import (
	"strconv"
	"strings"

	"github.com/franz/media-tracker/internal/fuzzy"
	"github.com/franz/media-tracker/internal/media"
)

// Exact-match confidence tiers for anime
const (
	confidenceAllExact     = 1.0
	confidenceFamilyAndJP  = 0.98
	confidenceEnglishExact = 0.95
	confidenceRomajiExact  = 0.90
	confidenceNativeExact  = 0.90
	confidenceContains     = 0.7
	overlapWeight          = 0.8
)

// Year bonuses for movie and TV scoring; they do not stack
const (
	yearExactBonus = 0.20
	yearNearBonus  = 0.10
)

// ScoreAnime rates a candidate against parsed anime titles. Exact
// case-insensitive equality on a variant wins a fixed tier; otherwise the
// best substring or word-overlap signal over every title pair is used.
func ScoreAnime(titles media.Titles, c media.Candidate) (float64, []string) {
	english := strings.ToLower(strings.TrimSpace(titles.English))
	romaji := strings.ToLower(strings.TrimSpace(titles.Romaji))
	japanese := strings.ToLower(strings.TrimSpace(titles.Japanese))

	candTitle := strings.ToLower(strings.TrimSpace(c.Title))
	candRomaji := strings.ToLower(strings.TrimSpace(c.RomajiTitle))
	candNative := strings.ToLower(strings.TrimSpace(c.NativeTitle))

	englishHit := english != "" && english == candTitle
	romajiHit := romaji != "" && romaji == candRomaji
	japaneseHit := japanese != "" && japanese == candNative

	var matched []string
	if englishHit {
		matched = append(matched, media.KeyEnglish)
	}
	if romajiHit {
		matched = append(matched, media.KeyRomaji)
	}
	if japaneseHit {
		matched = append(matched, media.KeyJapanese)
	}

	switch {
	case englishHit && romajiHit && japaneseHit:
		return confidenceAllExact, matched
	case (englishHit || romajiHit) && japaneseHit:
		return confidenceFamilyAndJP, matched
	case englishHit:
		return confidenceEnglishExact, matched
	case romajiHit:
		return confidenceRomajiExact, matched
	case japaneseHit:
		return confidenceNativeExact, matched
	}

	search := []media.Variant{
		{Key: media.KeyEnglish, Value: english},
		{Key: media.KeyRomaji, Value: romaji},
		{Key: media.KeyJapanese, Value: japanese},
	}
	cand := []string{candTitle, candRomaji, candNative}

	best := 0.0
	var bestKey string
	for _, s := range search {
		if s.Value == "" {
			continue
		}
		for _, m := range cand {
			if m == "" {
				continue
			}
			score := 0.0
			if strings.Contains(m, s.Value) || strings.Contains(s.Value, m) {
				score = confidenceContains
			}
			score = max(score, fuzzy.Jaccard(s.Value, m)*overlapWeight)
			if score > best {
				best, bestKey = score, s.Key
			}
		}
	}
	if bestKey != "" {
		matched = []string{bestKey}
	}
	return clamp(best), matched
}

// ScoreTitle rates a movie or TV candidate: the character similarity of the
// titles on a 0-1 scale, plus a bonus when the release years agree.
func ScoreTitle(titles media.Titles, c media.Candidate) (float64, []string) {
	search := titles.Title
	if search == "" {
		search = titles.Best()
	}
	if search == "" || c.Title == "" {
		return 0, nil
	}

	score := fuzzy.FoldRatio(search, c.Title) / 100
	matched := []string{media.KeyTitle}

	if year, err := strconv.Atoi(titles.Year); err == nil && year > 0 && c.Year > 0 {
		switch diff := year - c.Year; {
		case diff == 0:
			score += yearExactBonus
			matched = append(matched, "year")
		case diff == 1 || diff == -1:
			score += yearNearBonus
			matched = append(matched, "year")
		}
	}
	return clamp(score), matched
}

func clamp(v float64) float64 {
	return min(max(v, 0), 1)
}
