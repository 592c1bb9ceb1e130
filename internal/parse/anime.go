package parse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/franz/media-tracker/internal/media"
)

// Script is the detected writing system of a segment
type Script string

const (
	ScriptNoise    Script = "noise"
	ScriptJapanese Script = "japanese"
	ScriptLatin    Script = "latin"
	ScriptChinese  Script = "chinese"
	ScriptUnknown  Script = "unknown"
)

// Segment is one bracketed (or unbracketed) piece of an entry
type Segment struct {
	Text      string
	Bracketed bool
	Script    Script
}

// maxFallbackLen bounds entries used whole when no bracket yields a title
const maxFallbackLen = 100

var bracketPattern = regexp.MustCompile(`\[([^\]]+)\]|【([^】]+)】`)

// AnimeParser handles release-style anime entries such as
// "[葬送的芙莉莲][Sousou no Frieren][葬送のフリーレン][1080p]".
// Bracket order is not trusted; each segment is classified by script.
type AnimeParser struct{}

// Segments splits an entry into classified segments, in entry order
func (AnimeParser) Segments(entry string) []Segment {
	var segs []Segment
	addOutside := func(text string) {
		text = strings.Trim(text, edgeJunk)
		if text != "" {
			segs = append(segs, Segment{Text: text, Script: classify(text)})
		}
	}

	last := 0
	for _, m := range bracketPattern.FindAllStringSubmatchIndex(entry, -1) {
		addOutside(entry[last:m[0]])
		inner := ""
		if m[2] >= 0 {
			inner = entry[m[2]:m[3]]
		} else {
			inner = entry[m[4]:m[5]]
		}
		segs = append(segs, Segment{Text: strings.TrimSpace(inner), Bracketed: true, Script: classify(inner)})
		last = m[1]
	}
	if last > 0 {
		addOutside(entry[last:])
	}
	return segs
}

// Parse implements Parser
func (p AnimeParser) Parse(entry string) media.Titles {
	var t media.Titles
	segs := p.Segments(entry)

	var latin []string
	for _, s := range segs {
		switch s.Script {
		case ScriptLatin:
			latin = append(latin, cleanTitle(s.Text))
		case ScriptJapanese:
			if t.Japanese == "" {
				t.Japanese = cleanTitle(s.Text)
			}
		case ScriptChinese:
			if t.Chinese == "" {
				t.Chinese = s.Text
			}
		}
	}

	for _, l := range latin {
		if runeLen(l) > runeLen(t.English) {
			t.English = l
		}
	}

	if !hasTitleSegment(segs) {
		t.English = fallbackTitle(entry)
	}
	t.Romaji = t.English

	if t.English != "" {
		if _, y := ExtractYear(t.English); y > 0 {
			t.Year = strconv.Itoa(y)
		}
	}
	return t
}

// hasTitleSegment reports whether any segment landed in a script bucket
func hasTitleSegment(segs []Segment) bool {
	for _, s := range segs {
		switch s.Script {
		case ScriptLatin, ScriptJapanese, ScriptChinese:
			return true
		}
	}
	return false
}

// classify assigns a segment to a script bucket, or to noise
func classify(text string) Script {
	text = strings.TrimSpace(text)
	if IsTechnical(text) {
		return ScriptNoise
	}
	switch {
	case hasKana(text):
		return ScriptJapanese
	case latinRatio(text) >= 0.6:
		return ScriptLatin
	case hasHan(text):
		return ScriptChinese
	default:
		return ScriptUnknown
	}
}

func hasKana(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana) {
			return true
		}
	}
	return false
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// latinRatio is the share of ASCII letters and spaces among all runes
func latinRatio(s string) float64 {
	total, latin := 0, 0
	for _, r := range s {
		total++
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsSpace(r)) {
			latin++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(latin) / float64(total)
}

var fallbackSeparators = []string{" - ", " – ", " — ", "  ", "\t"}

// fallbackTitle recovers a title from an entry without usable brackets:
// the first substantial non-technical piece between separators, with
// every technical word removed.
func fallbackTitle(entry string) string {
	if runeLen(entry) >= maxFallbackLen {
		return ""
	}
	s := entry
	for _, sep := range fallbackSeparators {
		if !strings.Contains(s, sep) {
			continue
		}
		for _, part := range strings.Split(s, sep) {
			if !IsTechnical(part) && runeLen(strings.TrimSpace(part)) > 2 {
				s = part
				break
			}
		}
	}

	cleaned := stripTechnicalTokens(s)
	if runeLen(cleaned) <= 2 {
		return ""
	}
	return cleaned
}
