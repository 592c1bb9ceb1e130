package parse

import (
	"regexp"
	"strings"
	"unicode"
)

// technicalKeywords never appear in a real title. Matched as whole tokens,
// case-insensitively.
var technicalKeywords = []string{
	// video sources
	"BDMV", "DVDISO", "DVDMV", "BluRay", "Blu-ray", "BD-BOX", "BDISO",
	"WebDL", "WEB-DL", "WEBRip", "HDRip", "BRRip", "DVDRip", "BDRip",

	// resolutions
	"1080p", "1080i", "720p", "480p", "480i", "2160p", "4K", "8K",

	// video codecs
	"AVC", "HEVC", "H264", "H.264", "H265", "H.265", "x264", "x265",
	"MPEG", "MPEG-2", "VP9", "AV1", "10bit", "8bit", "Hi10P",

	// audio codecs
	"AAC", "AC3", "E-AC3", "DTS", "FLAC", "MP3", "LPCM",

	// containers
	"MKV", "MP4", "AVI", "ISO",

	// volume and disc counters
	"Vol.", "Vol", "Volume", "DISC", "Disc", "Disk",
	"BD×", "DVD×", "BDx", "DVDx",

	// regions
	"R1", "R2", "R2J", "R1US", "USA", "JPN", "JP", "NTSC", "PAL",

	// release info
	"Fin", "Remux", "Encode", "Rip", "Source",

	// uploader tags
	"Nyaa", "U2", "ADC", "Share", "Self-Rip", "Self-Purchase",

	"thanks",
}

// cjkMarkers are Chinese release annotations. CJK text has no word
// boundaries, so these are matched as substrings.
var cjkMarkers = []string{
	"自抓", "自购", "感谢",
	"合集", "全集", "简繁", "简日", "繁日", "简体", "繁体",
	"中字", "内封", "内嵌", "外挂", "字幕", "双语", "生肉", "熟肉",
}

// ambiguousKeywords can be part of a title ("Movie" in a film's name) and
// only mark a segment as noise when they stand alone or with a counter.
var ambiguousKeywords = []string{"ova", "oad", "special", "movie", "tv"}

var keywordSet = func() map[string]bool {
	m := make(map[string]bool, len(technicalKeywords))
	for _, k := range technicalKeywords {
		m[strings.ToLower(k)] = true
	}
	return m
}()

var (
	counterOnly = regexp.MustCompile(`^[\d\-\s×x\.]+$`)

	// Matched against the lowercased segment. Covers trailing resolutions,
	// volume and disc counters, bare digit runs, @uploader tags, uploader
	// tags wrapped in another bracket pair and bare set/volume/part counters.
	segmentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d+p$`),
		regexp.MustCompile(`\d+i$`),
		regexp.MustCompile(`vol\.?\s*\d+`),
		regexp.MustCompile(`disc?\s*[×x]\s*\d+`),
		regexp.MustCompile(`^\d{3,4}$`),
		regexp.MustCompile(`bd[×x]\d+`),
		regexp.MustCompile(`[@＠]\S+`),
		regexp.MustCompile(`^[(（<《].*[)）>》]$`),
		regexp.MustCompile(`^(set|vol|part)\.?\s*\d+$`),
	}

	tokenPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{3,4}[pi]$`),
		regexp.MustCompile(`^(bd|dvd)[×x]\d+$`),
		regexp.MustCompile(`^[@＠]\S+$`),
		regexp.MustCompile(`^(vol|volume|disc|disk)\.?\d[\d\-~]*$`),
	}

	// numeric tokens are only noise next to a technical token ("Vol 3", "BD x 2")
	neutralToken = regexp.MustCompile(`^[\d\-\.×x]+$`)
)

// splitTokens breaks a segment into words for keyword comparison
func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		if unicode.IsSpace(r) {
			return true
		}
		switch r {
		case '_', '/', '+', ',', '&', '|', '[', ']', '【', '】', '(', ')', '（', '）':
			return true
		}
		return false
	})
}

func isTechnicalToken(tok string) bool {
	t := strings.ToLower(strings.Trim(tok, `"'!?:;,`))
	if t == "" {
		return false
	}
	if keywordSet[t] || hasCJKMarker(t) {
		return true
	}
	for _, p := range tokenPatterns {
		if p.MatchString(t) {
			return true
		}
	}
	return false
}

func hasCJKMarker(s string) bool {
	for _, m := range cjkMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// isAmbiguousMarker reports segments like "OVA", "Movie 2" or "TV 1-12"
func isAmbiguousMarker(lower string) bool {
	for _, kw := range ambiguousKeywords {
		if lower == kw {
			return true
		}
		if runeLen(lower) >= 20 {
			continue
		}
		words := strings.Fields(lower)
		if len(words) > 0 && words[0] == kw {
			rest := strings.Join(words[1:], " ")
			if rest == "" || counterOnly.MatchString(rest) {
				return true
			}
		}
	}
	return false
}

// IsTechnical reports whether a bracketed segment is release noise rather
// than a title. A long segment that starts with a letter and carries noise
// only at its end is kept; the trailing noise is removed by cleanTitle.
func IsTechnical(segment string) bool {
	s := strings.TrimSpace(segment)
	if runeLen(s) <= 1 {
		return true
	}
	if tolerated(s) {
		return false
	}
	return technicalCore(s)
}

func technicalCore(s string) bool {
	if hasCJKMarker(s) {
		return true
	}
	lower := strings.ToLower(s)
	if isAmbiguousMarker(lower) {
		return true
	}
	for _, p := range segmentPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	for _, tok := range splitTokens(s) {
		if isTechnicalToken(tok) {
			return true
		}
	}
	return false
}

// trailingNoiseStart returns the index of the first token of the trailing
// technical run, or len(tokens) when the segment does not end in noise.
// Numbers inside the run ("Vol 3") belong to it; numbers after the last
// title word without a technical token before them do not.
func trailingNoiseStart(tokens []string) int {
	start := len(tokens)
	for i := len(tokens) - 1; i >= 0; i-- {
		switch {
		case isTechnicalToken(tokens[i]):
			start = i
		case neutralToken.MatchString(strings.ToLower(tokens[i])):
			continue
		default:
			return start
		}
	}
	return start
}

func tolerated(s string) bool {
	if runeLen(s) <= 10 {
		return false
	}
	first := []rune(s)[0]
	if !unicode.IsLetter(first) {
		return false
	}
	tokens := strings.Fields(s)
	start := trailingNoiseStart(tokens)
	if start == len(tokens) || start == 0 {
		return false
	}
	return !technicalCore(strings.Join(tokens[:start], " "))
}

var (
	uploaderSuffix = regexp.MustCompile(`[\s\-_|]*[@＠]\S*$`)
	cjkSuffix      = regexp.MustCompile(`[\s\-_]*[(（【]?(?:` + strings.Join(cjkMarkers, "|") + `)[^\s]*$`)

	// group tags: "- SweetSub", "_Ohys-Raws", a CamelCase "HorribleSubs"
	// or a bare trailing "Raws". Plain words ending in "raw" or "sub" stay.
	groupSuffixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*[\-_|]+\s*[\p{L}\d.]*(?:raws?|subs?|fansubs?)$`),
		regexp.MustCompile(`\s+[\p{Lu}\d][\p{L}\d]*(?:Raws?|Subs?|Fansubs?)$`),
		regexp.MustCompile(`(?i)\s+(?:raws|fansubs?)$`),
	}
)

const edgeJunk = " \t-_|~;,.:"

// cleanTitle strips trailing uploader tags, Chinese annotations, group
// names and technical tokens until nothing more comes off.
func cleanTitle(s string) string {
	s = strings.Trim(s, edgeJunk)
	for {
		before := s
		s = uploaderSuffix.ReplaceAllString(s, "")
		s = cjkSuffix.ReplaceAllString(s, "")
		for _, re := range groupSuffixes {
			s = re.ReplaceAllString(s, "")
		}

		tokens := strings.Fields(s)
		if start := trailingNoiseStart(tokens); start > 0 && start < len(tokens) {
			s = strings.Join(tokens[:start], " ")
		}
		s = strings.Trim(collapseSpaces(s), edgeJunk)
		if s == before {
			return s
		}
	}
}

// stripTechnicalTokens removes every noise word from free text. A word is
// removed when all of its parts ("1080p+HEVC") are technical.
func stripTechnicalTokens(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '_' || r == '[' || r == ']' || r == '【' || r == '】'
	})
	if len(words) == 1 && strings.Count(words[0], ".") >= 2 {
		words = strings.Split(words[0], ".")
	}

	kept := words[:0]
	for _, w := range words {
		parts := splitTokens(w)
		noise := len(parts) > 0
		for _, p := range parts {
			if !isTechnicalToken(p) {
				noise = false
				break
			}
		}
		if !noise && !hasCJKMarker(w) {
			kept = append(kept, w)
		}
	}
	return collapseSpaces(strings.Join(kept, " "))
}
