package media

import "strings"

// Title variant keys, in cache-key preference order
const (
	KeyEnglish  = "english"
	KeyRomaji   = "romaji"
	KeyJapanese = "japanese"
	KeyChinese  = "chinese"
	KeyTitle    = "title"
)

// Titles is the set of title variants extracted from one raw entry.
// Anime entries fill the language keys; movie and TV entries fill Title.
type Titles struct {
	English  string
	Romaji   string
	Japanese string
	Chinese  string
	Title    string
	Year     string
}

// Variant is one named title string
type Variant struct {
	Key   string
	Value string
}

// Variants returns the non-empty variants in preference order
func (t Titles) Variants() []Variant {
	all := []Variant{
		{KeyEnglish, t.English},
		{KeyRomaji, t.Romaji},
		{KeyJapanese, t.Japanese},
		{KeyChinese, t.Chinese},
		{KeyTitle, t.Title},
	}
	out := all[:0]
	for _, v := range all {
		if strings.TrimSpace(v.Value) != "" {
			out = append(out, v)
		}
	}
	return out
}

// Best returns the preferred non-empty variant, or "" when none is set
func (t Titles) Best() string {
	if v := t.Variants(); len(v) > 0 {
		return v[0].Value
	}
	return ""
}

// Empty reports whether no title variant was extracted
func (t Titles) Empty() bool {
	return len(t.Variants()) == 0
}

// String renders "key: value" pairs in preference order
func (t Titles) String() string {
	var parts []string
	for _, v := range t.Variants() {
		parts = append(parts, v.Key+": "+v.Value)
	}
	if t.Year != "" {
		parts = append(parts, "year: "+t.Year)
	}
	return strings.Join(parts, ", ")
}
