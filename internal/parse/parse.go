// Package parse turns one free-text spreadsheet entry into a set of
// title variants. Anime entries are bracket-heavy release names and go
// through script detection and noise filtering; movie and TV entries are
// "Title" or "Title (YYYY)".
package parse

import (
	"strings"
	"unicode/utf8"

	"github.com/franz/media-tracker/internal/media"
)

// Parser extracts title variants from a raw entry
type Parser interface {
	Parse(entry string) media.Titles
}

// ForKind returns the parser for a media kind
func ForKind(kind media.Kind) Parser {
	if kind == media.KindAnime {
		return AnimeParser{}
	}
	return MovieParser{}
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// collapseSpaces trims and folds every whitespace run into one space
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
