// Package media holds the domain types shared by the import pipeline:
// media kinds, tracking statuses, parsed title sets and catalog candidates.
package media

import (
	"fmt"
	"strings"
)

// Kind is the media kind of a tracked item
type Kind string

const (
	KindMovie Kind = "Movie"
	KindTV    Kind = "TV"
	KindAnime Kind = "Anime"
)

// Kinds lists every supported kind in display order
var Kinds = []Kind{KindMovie, KindTV, KindAnime}

// ParseKind parses a kind name case-insensitively ("movie", "tv", "anime")
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(strings.TrimSpace(s), string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown media kind %q (want movie, tv or anime)", s)
}

// Status is where an item sits in the collection workflow
type Status string

const (
	StatusOnDrive    Status = "On Drive"
	StatusToDownload Status = "To Download"
	StatusToWorkOn   Status = "To Work On"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusOnDrive, StatusToDownload, StatusToWorkOn}

// ParseStatus accepts the display name or a compact form ("on-drive", "todownload")
func ParseStatus(s string) (Status, error) {
	compact := func(v string) string {
		v = strings.ToLower(v)
		return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(v)
	}
	want := compact(s)
	for _, st := range Statuses {
		if compact(string(st)) == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q (want on-drive, to-download or to-work-on)", s)
}

// Describe formats a title and year the way duplicate messages show them
func Describe(title string, year int) string {
	if year > 0 {
		return fmt.Sprintf("%s (%d)", title, year)
	}
	return fmt.Sprintf("%s (n/a)", title)
}
