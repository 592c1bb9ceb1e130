package parse

import (
	"strconv"

	"github.com/franz/media-tracker/internal/media"
)

// MovieParser handles movie and TV entries of the form "Title (YYYY)"
type MovieParser struct{}

// Parse implements Parser
func (MovieParser) Parse(entry string) media.Titles {
	title, year := ExtractYear(entry)
	t := media.Titles{Title: title}
	if year > 0 {
		t.Year = strconv.Itoa(year)
	}
	return t
}
