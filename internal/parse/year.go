package parse

import (
	"regexp"
	"strconv"
)

const (
	minYear = 1950
	maxYear = 2030
)

var yearPattern = regexp.MustCompile(`\((\d{4})\)|(?:^|\s)(\d{4})(?:\s|$)`)

// ExtractYear finds the first plausible release year, either "(YYYY)" or a
// standalone four-digit token, and returns the text without it. Years
// outside 1950..2030 are ignored. When removing the year would leave
// nothing (a film called "2012"), the text is returned whole with no year.
func ExtractYear(s string) (rest string, year int) {
	for _, m := range yearPattern.FindAllStringSubmatchIndex(s, -1) {
		var digits string
		if m[2] >= 0 {
			digits = s[m[2]:m[3]]
		} else {
			digits = s[m[4]:m[5]]
		}
		y, err := strconv.Atoi(digits)
		if err != nil || y < minYear || y > maxYear {
			continue
		}
		rest = collapseSpaces(s[:m[0]] + " " + s[m[1]:])
		if rest == "" {
			return collapseSpaces(s), 0
		}
		return rest, y
	}
	return collapseSpaces(s), 0
}
