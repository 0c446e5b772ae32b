package parser

import (
	"regexp"
	"strings"
)

var (
	// "Oppenheimer - ★★★★½"
	ratingGlyphsRe = regexp.MustCompile(`\s*-\s*[★☆✭✫½]+\s*$`)
	// "The Hobbit, 1937 -". A bare trailing number without comma or dash
	// belongs to the title ("Blade Runner 2049").
	yearSuffixRe = regexp.MustCompile(`(?:,\s*\d{4}\s*-?|\s+\d{4}\s*-)\s*$`)
)

// CleanTitle strips decorations vendors append to entry titles: a trailing
// star rating, then a trailing release year. It never empties a title.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, re := range []*regexp.Regexp{ratingGlyphsRe, yearSuffixRe} {
		if stripped := strings.TrimSpace(re.ReplaceAllString(title, "")); stripped != "" {
			title = stripped
		}
	}
	return title
}
