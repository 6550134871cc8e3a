package scrape

import (
	"strings"

	"jobmarket-engine/internal/domain"
)

// Normalize maps a parsed card onto the common posting shape. Every field is
// trimmed of surrounding whitespace (NBSP included) and otherwise kept
// byte-for-byte, so postings group by their exact text. Skills are attached
// later.
func Normalize(raw domain.RawFieldSet, source string) domain.JobPosting {
	loc := strings.TrimSpace(raw.Location)
	return domain.JobPosting{
		Title:       strings.TrimSpace(raw.Title),
		Company:     strings.TrimSpace(raw.Company),
		Location:    loc,
		City:        City(loc),
		Description: strings.TrimSpace(raw.Description),
		DatePosted:  strings.TrimSpace(raw.DatePosted),
		Source:      strings.TrimSpace(source),
		Skills:      []string{},
	}
}

// City is the trimmed part of location before the first comma.
func City(location string) string {
	city, _, _ := strings.Cut(location, ",")
	return strings.TrimSpace(city)
}
