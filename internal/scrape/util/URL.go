package util

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"jobmarket-engine/internal/scrape/types"
)

// EncodeToken escapes a query/location value for a search URL, writing
// spaces the way the source expects.
func EncodeToken(s string, enc types.SpaceEncoding) string {
	q := url.QueryEscape(s) // spaces become '+'
	if enc == types.SpacePercent {
		return strings.ReplaceAll(q, "+", "%20")
	}
	return q
}

// SearchURL builds the request URL for one results page.
func SearchURL(p types.Profile, query, location string, page int) (string, error) {
	base := strings.TrimSpace(p.SearchURL)
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%s: bad search_url %q", p.Name, p.SearchURL)
	}
	if page < 0 {
		return "", fmt.Errorf("%s: negative page %d", p.Name, page)
	}

	params := []string{
		p.QueryParam + "=" + EncodeToken(query, p.Spaces),
		p.LocationParam + "=" + EncodeToken(location, p.Spaces),
		p.OffsetParam + "=" + strconv.Itoa(page*p.Stride),
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + strings.Join(params, "&"), nil
}

// HostOf returns the lower-cased host of raw, or "" when it has none.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
