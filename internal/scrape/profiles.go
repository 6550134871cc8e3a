package scrape

import (
	"strings"

	"jobmarket-engine/internal/scrape/types"
)

const DefaultUserAgent = "JobMarket/1.0 (+local)"

// Indeed lists ten results per page and writes spaces as '+'.
func Indeed() types.Profile {
	return types.Profile{
		Name:          "Indeed",
		SearchURL:     "https://www.indeed.com/jobs",
		QueryParam:    "q",
		LocationParam: "l",
		OffsetParam:   "start",
		Stride:        10,
		Spaces:        types.SpacePlus,
		Card:          "div.job_seen_beacon",
		Fields: types.Fields{
			Title:       types.FieldSelector{Selector: "h2.jobTitle", Required: true},
			Company:     types.FieldSelector{Selector: "span.companyName", Required: true},
			Location:    types.FieldSelector{Selector: "div.companyLocation"},
			Description: types.FieldSelector{Selector: "div.job-snippet"},
			DatePosted:  types.FieldSelector{Selector: "span.date"},
		},
	}
}

// LinkedIn lists 25 results per page, writes spaces as %20 and carries no
// description on its result cards. A card without a <time datetime> is
// dropped.
func LinkedIn() types.Profile {
	return types.Profile{
		Name:          "LinkedIn",
		SearchURL:     "https://www.linkedin.com/jobs/search",
		QueryParam:    "keywords",
		LocationParam: "location",
		OffsetParam:   "start",
		Stride:        25,
		Spaces:        types.SpacePercent,
		Card:          "div.base-card",
		Fields: types.Fields{
			Title:      types.FieldSelector{Selector: "h3.base-search-card__title", Required: true},
			Company:    types.FieldSelector{Selector: "h4.base-search-card__subtitle", Required: true},
			Location:   types.FieldSelector{Selector: "span.job-search-card__location"},
			DatePosted: types.FieldSelector{Selector: "time", Attr: "datetime", Required: true},
		},
	}
}

// Builtins returns the profiles shipped with the engine, in run order.
func Builtins() []types.Profile {
	return []types.Profile{Indeed(), LinkedIn()}
}

// Builtin looks up a shipped profile by case-insensitive name.
func Builtin(name string) (types.Profile, bool) {
	for _, p := range Builtins() {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return types.Profile{}, false
}
