package config

import (
	"fmt"
	"net/url"
	"strings"

	"jobmarket-engine/internal/scrape"
	"jobmarket-engine/internal/scrape/types"

	"github.com/andybalholm/cascadia"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills defaults, expands shorthand source entries and
// returns the normalized copy with everything wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	// ---- Defaults ----

	if out.App.Port == 0 {
		out.App.Port = defaultPort
	}
	out.App.UserAgent = strings.TrimSpace(out.App.UserAgent)
	if out.App.UserAgent == "" {
		out.App.UserAgent = scrape.DefaultUserAgent
	}
	out.Search.Query = strings.TrimSpace(out.Search.Query)
	if out.Search.Query == "" {
		out.Search.Query = defaultQuery
	}
	out.Search.Location = strings.TrimSpace(out.Search.Location)
	if out.Search.Location == "" {
		out.Search.Location = defaultLocation
	}
	if out.Search.Pages == 0 {
		out.Search.Pages = defaultPages
	}
	if out.Search.TopN == 0 {
		out.Search.TopN = defaultTopN
	}
	if out.Search.PolitenessSeconds == 0 {
		out.Search.PolitenessSeconds = MinPolitenessSeconds
	}
	out.Skills = trimList(out.Skills)
	out.Sources = expandSources(out.Sources)

	// ---- Validation rules ----

	if out.App.Port < 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if out.Search.Pages < 0 {
		res.addErr("search.pages must be > 0")
	} else if out.Search.Pages > 20 {
		res.addWarn("search.pages is %d; sources often stop serving results long before that.", out.Search.Pages)
	}
	if out.Search.TopN < 0 {
		res.addErr("search.top_n must be > 0")
	}
	if out.Search.PolitenessSeconds < MinPolitenessSeconds {
		res.addErr("search.politeness_seconds must be >= %d", MinPolitenessSeconds)
	}
	if out.Polling.IntervalMinutes < 0 {
		res.addErr("polling.interval_minutes must be >= 0 (0 disables polling)")
	}
	for name, v := range map[string]int{
		"report.top_titles":    out.Report.Titles,
		"report.top_companies": out.Report.Companies,
		"report.top_cities":    out.Report.Cities,
		"report.top_skills":    out.Report.Skills,
	} {
		if v < 0 {
			res.addErr("%s must be >= 0", name)
		}
	}

	if len(out.EnabledSources()) == 0 {
		res.addErr("no sources enabled")
	}
	seen := map[string]bool{}
	for i, p := range out.Sources {
		key := strings.ToLower(p.Name)
		if key != "" && seen[key] {
			res.addErr("sources[%d].name %q is duplicated", i, p.Name)
		}
		seen[key] = true
		checkProfile(&res, i, p)
	}

	return out, res
}

// expandSources turns empty config into the shipped profiles and fills a
// shorthand entry (a builtin name without search_url) from its builtin.
func expandSources(in []types.Profile) []types.Profile {
	if len(in) == 0 {
		return scrape.Builtins()
	}
	out := make([]types.Profile, 0, len(in))
	for _, p := range in {
		p.Name = strings.TrimSpace(p.Name)
		if strings.TrimSpace(p.SearchURL) == "" {
			if b, ok := scrape.Builtin(p.Name); ok {
				b.Disabled = p.Disabled
				if p.UserAgent != "" {
					b.UserAgent = p.UserAgent
				}
				p = b
			}
		}
		if p.Spaces == "" {
			p.Spaces = types.SpacePlus
		}
		out = append(out, p)
	}
	return out
}

func checkProfile(res *Validation, i int, p types.Profile) {
	at := func(field string) string { return fmt.Sprintf("sources[%d].%s", i, field) }

	if p.Name == "" {
		res.addErr("%s is required", at("name"))
	}
	if u, err := url.Parse(p.SearchURL); err != nil || u.Scheme == "" || u.Host == "" {
		res.addErr("%s must be an absolute URL", at("search_url"))
	}
	if p.QueryParam == "" || p.LocationParam == "" || p.OffsetParam == "" {
		res.addErr("%s: query_param, location_param and offset_param are required", at("name"))
	}
	if p.Stride <= 0 {
		res.addErr("%s must be > 0", at("stride"))
	}
	if p.Spaces != types.SpacePlus && p.Spaces != types.SpacePercent {
		res.addErr("%s must be %q or %q", at("spaces"), types.SpacePlus, types.SpacePercent)
	}
	if strings.TrimSpace(p.Card) == "" {
		res.addErr("%s is required", at("card"))
	} else {
		checkSelector(res, at("card"), p.Card)
	}
	if strings.TrimSpace(p.Fields.Title.Selector) == "" {
		res.addErr("%s is required", at("fields.title.selector"))
	}
	if strings.TrimSpace(p.Fields.Company.Selector) == "" {
		res.addErr("%s is required", at("fields.company.selector"))
	}
	for _, f := range []struct {
		name string
		sel  string
	}{
		{"title", p.Fields.Title.Selector},
		{"company", p.Fields.Company.Selector},
		{"location", p.Fields.Location.Selector},
		{"description", p.Fields.Description.Selector},
		{"date_posted", p.Fields.DatePosted.Selector},
	} {
		if strings.TrimSpace(f.sel) != "" {
			checkSelector(res, at("fields."+f.name+".selector"), f.sel)
		}
	}
	if strings.TrimSpace(p.Fields.Description.Selector) == "" {
		res.addWarn("%s has no description selector; its postings will carry no skills.", p.Name)
	}
}

// checkSelector rejects CSS that goquery would fail to compile at scrape
// time.
func checkSelector(res *Validation, field, sel string) {
	if _, err := cascadia.Compile(sel); err != nil {
		res.addErr("%s is not a valid selector: %v", field, err)
	}
}
