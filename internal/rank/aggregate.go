package rank

import (
	"sort"

	"jobmarket-engine/internal/domain"
)

// Limits bounds each ranked table separately.
type Limits struct {
	Titles    int `yaml:"top_titles" json:"top_titles"`
	Companies int `yaml:"top_companies" json:"top_companies"`
	Cities    int `yaml:"top_cities" json:"top_cities"`
	Skills    int `yaml:"top_skills" json:"top_skills"`
}

// Uniform applies n to every table.
func Uniform(n int) Limits {
	return Limits{Titles: n, Companies: n, Cities: n, Skills: n}
}

// Aggregate ranks titles, companies, cities and skills by frequency and keeps
// the first topN rows of each.
func Aggregate(postings []domain.JobPosting, topN int) domain.Report {
	return AggregateWith(postings, Uniform(topN))
}

func AggregateWith(postings []domain.JobPosting, lim Limits) domain.Report {
	titles := newCounter()
	companies := newCounter()
	cities := newCounter()
	skills := newCounter()
	sources := newCounter()

	for _, p := range postings {
		titles.add(p.Title)
		companies.add(p.Company)
		cities.add(p.City)
		sources.add(p.Source)
		for _, s := range p.Skills {
			skills.add(s)
		}
	}

	return domain.Report{
		Total:     len(postings),
		Titles:    titles.top(lim.Titles),
		Companies: companies.top(lim.Companies),
		Cities:    cities.top(lim.Cities),
		Skills:    skills.top(lim.Skills),
		Sources:   sources.top(len(sources.order)),
	}
}

// counter remembers first-occurrence order so equal counts rank by it.
type counter struct {
	order []string
	n     map[string]int
}

func newCounter() *counter {
	return &counter{n: map[string]int{}}
}

func (c *counter) add(label string) {
	if _, ok := c.n[label]; !ok {
		c.order = append(c.order, label)
	}
	c.n[label]++
}

func (c *counter) top(limit int) []domain.Count {
	out := make([]domain.Count, 0, len(c.order))
	if limit <= 0 {
		return out
	}
	for _, label := range c.order {
		out = append(out, domain.Count{Label: label, Count: c.n[label]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
