package domain

// RawFieldSet is what a listing parser reads out of one posting card,
// before trimming or derivation.
type RawFieldSet struct {
	Title       string
	Company     string
	Location    string
	Description string
	DatePosted  string
}

// JobPosting is the normalized record shared by every source. Treat it as a
// value: nothing mutates a posting after the normalizer built it.
type JobPosting struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	City        string   `json:"city"`
	Description string   `json:"description"`
	DatePosted  string   `json:"date_posted"`
	Source      string   `json:"source"`
	Skills      []string `json:"skills"`
}

// WithSkills returns a copy of p carrying its own copy of skills.
func (p JobPosting) WithSkills(skills []string) JobPosting {
	out := make([]string, len(skills))
	copy(out, skills)
	p.Skills = out
	return p
}
