package domain

// Count is one (label, count) row of a ranked table.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Report holds the ranked top-N tables computed over one postings collection.
type Report struct {
	Total     int     `json:"total"`
	Titles    []Count `json:"top_titles"`
	Companies []Count `json:"top_companies"`
	Cities    []Count `json:"top_cities"`
	Skills    []Count `json:"top_skills"`
	Sources   []Count `json:"sources"`
}
