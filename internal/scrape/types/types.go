package types

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// SpaceEncoding selects how spaces in query/location are written into the
// search URL.
type SpaceEncoding string

const (
	SpacePlus    SpaceEncoding = "plus"    // "data scientist" -> data+scientist
	SpacePercent SpaceEncoding = "percent" // "data scientist" -> data%20scientist
)

// FieldSelector locates one field inside a posting card. Attr reads a named
// attribute instead of the node text. An empty Selector means the source
// does not carry the field.
type FieldSelector struct {
	Selector string `yaml:"selector" json:"selector"`
	Attr     string `yaml:"attr,omitempty" json:"attr,omitempty"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty"`
}

type Fields struct {
	Title       FieldSelector `yaml:"title" json:"title"`
	Company     FieldSelector `yaml:"company" json:"company"`
	Location    FieldSelector `yaml:"location" json:"location"`
	Description FieldSelector `yaml:"description" json:"description"`
	DatePosted  FieldSelector `yaml:"date_posted" json:"date_posted"`
}

// Profile is everything that differs between two search sources. Adding a
// source means adding a Profile, not code.
type Profile struct {
	Name          string        `yaml:"name" json:"name"`
	Disabled      bool          `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	SearchURL     string        `yaml:"search_url" json:"search_url"`
	QueryParam    string        `yaml:"query_param" json:"query_param"`
	LocationParam string        `yaml:"location_param" json:"location_param"`
	OffsetParam   string        `yaml:"offset_param" json:"offset_param"`
	Stride        int           `yaml:"stride" json:"stride"`
	Spaces        SpaceEncoding `yaml:"spaces" json:"spaces"`
	UserAgent     string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	Card          string        `yaml:"card" json:"card"`
	Fields        Fields        `yaml:"fields" json:"fields"`
}

// PageFetcher is one search source: a single GET per call, no retries.
type PageFetcher interface {
	Name() string
	Fetch(ctx context.Context, query, location string, page int) (*goquery.Document, error)
	Profile() Profile
}

// SourceStats summarizes one source's share of a pipeline run.
type SourceStats struct {
	Source   string `json:"source"`
	Pages    int    `json:"pages"`
	Failed   int    `json:"failed_pages"`
	Postings int    `json:"postings"`
}

type RunStatus struct {
	LastRunAt   string `json:"last_run_at"`
	LastOkAt    string `json:"last_ok_at"`
	LastError   string `json:"last_error"`
	LastPosting int    `json:"last_postings"`
	Running     bool   `json:"running"`
}
