// engine/internal/config/config.go
package config

import (
	"os"
	"time"

	"jobmarket-engine/internal/rank"
	"jobmarket-engine/internal/scrape/types"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port      int    `yaml:"port" json:"port"`
		DataDir   string `yaml:"data_dir" json:"data_dir"`
		UserAgent string `yaml:"user_agent" json:"user_agent"`
	} `yaml:"app" json:"app"`

	Search struct {
		Query             string `yaml:"query" json:"query"`
		Location          string `yaml:"location" json:"location"`
		Pages             int    `yaml:"pages" json:"pages"`
		TopN              int    `yaml:"top_n" json:"top_n"`
		PolitenessSeconds int    `yaml:"politeness_seconds" json:"politeness_seconds"`
		ParallelSources   bool   `yaml:"parallel_sources" json:"parallel_sources"`
	} `yaml:"search" json:"search"`

	// Report overrides top_n per table; zero entries fall back to top_n.
	Report rank.Limits `yaml:"report" json:"report"`

	Polling struct {
		IntervalMinutes int `yaml:"interval_minutes" json:"interval_minutes"`
	} `yaml:"polling" json:"polling"`

	Sources []types.Profile `yaml:"sources" json:"sources"`
	Skills  []string        `yaml:"skills" json:"skills"`
}

const (
	MinPolitenessSeconds = 2

	defaultPort     = 38472
	defaultQuery    = "data scientist"
	defaultLocation = "United States"
	defaultPages    = 5
	defaultTopN     = 10
)

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Limits resolves the per-table bounds.
func (c Config) Limits() rank.Limits {
	lim := c.Report
	fill := func(v *int) {
		if *v <= 0 {
			*v = c.Search.TopN
		}
	}
	fill(&lim.Titles)
	fill(&lim.Companies)
	fill(&lim.Cities)
	fill(&lim.Skills)
	return lim
}

func (c Config) Politeness() time.Duration {
	return time.Duration(c.Search.PolitenessSeconds) * time.Second
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Polling.IntervalMinutes) * time.Minute
}

// EnabledSources returns the profiles that take part in a run, in order.
func (c Config) EnabledSources() []types.Profile {
	var out []types.Profile
	for _, p := range c.Sources {
		if !p.Disabled {
			out = append(out, p)
		}
	}
	return out
}
