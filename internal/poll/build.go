package poll

import (
	"jobmarket-engine/internal/config"
	"jobmarket-engine/internal/scrape"
	"jobmarket-engine/internal/scrape/types"
	"jobmarket-engine/internal/scrape/util"
	"jobmarket-engine/internal/skills"
)

// NewRunner wires one fetcher per enabled source and the configured skill
// vocabulary. cfg must already be normalized.
func NewRunner(cfg config.Config, limiter *util.HostLimiter) *Runner {
	var fetchers []types.PageFetcher
	for _, p := range cfg.EnabledSources() {
		fetchers = append(fetchers, scrape.New(scrape.Config{
			Profile:   p,
			UserAgent: cfg.App.UserAgent,
		}, limiter))
	}

	vocab := skills.Default()
	if len(cfg.Skills) > 0 {
		vocab = skills.NewVocabulary(cfg.Skills...)
	}

	return &Runner{
		Fetchers: fetchers,
		Skills:   skills.VocabularyExtractor{Vocab: vocab},
	}
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Query:    cfg.Search.Query,
		Location: cfg.Search.Location,
		Pages:    cfg.Search.Pages,
		Limits:   cfg.Limits(),
		Delay:    cfg.Politeness(),
		Parallel: cfg.Search.ParallelSources,
	}
}
