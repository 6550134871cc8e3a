package poll

import (
	"context"
	"log"
	"time"

	"jobmarket-engine/internal/domain"
	"jobmarket-engine/internal/rank"
	"jobmarket-engine/internal/scrape"
	"jobmarket-engine/internal/scrape/types"
	"jobmarket-engine/internal/scrape/util"
	"jobmarket-engine/internal/skills"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Query    string
	Location string
	Pages    int
	Limits   rank.Limits
	// Delay is the pause between two page requests to the same source.
	Delay    time.Duration
	Parallel bool
}

type Result struct {
	Query      string              `json:"query"`
	Location   string              `json:"location"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Postings   []domain.JobPosting `json:"postings"`
	Report     domain.Report       `json:"report"`
	Sources    []types.SourceStats `json:"sources"`
}

// Runner drives fetch -> parse -> normalize -> extract over every source and
// aggregates once at the end.
type Runner struct {
	Fetchers []types.PageFetcher
	Skills   skills.Extractor
	// Pause defaults to util.Pause.
	Pause func(ctx context.Context, d time.Duration) error
}

// accumulator is owned by exactly one source stream.
type accumulator struct {
	stats    types.SourceStats
	postings []domain.JobPosting
}

func (r *Runner) RunOnce(ctx context.Context, opts Options) (Result, error) {
	res := Result{
		Query:     opts.Query,
		Location:  opts.Location,
		StartedAt: time.Now().UTC(),
	}

	accs := make([]*accumulator, len(r.Fetchers))
	for i, f := range r.Fetchers {
		accs[i] = &accumulator{stats: types.SourceStats{Source: f.Name()}}
	}

	if opts.Parallel {
		var g errgroup.Group
		for i, f := range r.Fetchers {
			i, f := i, f
			g.Go(func() error {
				return r.runSource(ctx, f, opts, accs[i])
			})
		}
		if err := g.Wait(); err != nil {
			return res, err
		}
	} else {
		for i, f := range r.Fetchers {
			if err := r.runSource(ctx, f, opts, accs[i]); err != nil {
				return res, err
			}
		}
	}

	// merge in source order so parallel and sequential runs rank identically
	all := []domain.JobPosting{}
	for _, acc := range accs {
		all = append(all, acc.postings...)
		res.Sources = append(res.Sources, acc.stats)
	}

	res.Postings = all
	res.Report = rank.AggregateWith(all, opts.Limits)
	res.FinishedAt = time.Now().UTC()
	log.Printf("[poll] done query=%q location=%q postings=%d", opts.Query, opts.Location, len(all))
	return res, nil
}

// runSource pages through one source in order. Transient page failures are
// logged and skipped; only context cancellation stops the loop.
func (r *Runner) runSource(ctx context.Context, f types.PageFetcher, opts Options, acc *accumulator) error {
	pause := r.Pause
	if pause == nil {
		pause = util.Pause
	}
	name := f.Name()

	for page := 0; page < opts.Pages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := f.Fetch(ctx, opts.Query, opts.Location, page)
		acc.stats.Pages++
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			acc.stats.Failed++
			log.Printf("[poll:%s] page=%d skipped err=%v", name, page, err)
		} else {
			added := r.process(doc, f.Profile(), name, acc)
			log.Printf("[poll:%s] page=%d postings=%d", name, page, added)
		}

		if page < opts.Pages-1 {
			if err := pause(ctx, opts.Delay); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) process(doc *goquery.Document, p types.Profile, source string, acc *accumulator) int {
	raws := scrape.Parse(doc, p)
	for _, raw := range raws {
		posting := scrape.Normalize(raw, source)
		if r.Skills != nil {
			posting = posting.WithSkills(r.Skills.Extract(posting.Description))
		}
		acc.postings = append(acc.postings, posting)
	}
	acc.stats.Postings += len(raws)
	return len(raws)
}
