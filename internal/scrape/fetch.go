package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"jobmarket-engine/internal/scrape/types"
	"jobmarket-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

// ErrTransient marks a failure scoped to one page of one source. Callers
// skip the page and move on.
var ErrTransient = errors.New("transient fetch failure")

type Config struct {
	Profile   types.Profile
	UserAgent string
	Timeout   time.Duration
}

type Fetcher struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
}

func New(cfg Config, limiter *util.HostLimiter) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if ua := strings.TrimSpace(cfg.Profile.UserAgent); ua != "" {
		cfg.UserAgent = ua
	}
	return &Fetcher{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}
}

func (f *Fetcher) Name() string { return f.cfg.Profile.Name }

func (f *Fetcher) Profile() types.Profile { return f.cfg.Profile }

// Fetch issues exactly one GET for the given results page and parses the
// HTML. Every failure wraps ErrTransient.
func (f *Fetcher) Fetch(ctx context.Context, query, location string, page int) (*goquery.Document, error) {
	name := f.cfg.Profile.Name

	u, err := util.SearchURL(f.cfg.Profile, query, location, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s build request: %v", ErrTransient, name, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, u); err != nil {
			return nil, fmt.Errorf("%w: %s limiter: %v", ErrTransient, name, err)
		}
	}

	res, err := f.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s get: %v", ErrTransient, name, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s status %d", ErrTransient, name, res.StatusCode)
	}
	if ct := strings.ToLower(res.Header.Get("Content-Type")); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("%w: %s unexpected content type %q", ErrTransient, name, ct)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s parse html: %v", ErrTransient, name, err)
	}
	return doc, nil
}
