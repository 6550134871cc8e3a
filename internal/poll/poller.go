package poll

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"jobmarket-engine/internal/config"
	"jobmarket-engine/internal/events"
	"jobmarket-engine/internal/scheduler"
	"jobmarket-engine/internal/scrape/types"
	"jobmarket-engine/internal/scrape/util"
	"jobmarket-engine/internal/store"
)

var ErrAlreadyRunning = errors.New("run already in progress")

// Service owns run bookkeeping: one run at a time, status, persistence and
// event notification.
type Service struct {
	DB      *sql.DB // optional; runs are not persisted when nil
	Hub     *events.Hub
	CfgVal  *atomic.Value // stores config.Config
	Limiter *util.HostLimiter

	// Build defaults to NewRunner.
	Build func(cfg config.Config) *Runner

	mu      sync.Mutex
	running bool
	status  types.RunStatus
}

func (s *Service) Status() types.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	s.status.Running = true
	s.status.LastRunAt = time.Now().Format(time.RFC3339)
	return true
}

func (s *Service) end(postings int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.status.Running = false
	s.status.LastPosting = postings
	if err != nil {
		s.status.LastError = err.Error()
		return
	}
	s.status.LastError = ""
	s.status.LastOkAt = time.Now().Format(time.RFC3339)
}

// Run executes one pipeline pass with the current config and stores it.
func (s *Service) Run(ctx context.Context) (Result, error) {
	if !s.begin() {
		return Result{}, ErrAlreadyRunning
	}
	return s.finish(ctx)
}

// Start claims the run slot and executes the pass in the background. It
// reports false when a run is already in flight.
func (s *Service) Start(ctx context.Context) bool {
	if !s.begin() {
		return false
	}
	go func() {
		_, _ = s.finish(ctx)
	}()
	return true
}

// finish runs a pass whose slot begin already claimed.
func (s *Service) finish(ctx context.Context) (Result, error) {
	res, err := s.run(ctx)
	s.end(len(res.Postings), err)

	if err != nil {
		log.Printf("[poll] error: %v", err)
		s.Hub.Emit("", events.RunFailed, map[string]any{"error": err.Error()})
		return res, err
	}
	log.Printf("[poll] ok postings=%d", len(res.Postings))
	return res, nil
}

func (s *Service) run(ctx context.Context) (Result, error) {
	cfgAny := s.CfgVal.Load()
	if cfgAny == nil {
		return Result{}, errors.New("no config loaded")
	}
	cfg := cfgAny.(config.Config)

	build := s.Build
	if build == nil {
		build = func(c config.Config) *Runner { return NewRunner(c, s.Limiter) }
	}
	runner := build(cfg)
	opts := OptionsFromConfig(cfg)

	s.Hub.Emit("", events.RunStarted, map[string]any{
		"query":    opts.Query,
		"location": opts.Location,
		"sources":  len(runner.Fetchers),
	})

	res, err := runner.RunOnce(ctx, opts)
	if err != nil {
		return res, err
	}

	var runID int64
	if s.DB != nil {
		runID, err = store.SaveRun(ctx, s.DB, store.Run{
			Query:      res.Query,
			Location:   res.Location,
			StartedAt:  res.StartedAt,
			FinishedAt: res.FinishedAt,
			Sources:    res.Sources,
			Postings:   res.Postings,
		})
		if err != nil {
			return res, err
		}
	}

	s.Hub.Emit("", events.RunFinished, map[string]any{
		"run_id":   runID,
		"postings": len(res.Postings),
		"sources":  res.Sources,
	})
	return res, nil
}

// pollRecheck is how often a paused poller looks at the config again.
var pollRecheck = time.Minute

// StartPoller reruns the pipeline every polling.interval_minutes. The
// interval is read from the live config before each cycle, so a config PUT
// changes the cadence without a restart. Zero pauses polling.
func StartPoller(ctx context.Context, s *Service) {
	interval := func() time.Duration {
		cfg, ok := s.CfgVal.Load().(config.Config)
		if !ok {
			return 0
		}
		return cfg.PollInterval()
	}
	if interval() <= 0 {
		log.Printf("[poll] polling paused interval_minutes=0")
	}

	go scheduler.Every(ctx, "poll", interval, pollRecheck, func(ctx context.Context) error {
		_, err := s.Run(ctx)
		if errors.Is(err, ErrAlreadyRunning) {
			return nil
		}
		return err
	})
}
