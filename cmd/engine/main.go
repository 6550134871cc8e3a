package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"jobmarket-engine/internal/config"
	"jobmarket-engine/internal/events"
	"jobmarket-engine/internal/httpapi"
	"jobmarket-engine/internal/poll"
	"jobmarket-engine/internal/rank"
	"jobmarket-engine/internal/scrape/util"
	"jobmarket-engine/internal/store"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
)

const runRetention = 90 * 24 * time.Hour

func main() {
	once := flag.Bool("once", false, "run the pipeline once, print the report as JSON and exit")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	dataDir := os.Getenv("JOBMARKET_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine per data dir.
	lock := flock.New(filepath.Join(dataDir, "jobmarket.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("lock data dir: %v", err)
	}
	if !locked {
		log.Fatalf("another engine is already using %s", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}
	sourcesPath := filepath.Join(dataDir, "sources.yml")

	loadCfg := func() (config.Config, error) {
		return loadConfig(userCfgPath, sourcesPath)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "jobmarket.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("open store (%s): %v", dbPath, err)
	}
	defer db.Close()

	if n, err := store.CleanupOldRuns(context.Background(), db.Pool, time.Now().Add(-runRetention)); err != nil {
		log.Printf("[store] cleanup error: %v", err)
	} else if n > 0 {
		log.Printf("[store] cleanup removed=%d", n)
	}

	hub := events.NewHub()
	svc := &poll.Service{
		DB:      db.Pool,
		Hub:     hub,
		CfgVal:  &cfgVal,
		Limiter: util.NewHostLimiter(1.0/float64(config.MinPolitenessSeconds), 1),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := runOnce(ctx, svc, cfg); err != nil {
			log.Printf("run failed: %v", err)
			stop()
			_ = lock.Unlock()
			os.Exit(1)
		}
		return
	}

	poll.StartPoller(ctx, svc)

	handler := httpapi.NewHandler(httpapi.Deps{
		DB:          db.Pool,
		Hub:         hub,
		CfgVal:      &cfgVal,
		Runs:        svc,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (db=%s)", addr, dbPath)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server error: %v", err)
	}
}

// loadConfig reads config.yml, applies the sources overlay and env
// overrides, then normalizes. Warnings are logged; errors fail the load.
func loadConfig(cfgPath, sourcesPath string) (config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cfg, err
	}
	if err := config.OverlaySources(&cfg, sourcesPath); err != nil {
		return cfg, fmt.Errorf("sources overlay: %w", err)
	}
	if q := strings.TrimSpace(os.Getenv("JOBMARKET_QUERY")); q != "" {
		cfg.Search.Query = q
	}
	if l := strings.TrimSpace(os.Getenv("JOBMARKET_LOCATION")); l != "" {
		cfg.Search.Location = l
	}

	norm, vr := config.NormalizeAndValidate(cfg)
	for _, w := range vr.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !vr.OK() {
		return cfg, fmt.Errorf("invalid config: %s", strings.Join(vr.Errors, "; "))
	}
	return norm, nil
}

type onceOutput struct {
	Title  string       `json:"title"`
	Result poll.Result  `json:"result"`
	Panels []rank.Panel `json:"panels"`
}

func runOnce(ctx context.Context, svc *poll.Service, cfg config.Config) error {
	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	res.Postings = nil

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(onceOutput{
		Title:  rank.DashboardTitle,
		Result: res,
		Panels: rank.Panels(res.Report, cfg.Limits()),
	})
}
