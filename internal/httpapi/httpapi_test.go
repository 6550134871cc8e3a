package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"jobmarket-engine/internal/config"
	"jobmarket-engine/internal/domain"
	"jobmarket-engine/internal/events"
	"jobmarket-engine/internal/poll"
	"jobmarket-engine/internal/rank"
	"jobmarket-engine/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	h      http.Handler
	deps   Deps
	cfgVal *atomic.Value
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "jobmarket.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg, vr := config.NormalizeAndValidate(config.Config{})
	require.True(t, vr.OK())
	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, config.SaveAtomic(cfgPath, cfg))

	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	hub := events.NewHub()
	d := Deps{
		DB:     db.Pool,
		Hub:    hub,
		CfgVal: &cfgVal,
		Runs: &poll.Service{
			DB:     db.Pool,
			Hub:    hub,
			CfgVal: &cfgVal,
			Build:  func(config.Config) *poll.Runner { return &poll.Runner{} },
		},
		UserCfgPath: cfgPath,
		LoadCfg: func() (config.Config, error) {
			c, err := config.Load(cfgPath)
			if err != nil {
				return c, err
			}
			c, _ = config.NormalizeAndValidate(c)
			return c, nil
		},
	}
	return &fixture{h: NewHandler(d), deps: d, cfgVal: &cfgVal}
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	_, err := store.SaveRun(context.Background(), f.deps.DB, store.Run{
		Query:      "data scientist",
		Location:   "United States",
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		Postings: []domain.JobPosting{
			{Title: "Data Scientist", Company: "Acme", City: "New York", Source: "Indeed", Skills: []string{"python"}},
			{Title: "Data Analyst", Company: "Acme", City: "Boston", Source: "Indeed", Skills: []string{"sql"}},
			{Title: "Data Scientist", Company: "Globex", City: "New York", Source: "LinkedIn", Skills: []string{"python", "sql"}},
		},
	})
	require.NoError(t, err)
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	h := decode[HealthResponse](t, rec)
	assert.True(t, h.OK)
	assert.Equal(t, 1, h.Schema)
	assert.False(t, h.Run.Running)
}

func TestHealth_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.deps.DB.Close())

	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, CodeStoreUnavailable, decode[APIError](t, rec).Error.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/report", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))

	e := decode[APIError](t, rec)
	assert.Equal(t, CodeMethodNotAllowed, e.Error.Code)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), e.Error.RequestID)

	rec = f.do(t, http.MethodDelete, "/config", "")
	assert.Equal(t, "GET, PUT", rec.Header().Get("Allow"))
}

func TestCors_MethodsFromRoutes(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/config", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, []string{"GET", "POST", "PUT"}, allowedMethods(routes(f.deps)))
}

func TestAccessLog_RouteAndParams(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })

	f := newFixture(t)
	f.seed(t)
	req := httptest.NewRequest(http.MethodGet, "/report?top=3&source=Indeed&ignored=1", nil)
	req.Header.Set("X-Request-ID", "req-42")
	f.h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	assert.Contains(t, line, "[http] request_id=req-42 method=GET route=/report status=200")
	assert.Contains(t, line, `top="3" source="Indeed"`)
	assert.NotContains(t, line, "ignored")

	buf.Reset()
	f.h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Contains(t, buf.String(), "route=- status=404")
}

func TestReport_NoRuns(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/report", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNoRuns, decode[APIError](t, rec).Error.Code)

	rec = f.do(t, http.MethodGet, "/postings", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]store.Run](t, rec))
}

func TestReport_TopParam(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	rec := f.do(t, http.MethodGet, "/report?top=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ReportResponse](t, rec)

	assert.Equal(t, rank.DashboardTitle, resp.Title)
	assert.Equal(t, 3, resp.Report.Total)
	assert.Equal(t, []domain.Count{{Label: "Data Scientist", Count: 2}}, resp.Report.Titles)
	assert.Equal(t, []domain.Count{{Label: "Acme", Count: 2}}, resp.Report.Companies)
	assert.Equal(t, []domain.Count{{Label: "python", Count: 2}}, resp.Report.Skills)
	require.Len(t, resp.Panels, 4)
	assert.Equal(t, "Top 1 Job Titles", resp.Panels[0].Title)

	rec = f.do(t, http.MethodGet, "/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[ReportResponse](t, rec)
	assert.Len(t, resp.Report.Titles, 2)
	assert.Equal(t, "Top 10 Job Titles", resp.Panels[0].Title)

	rec = f.do(t, http.MethodGet, "/report?top=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidTop, decode[APIError](t, rec).Error.Code)

	rec = f.do(t, http.MethodGet, "/postings?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidLimit, decode[APIError](t, rec).Error.Code)
}

func TestPostings_FilterBySource(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	rec := f.do(t, http.MethodGet, "/postings?source=LinkedIn", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ps := decode[[]domain.JobPosting](t, rec)
	require.Len(t, ps, 1)
	assert.Equal(t, "Globex", ps[0].Company)

	rec = f.do(t, http.MethodGet, "/postings", "")
	assert.Len(t, decode[[]domain.JobPosting](t, rec), 3)
}

func TestConfig_GetPutValidate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cur := decode[config.Config](t, rec)
	assert.Equal(t, "data scientist", cur.Search.Query)

	bad := cur
	bad.Search.PolitenessSeconds = 1
	b, _ := json.Marshal(bad)
	rec = f.do(t, http.MethodPut, "/config", string(b))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	invalid := decode[struct {
		Error struct {
			Code    string            `json:"code"`
			Details config.Validation `json:"details"`
		} `json:"error"`
	}](t, rec)
	assert.Equal(t, CodeInvalidConfig, invalid.Error.Code)
	assert.Contains(t, invalid.Error.Details.Errors, "search.politeness_seconds must be >= 2")

	rec = f.do(t, http.MethodPut, "/config", `{"nope": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidJSON, decode[APIError](t, rec).Error.Code)

	good := cur
	good.Search.Query = "site reliability engineer"
	b, _ = json.Marshal(good)
	rec = f.do(t, http.MethodPut, "/config", string(b))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "site reliability engineer", f.cfgVal.Load().(config.Config).Search.Query)

	rec = f.do(t, http.MethodGet, "/config/validate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[config.Validation](t, rec).Errors)
}

func TestRun_StartsAndRecords(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/run", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	if rec2 := f.do(t, http.MethodPost, "/run", ""); rec2.Code != http.StatusAccepted {
		assert.Equal(t, http.StatusConflict, rec2.Code)
		assert.Equal(t, CodeAlreadyRunning, decode[APIError](t, rec2).Error.Code)
	}

	assert.Eventually(t, func() bool {
		return f.deps.Runs.Status().LastOkAt != ""
	}, 2*time.Second, 10*time.Millisecond)

	rec = f.do(t, http.MethodGet, "/run/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[map[string]any](t, rec)
	assert.Equal(t, false, st["running"])

	rec = f.do(t, http.MethodGet, "/runs", "")
	assert.Len(t, decode[[]store.Run](t, rec), 1)
}

func TestEvents_StreamsPingAndRunEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	br := bufio.NewReader(resp.Body)
	type frame struct {
		id, name string
		event    events.Event
	}
	next := func() frame {
		var fr frame
		for {
			line, err := br.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "id: "):
				fr.id = strings.TrimPrefix(line, "id: ")
			case strings.HasPrefix(line, "event: "):
				fr.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &fr.event))
			case line == "" && fr.name != "":
				return fr
			}
		}
	}

	ping := next()
	assert.Equal(t, events.Ping, ping.name)
	assert.Equal(t, events.Ping, ping.event.Type)
	assert.Empty(t, ping.id)

	f.deps.Hub.Emit("", events.RunFinished, map[string]int{"postings": 0})
	fin := next()
	assert.Equal(t, events.RunFinished, fin.name)
	assert.Equal(t, events.RunFinished, fin.event.Type)
	assert.Equal(t, "1", fin.id)
}

func TestEvents_KeepAlive(t *testing.T) {
	hub := events.NewHub()
	srv := httptest.NewServer(http.HandlerFunc(EventsHandler{Hub: hub, KeepAlive: 10 * time.Millisecond}.ServeSSE))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	br := bufio.NewReader(resp.Body)
	for {
		line, err := br.ReadString('\n')
		require.NoError(t, err)
		if line == ": keepalive\n" {
			return
		}
	}
}
