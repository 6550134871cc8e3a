package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"jobmarket-engine/internal/config"
	"jobmarket-engine/internal/domain"
	"jobmarket-engine/internal/rank"
	"jobmarket-engine/internal/store"
)

type ReportHandler struct {
	DB     *sql.DB
	CfgVal *atomic.Value // stores config.Config
}

type ReportResponse struct {
	RunID      int64         `json:"run_id"`
	Query      string        `json:"query"`
	Location   string        `json:"location"`
	FinishedAt time.Time     `json:"finished_at"`
	Title      string        `json:"title"`
	Report     domain.Report `json:"report"`
	Panels     []rank.Panel  `json:"panels"`
}

// Report re-aggregates the latest run. ?top=N applies one bound to every
// table; otherwise the configured per-table limits are used.
func (h ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	lim := h.limits()
	if _, set := r.URL.Query()["top"]; set {
		top, ok := intParam(r, "top", 0)
		if !ok {
			WriteError(w, r, CodeInvalidTop, "top must be a non-negative integer")
			return
		}
		lim = rank.Uniform(top)
	}

	run, err := store.LatestRun(r.Context(), h.DB)
	if h.storeErr(w, r, err) {
		return
	}

	rep := rank.AggregateWith(run.Postings, lim)
	writeJSON(w, http.StatusOK, ReportResponse{
		RunID:      run.ID,
		Query:      run.Query,
		Location:   run.Location,
		FinishedAt: run.FinishedAt,
		Title:      rank.DashboardTitle,
		Report:     rep,
		Panels:     rank.Panels(rep, lim),
	})
}

func (h ReportHandler) Postings(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", 0)
	if !ok {
		WriteError(w, r, CodeInvalidLimit, "limit must be a non-negative integer")
		return
	}

	postings, err := store.ListPostings(r.Context(), h.DB, store.ListPostingsOpts{
		Source: strings.TrimSpace(r.URL.Query().Get("source")),
		Limit:  limit,
	})
	if h.storeErr(w, r, err) {
		return
	}
	writeJSON(w, http.StatusOK, postings)
}

func (h ReportHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", 50)
	if !ok {
		WriteError(w, r, CodeInvalidLimit, "limit must be a non-negative integer")
		return
	}

	runs, err := store.ListRuns(r.Context(), h.DB, limit)
	if h.storeErr(w, r, err) {
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h ReportHandler) limits() rank.Limits {
	if cfg, ok := h.CfgVal.Load().(config.Config); ok {
		return cfg.Limits()
	}
	return rank.Uniform(10)
}

func (h ReportHandler) storeErr(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, store.ErrNoRuns):
		WriteError(w, r, CodeNoRuns, "no pipeline run has completed yet")
	default:
		WriteError(w, r, CodeStoreError, err.Error())
	}
	return true
}
