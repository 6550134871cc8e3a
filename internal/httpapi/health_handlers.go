package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"jobmarket-engine/internal/poll"
	"jobmarket-engine/internal/scrape/types"
	"jobmarket-engine/internal/store"
)

type HealthHandler struct {
	DB   *sql.DB
	Runs *poll.Service
}

type HealthResponse struct {
	OK     bool            `json:"ok"`
	Time   string          `json:"time"`
	Schema int             `json:"schema"`
	Run    types.RunStatus `json:"run"`
}

// Health answers 503 when the run database cannot be queried; the poller
// may still be fine but nothing it does would be readable.
func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	schema, err := store.SchemaVersion(ctx, h.DB)
	if err != nil {
		WriteError(w, r, CodeStoreUnavailable, err.Error())
		return
	}

	resp := HealthResponse{OK: true, Time: time.Now().Format(time.RFC3339), Schema: schema}
	if h.Runs != nil {
		resp.Run = h.Runs.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}
