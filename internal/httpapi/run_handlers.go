package httpapi

import (
	"context"
	"net/http"

	"jobmarket-engine/internal/poll"
)

type RunHandler struct {
	Runs *poll.Service
}

func (h RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Runs.Status())
}

// Run starts a pipeline pass in the background. The run outlives the
// request, so it is detached from the request context.
func (h RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.Runs.Start(context.WithoutCancel(r.Context())) {
		WriteError(w, r, CodeAlreadyRunning, "a run is already in progress")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
