package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"jobmarket-engine/internal/events"
)

const defaultKeepAlive = 15 * time.Second

type EventsHandler struct {
	Hub *events.Hub
	// KeepAlive is the idle gap before a comment line is sent to hold the
	// connection open. Zero means defaultKeepAlive.
	KeepAlive time.Duration
}

// ServeSSE streams hub events. Each frame is named after the event type and
// carries the hub sequence number as its id, so a client can spot gaps left
// by a full buffer. The stream opens with a ping.
func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, CodeStreamUnsupported, "response writer cannot stream")
		return
	}

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeFrame(w, events.New(RequestIDFrom(r.Context()), events.Ping, nil))
	flusher.Flush()

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	t := time.NewTicker(keepAlive)
	defer t.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-t.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeFrame(w, e)
			flusher.Flush()
			t.Reset(keepAlive)
		}
	}
}

func writeFrame(w http.ResponseWriter, e events.Event) {
	if e.Seq > 0 {
		fmt.Fprintf(w, "id: %d\n", e.Seq)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, e.JSON())
}
