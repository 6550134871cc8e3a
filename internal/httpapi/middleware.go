package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"
)

type Middleware func(http.Handler) http.Handler

// Chain wraps h so the first middleware listed sees the request first.
func Chain(h http.Handler, m ...Middleware) http.Handler {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	accessKey
)

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID honours a caller supplied X-Request-ID and mints one otherwise.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			var b [8]byte
			_, _ = rand.Read(b[:])
			id = hex.EncodeToString(b[:])
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[http] panic request_id=%s route=%s err=%v", RequestIDFrom(r.Context()), routeFrom(r), rec)
				WriteError(w, r, CodeInternal, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// access collects what the log line needs from deeper handlers.
type access struct {
	route string
}

// setRoute records the matched route pattern for AccessLog.
func setRoute(r *http.Request, route string) {
	if a, ok := r.Context().Value(accessKey).(*access); ok {
		a.route = route
	}
}

func routeFrom(r *http.Request) string {
	if a, ok := r.Context().Value(accessKey).(*access); ok && a.route != "" {
		return a.route
	}
	return "-"
}

// loggedParams are the query parameters that shape a response and are worth
// seeing in the access log.
var loggedParams = []string{"top", "source", "limit"}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.bytes += n
	return n, err
}

// Flush lets the SSE stream through.
func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// AccessLog writes one line per request naming the matched route rather
// than the raw path, plus the report shaping parameters when present.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		a := &access{}
		sw := &statusWriter{ResponseWriter: w}
		r = r.WithContext(context.WithValue(r.Context(), accessKey, a))
		next.ServeHTTP(sw, r)

		var params strings.Builder
		q := r.URL.Query()
		for _, name := range loggedParams {
			if v, ok := q[name]; ok {
				fmt.Fprintf(&params, " %s=%q", name, v[0])
			}
		}
		log.Printf("[http] request_id=%s method=%s route=%s status=%d bytes=%d dur_ms=%d%s",
			RequestIDFrom(r.Context()), r.Method, routeFrom(r), sw.status, sw.bytes,
			time.Since(start).Milliseconds(), params.String())
	})
}

// Cors lets a local dashboard on another port call the API. methods is the
// union of what the route table serves.
func Cors(methods []string) Middleware {
	allow := strings.Join(append(slices.Clone(methods), http.MethodOptions), ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
				h.Set("Access-Control-Allow-Methods", allow)
				h.Set("Access-Control-Expose-Headers", "X-Request-ID")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
