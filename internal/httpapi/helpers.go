package httpapi

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// methodMux dispatches on method and answers 405 with an Allow header for
// the rest.
func methodMux(path string, m map[string]http.HandlerFunc) http.HandlerFunc {
	allow := make([]string, 0, len(m))
	for method := range m {
		allow = append(allow, method)
	}
	slices.Sort(allow)

	return func(w http.ResponseWriter, r *http.Request) {
		setRoute(r, path)
		if h, ok := m[r.Method]; ok {
			h(w, r)
			return
		}
		w.Header().Set("Allow", strings.Join(allow, ", "))
		WriteError(w, r, CodeMethodNotAllowed, r.Method+" not allowed on "+path)
	}
}

// intParam reads a non-negative integer query parameter. ok is false when
// the value is present but malformed.
func intParam(r *http.Request, name string, def int) (n int, ok bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
