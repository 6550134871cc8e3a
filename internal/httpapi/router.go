package httpapi

import (
	"net/http"
	"slices"
)

// route is one path and the handler for each method it serves.
type route struct {
	path    string
	methods map[string]http.HandlerFunc
}

func routes(d Deps) []route {
	hh := HealthHandler{DB: d.DB, Runs: d.Runs}
	rh := ReportHandler{DB: d.DB, CfgVal: d.CfgVal}
	ch := ConfigHandler{CfgVal: d.CfgVal, UserCfgPath: d.UserCfgPath, LoadCfg: d.LoadCfg}
	run := RunHandler{Runs: d.Runs}
	eh := EventsHandler{Hub: d.Hub}

	return []route{
		{"/health", map[string]http.HandlerFunc{http.MethodGet: hh.Health}},

		// Report and stored runs
		{"/report", map[string]http.HandlerFunc{http.MethodGet: rh.Report}},
		{"/postings", map[string]http.HandlerFunc{http.MethodGet: rh.Postings}},
		{"/runs", map[string]http.HandlerFunc{http.MethodGet: rh.Runs}},

		// Config
		{"/config", map[string]http.HandlerFunc{http.MethodGet: ch.Get, http.MethodPut: ch.Put}},
		{"/config/path", map[string]http.HandlerFunc{http.MethodGet: ch.Path}},
		{"/config/validate", map[string]http.HandlerFunc{http.MethodGet: ch.Validate}},

		// Pipeline runs
		{"/run", map[string]http.HandlerFunc{http.MethodPost: run.Run}},
		{"/run/status", map[string]http.HandlerFunc{http.MethodGet: run.Status}},

		{"/events", map[string]http.HandlerFunc{http.MethodGet: eh.ServeSSE}},
	}
}

// NewHandler is the full API: routes plus the middleware stack.
func NewHandler(d Deps) http.Handler {
	rs := routes(d)
	mux := http.NewServeMux()
	for _, rt := range rs {
		mux.HandleFunc(rt.path, methodMux(rt.path, rt.methods))
	}
	return Chain(mux, RequestID, AccessLog, Recover, Cors(allowedMethods(rs)))
}

// allowedMethods is the sorted union of methods across rs.
func allowedMethods(rs []route) []string {
	var out []string
	for _, rt := range rs {
		for m := range rt.methods {
			if !slices.Contains(out, m) {
				out = append(out, m)
			}
		}
	}
	slices.Sort(out)
	return out
}
