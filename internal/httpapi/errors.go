package httpapi

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in APIError.Error.Code.
const (
	CodeInvalidTop        = "invalid_top"
	CodeInvalidLimit      = "invalid_limit"
	CodeInvalidJSON       = "invalid_json"
	CodeInvalidConfig     = "invalid_config"
	CodeNoRuns            = "no_runs"
	CodeMethodNotAllowed  = "method_not_allowed"
	CodeAlreadyRunning    = "already_running"
	CodeSaveFailed        = "save_failed"
	CodeReloadFailed      = "reload_failed"
	CodeStoreError        = "store_error"
	CodeStoreUnavailable  = "store_unavailable"
	CodeStreamUnsupported = "stream_unsupported"
	CodeInternal          = "internal_error"
)

var codeStatus = map[string]int{
	CodeInvalidTop:        http.StatusBadRequest,
	CodeInvalidLimit:      http.StatusBadRequest,
	CodeInvalidJSON:       http.StatusBadRequest,
	CodeInvalidConfig:     http.StatusBadRequest,
	CodeNoRuns:            http.StatusNotFound,
	CodeMethodNotAllowed:  http.StatusMethodNotAllowed,
	CodeAlreadyRunning:    http.StatusConflict,
	CodeSaveFailed:        http.StatusInternalServerError,
	CodeReloadFailed:      http.StatusInternalServerError,
	CodeStoreError:        http.StatusInternalServerError,
	CodeStoreUnavailable:  http.StatusServiceUnavailable,
	CodeStreamUnsupported: http.StatusInternalServerError,
	CodeInternal:          http.StatusInternalServerError,
}

// StatusFor maps an error code to its HTTP status. Unknown codes are 500.
func StatusFor(code string) int {
	if s, ok := codeStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type APIError struct {
	Error ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope under the status mapped to code.
func WriteError(w http.ResponseWriter, r *http.Request, code, message string) {
	writeErrorDetails(w, r, code, message, nil)
}

func writeErrorDetails(w http.ResponseWriter, r *http.Request, code, message string, details any) {
	writeJSON(w, StatusFor(code), APIError{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFrom(r.Context()),
		Details:   details,
	}})
}
