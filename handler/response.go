package handler

import (
	"encoding/json"
	"net/http"
)

// Error categories reported in the "error" member of error bodies.
const (
	errNotFound             = "not_found"
	errInvalidInput         = "invalid_input"
	errUnauthenticated      = "unauthenticated"
	errUnsupportedMediaType = "unsupported_media_type"
	errTooLarge             = "too_large"
	errMethodNotAllowed     = "method_not_allowed"
	errInternal             = "internal"
)

var okResponse = map[string]bool{"ok": true}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRawJSON writes an already encoded document.
func writeRawJSON(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func writeError(w http.ResponseWriter, status int, category, msg string) {
	writeJSON(w, status, errorResponse{Error: category, Detail: msg})
}
