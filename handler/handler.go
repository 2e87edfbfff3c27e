// Package handler provides the HTTP API in front of the durable store.
package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"

	"github.com/stevemurr/dragdrop-storage/store"
)

const (
	// DefaultLegacyPrefix is the prefix existing clients call.
	DefaultLegacyPrefix = "/api/dragdrop_storage"
	// DefaultAliasPrefix is the namespaced alias of DefaultLegacyPrefix.
	DefaultAliasPrefix = "/api/drag_and_drop_card_backend"
	// DefaultMaxBodyBytes caps the size of a stored document.
	DefaultMaxBodyBytes = 1 << 20
)

type Options struct {
	LegacyPrefix string
	AliasPrefix  string
	MaxBodyBytes int64

	// Authenticator checks every API request. With no authenticator every
	// request is rejected.
	Authenticator Authenticator
}

// Handler holds the API dependencies and registers its routes.
type Handler struct {
	logr.Logger

	kv   *store.KV
	opts Options

	registerOnce sync.Once
}

// New creates a Handler. Zero-valued options take their defaults.
func New(logger logr.Logger, kv *store.KV, opts Options) *Handler {
	if opts.LegacyPrefix == "" {
		opts.LegacyPrefix = DefaultLegacyPrefix
	}
	if opts.AliasPrefix == "" {
		opts.AliasPrefix = DefaultAliasPrefix
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{Logger: logger, kv: kv, opts: opts}
}

// AddHandlers registers the API under both the legacy and alias prefixes,
// each addressing the same store. Routes are registered on the first call
// only; it reports whether this call registered them.
func (h *Handler) AddHandlers(r *mux.Router) (registered bool) {
	h.registerOnce.Do(func() {
		for _, prefix := range []string{h.opts.LegacyPrefix, h.opts.AliasPrefix} {
			r.Handle(prefix+"/keys", h.authenticate(h.listKeys)).Methods("GET")
			r.Handle(prefix+"/items/{key:.+}", h.authenticate(h.getItem)).Methods("GET")
			r.Handle(prefix+"/items/{key:.+}", h.authenticate(h.setItem)).Methods("POST")
			r.Handle(prefix+"/items/{key:.+}", h.authenticate(h.deleteItem)).Methods("DELETE")
		}
		registered = true
		h.V(1).Info("registered routes", "legacy", h.opts.LegacyPrefix, "alias", h.opts.AliasPrefix)
	})
	return registered
}

// ---------- endpoints ----------

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"keys":   h.kv.Len(r.Context()),
	})
}

func (h *Handler) listKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"keys": h.kv.Keys(r.Context())})
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	doc, err := h.kv.Get(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, doc)
}

func (h *Handler) setItem(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r.Header.Get("Content-Type")) {
		writeError(w, http.StatusUnsupportedMediaType, errUnsupportedMediaType, "content type must be application/json")
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errTooLarge, "document is too large")
			return
		}
		writeError(w, http.StatusBadRequest, errInvalidInput, "unable to read request body")
		return
	}

	if err := h.kv.Set(r.Context(), mux.Vars(r)["key"], body); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	existed, err := h.kv.Delete(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if !existed {
		h.storeError(w, r, store.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, okResponse)
}

// ---------- helpers ----------

// storeError maps a store error onto a response. Unexpected errors are
// logged and reported without detail.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, errNotFound, "key not found")
	case errors.Is(err, store.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, errInvalidInput, "invalid JSON")
	case errors.Is(err, store.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, errInvalidInput, err.Error())
	default:
		h.Error(err, "handling request", "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, errInternal, "internal server error")
	}
}

// isJSONContentType accepts a missing content type, application/json and
// any +json media type.
func isJSONContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
