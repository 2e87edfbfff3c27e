package handler

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthenticated is returned when a request carries no valid credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator verifies the caller of a request before it reaches the store.
type Authenticator interface {
	Authenticate(r *http.Request) error
}

// TokenAuthenticator accepts requests bearing one of a fixed set of tokens in
// the Authorization header.
type TokenAuthenticator struct {
	digests [][sha256.Size]byte
}

func NewTokenAuthenticator(tokens ...string) *TokenAuthenticator {
	a := &TokenAuthenticator{}
	for _, t := range tokens {
		if t == "" {
			continue
		}
		a.digests = append(a.digests, sha256.Sum256([]byte(t)))
	}
	return a
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) error {
	token, ok := bearerToken(r)
	if !ok {
		return ErrUnauthenticated
	}
	// compare digests so the comparison time is independent of token length
	got := sha256.Sum256([]byte(token))
	match := 0
	for _, want := range a.digests {
		match |= subtle.ConstantTimeCompare(got[:], want[:])
	}
	if match != 1 {
		return ErrUnauthenticated
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authenticate rejects unauthenticated requests before they reach a route.
func (h *Handler) authenticate(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.opts.Authenticator == nil || h.opts.Authenticator.Authenticate(r) != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="dragdrop"`)
			writeError(w, http.StatusUnauthorized, errUnauthenticated, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
