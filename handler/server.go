package handler

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// shutdownTimeout is the time given for outstanding requests to finish
	// before shutdown.
	shutdownTimeout = 5 * time.Second

	requestIDHeader = "X-Request-ID"
)

type (
	// ServerConfig is the http server config
	ServerConfig struct {
		AllowedOrigins       []string
		EnableRequestLogging bool
	}

	// Server serves the API until its context is cancelled.
	Server struct {
		logr.Logger

		server *http.Server
	}
)

// NewServer constructs the http server for the given API handler.
func NewServer(logger logr.Logger, h *Handler, cfg ServerConfig) *Server {
	return &Server{
		Logger: logger,
		server: &http.Server{
			Handler:           NewRouter(logger, h, cfg),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter wires the API, health and metrics endpoints together with the
// recovery, request id, logging and CORS middleware.
func NewRouter(logger logr.Logger, h *Handler, cfg ServerConfig) http.Handler {
	r := mux.NewRouter()

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errNotFound, "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed, "method not allowed")
	})

	// Catch panics and return 500s
	r.Use(gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(recoveryLogger{logger}),
	))
	r.Use(requestID)

	// Optionally log every request
	if cfg.EnableRequestLogging {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				m := httpsnoop.CaptureMetrics(next, w, r)
				logger.Info("request",
					"duration", fmt.Sprintf("%dms", m.Duration.Milliseconds()),
					"status", m.Code,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", w.Header().Get(requestIDHeader))
			})
		})
	}

	r.HandleFunc("/healthz", h.health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	h.AddHandlers(r)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(origins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.AllowCredentials(),
	)(r)
}

// requestID echoes the caller's request id, or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// recoveryLogger adapts logr to the gorilla recovery handler.
type recoveryLogger struct {
	logger logr.Logger
}

func (l recoveryLogger) Println(args ...any) {
	l.logger.Error(fmt.Errorf("%s", fmt.Sprint(args...)), "recovered from panic")
}

// Start starts serving http traffic on the given listener and waits until the
// server exits due to error or the context is cancelled.
func (s *Server) Start(ctx context.Context, ln net.Listener) error {
	errch := make(chan error, 1)

	go func() {
		errch <- s.server.Serve(ln)
	}()

	s.Info("started server", "address", ln.Addr().String())

	// Block until server stops listening or context is cancelled.
	select {
	case err := <-errch:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		s.Info("gracefully shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return s.server.Close()
		}
		return nil
	}
}
