package server

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/spigell/interview-screener/internal/dashboard"
	"github.com/spigell/interview-screener/internal/interview"
	"github.com/spigell/interview-screener/internal/storage"
)

// Container holds all dependencies for the router. Results, Dashboard and
// Hub are optional; their endpoints answer 503 when missing.
type Container struct {
	Machine   *interview.Machine
	Sessions  storage.SessionStore
	Results   storage.ResultRepo
	Dashboard *dashboard.Service
	Hub       *Hub
	Logger    *zap.Logger
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &handler{
		machine:   c.Machine,
		sessions:  c.Sessions,
		results:   c.Results,
		dashboard: c.Dashboard,
		locks:     newKeyedMutex(),
		logger:    logger,
	}

	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.Use(loggingMiddleware(logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/catalog", h.Catalog).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/sessions", h.CreateSession).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/sessions/{id}", h.GetSession).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/sessions/{id}", h.DeleteSession).Methods(http.MethodDelete)
	v1.HandleFunc("/sessions/{id}/answers", h.SubmitAnswer).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/sessions/{id}/analysis", h.Analysis).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/results", h.Results).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet, http.MethodOptions)

	if c.Hub != nil {
		v1.HandleFunc("/ws/deliveries", c.Hub.ServeWS).Methods(http.MethodGet)
	}

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func loggingMiddleware(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
