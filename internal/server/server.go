package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/novaev/expansion/internal/utils"
	"github.com/novaev/expansion/pkg/ai"
	"github.com/novaev/expansion/pkg/dashboard"
	"github.com/novaev/expansion/pkg/dataset"
)

type Server struct {
	Data       dataset.Data
	Strategist ai.Strategist
	Username   string
	Password   string

	metrics *metrics
}

func New(data dataset.Data, strategist ai.Strategist, user, pass string) *Server {
	return &Server{
		Data:       data,
		Strategist: strategist,
		Username:   user,
		Password:   pass,
		metrics:    newMetrics(),
	}
}

// Handler returns the full route table wrapped in request id, metrics and
// panic recovery middleware.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	// Pages
	r.HandleFunc("/", s.basicAuth(s.handleDiscovery)).Methods(http.MethodGet)
	r.HandleFunc("/strategy", s.basicAuth(s.handleStrategyPage)).Methods(http.MethodGet)
	r.HandleFunc("/strategy/generate", s.basicAuth(s.handleStrategyGenerate)).Methods(http.MethodPost)
	r.HandleFunc("/monitor", s.basicAuth(s.handleMonitor)).Methods(http.MethodGet)

	// API Group
	r.HandleFunc("/api/markets", s.basicAuth(s.handleMarkets)).Methods(http.MethodGet)
	r.HandleFunc("/api/telemetry", s.basicAuth(s.handleTelemetry)).Methods(http.MethodGet)
	r.HandleFunc("/api/strategy", s.basicAuth(s.handleStrategy)).Methods(http.MethodPost)

	r.Use(requestID, s.metrics.middleware)

	return handlers.RecoveryHandler(handlers.RecoveryLogger(utils.Log))(r)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handlers.LoggingHandler(utils.Log.Writer(), s.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Log.Infof("Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		utils.Log.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// model builds a fresh dashboard model per request.
func (s *Server) model() *dashboard.Model {
	return dashboard.New(s.Data.Markets, s.Data.Telemetry)
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

const requestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = iota

// requestID tags every request with an id, reusing the caller's when present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
