package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"uploadagent/internal/history"
	"uploadagent/internal/metadata"
	"uploadagent/internal/storage"
	"uploadagent/internal/submission"
	"uploadagent/internal/workflow"
)

const (
	defaultMaxUploadBytes = 512 << 20
	multipartMemory       = 32 << 20
	formOverheadBytes     = 1 << 20
)

type Options struct {
	Generator      *metadata.Generator
	Orchestrator   *submission.Orchestrator
	Store          storage.Store
	Sessions       *workflow.Registry
	History        *history.Log
	AllowedOrigins []string
	MaxUploadBytes int64
}

type Server struct {
	generator      *metadata.Generator
	orchestrator   *submission.Orchestrator
	store          storage.Store
	sessions       *workflow.Registry
	history        *history.Log
	allowedOrigins []string
	maxUploadBytes int64
}

func NewServer(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Sessions == nil {
		gen, orch := opts.Generator, opts.Orchestrator
		opts.Sessions = workflow.NewRegistry(func() *workflow.Controller {
			return workflow.NewController(
				workflow.LocalMetadata{Generator: gen},
				workflow.LocalSubmitter{Orchestrator: orch},
			)
		})
	}
	s := &Server{
		generator:      opts.Generator,
		orchestrator:   opts.Orchestrator,
		store:          opts.Store,
		sessions:       opts.Sessions,
		history:        opts.History,
		allowedOrigins: opts.AllowedOrigins,
		maxUploadBytes: opts.MaxUploadBytes,
	}
	s.sessions.OnEvict(func(c *workflow.Controller) {
		s.discard(stagedVideo(c.State()))
	})
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/generate-metadata", s.generateMetadata).Methods(http.MethodPost)
	api.HandleFunc("/upload-video", s.uploadVideo).Methods(http.MethodPost)
	api.HandleFunc("/uploads", s.listUploads).Methods(http.MethodGet)

	api.HandleFunc("/sessions", s.createSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.getSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.deleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/request", s.updateRequest).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/generate", s.generateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/metadata", s.editMetadata).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/back", s.backSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/upload", s.uploadSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/reset", s.resetSession).Methods(http.MethodPost)

	return r
}

// Handler wraps the router with CORS, panic recovery and request logging.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.allowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(slogRecoveryLogger{}))

	return handlers.CustomLoggingHandler(io.Discard, recovery(cors(s.Router())), logRequest)
}

// SweepSessions drops idle sessions every interval until ctx is done.
func (s *Server) SweepSessions(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Sweep(maxIdle); n > 0 {
				slog.Debug("Swept idle sessions", "count", n)
			}
		}
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listUploads(w http.ResponseWriter, r *http.Request) {
	entries := []history.Entry{}
	if s.history != nil {
		entries = s.history.List()
	}
	writeJSON(w, http.StatusOK, entries)
}

func logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	slog.Info("HTTP request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"bytes", p.Size,
	)
}

type slogRecoveryLogger struct{}

func (slogRecoveryLogger) Println(v ...any) {
	slog.Error("Recovered from panic", "panic", v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
