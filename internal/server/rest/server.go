// Package rest serves the HTTP JSON API: accounts, tasks, chat and the
// mounted MCP endpoint.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/agent"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
	"github.com/gorilla/mux"
)

const shutdownTimeout = 10 * time.Second

// Archiver exports a user's transcript to object storage.
type Archiver interface {
	Export(ctx context.Context, user *models.User, limit int) (*services.Export, error)
}

type Deps struct {
	Users        *services.UserService
	Tasks        *services.TaskService
	Transcripts  *services.TranscriptService
	Orchestrator *agent.Orchestrator
	Archive      Archiver
	// MCP, when set, is mounted at /mcp.
	MCP          http.Handler
	HistoryLimit int
}

type Server struct {
	address string
	logger  logging.Logger
	deps    Deps
	now     func() time.Time
}

func NewServer(address string, l logging.Logger, deps Deps) *Server {
	if deps.HistoryLimit < 1 {
		deps.HistoryLimit = 1000
	}
	return &Server{
		address: address,
		logger:  l.With("module", "http_server"),
		deps:    deps,
		now:     time.Now,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recoverer)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/users", s.register).Methods(http.MethodPost)

	if s.deps.MCP != nil {
		r.Handle("/mcp", s.deps.MCP)
	}

	api := r.NewRoute().Subrouter()
	api.Use(s.authenticate)

	api.HandleFunc("/users/me", s.me).Methods(http.MethodGet)
	api.HandleFunc("/users/me", s.rename).Methods(http.MethodPut)
	api.HandleFunc("/users/me", s.deleteMe).Methods(http.MethodDelete)

	api.HandleFunc("/tasks", s.createTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/counts", s.countTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/auto-mark-backlog", s.markBacklog).Methods(http.MethodPost)
	api.HandleFunc("/tasks/batch", s.batchDelete).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id}", s.getTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", s.updateTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id}", s.deleteTask).Methods(http.MethodDelete)

	api.HandleFunc("/chat", s.chat).Methods(http.MethodPost)
	api.HandleFunc("/chat/history", s.history).Methods(http.MethodGet)
	api.HandleFunc("/chat/history", s.saveMessage).Methods(http.MethodPost)
	api.HandleFunc("/chat/history/export", s.exportHistory).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
