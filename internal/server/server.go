// Package server exposes the automation engine over HTTP. One endpoint does
// the real work: POST /learnyst/execute accepts an action request, resolves
// the course code, and forwards the action to the execution queue. Health
// and Prometheus metrics ride alongside.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/techpathai/learnyst-automator/api/schemas"
	"github.com/techpathai/learnyst-automator/internal/config"
	"github.com/techpathai/learnyst-automator/internal/engine"
	"github.com/techpathai/learnyst-automator/internal/report"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Submitter queues one action and blocks for its result. Implemented by the
// execution engine.
type Submitter interface {
	Submit(ctx context.Context, action schemas.Action) (schemas.ExecutionResult, error)
}

// executeRequest is the wire shape of POST /learnyst/execute. Credentials for
// the target site travel in the body alongside the service API key; the two
// are unrelated secrets.
type executeRequest struct {
	APIKey   string `json:"api_key"`
	Action   string `json:"action"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	// CourseName carries either a configured short code or the on-site
	// course display name.
	CourseName     string `json:"course_name"`
	UserIdentifier string `json:"user_identifier"`
	Username       string `json:"learnyst_username"`
	Password       string `json:"learnyst_password"`
}

// Server is the HTTP boundary.
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	submitter Submitter
	reporter  *report.Reporter

	httpServer *http.Server
}

func New(cfg *config.Config, logger *zap.Logger, submitter Submitter, reporter *report.Reporter) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if submitter == nil {
		return nil, errors.New("submitter cannot be nil")
	}
	if reporter == nil {
		return nil, errors.New("reporter cannot be nil")
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger.With(zap.String("component", "server")),
		submitter: submitter,
		reporter:  reporter,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Router builds the chi router. Exposed separately so tests can drive it
// through httptest without binding a port.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Post("/learnyst/execute", s.handleExecute)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// Start serves until ctx is canceled, then drains with the configured grace
// period. Blocks for the life of the server.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening.", zap.String("addr", s.cfg.Server.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownGrace)
	defer cancel()
	s.logger.Info("Draining HTTP server.")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeResponse(w, http.StatusBadRequest, schemas.Response{
			Success: false,
			Message: "Malformed request body",
		})
		return
	}

	if s.cfg.Server.APIKey == "" || req.APIKey != s.cfg.Server.APIKey {
		s.writeResponse(w, http.StatusForbidden, schemas.Response{
			Success: false,
			Message: "Invalid API key",
		})
		return
	}

	action := schemas.Action{
		Kind:           schemas.ActionKind(req.Action),
		Email:          strings.TrimSpace(req.Email),
		FullName:       strings.TrimSpace(req.FullName),
		UserIdentifier: strings.TrimSpace(req.UserIdentifier),
		Credentials: schemas.Credentials{
			Username: req.Username,
			Password: req.Password,
		},
	}

	// Short course codes are a transport convenience; anything not in the
	// code table is taken as the on-site display name as-is, so callers
	// that already resolve names keep working. The engine only ever sees
	// the display name.
	if course := strings.TrimSpace(req.CourseName); course != "" {
		if name, ok := s.cfg.ResolveCourse(course); ok {
			course = name
		}
		action.CourseName = course
	}

	result, err := s.submitter.Submit(r.Context(), action)
	if err != nil {
		if errors.Is(err, engine.ErrShuttingDown) {
			s.writeResponse(w, http.StatusServiceUnavailable, schemas.Response{
				Success: false,
				Message: "Service is shutting down",
			})
			return
		}
		// Caller context died while waiting; the action still runs, but
		// there is nobody left to answer. Best effort.
		s.logger.Warn("Request abandoned before its action completed.", zap.Error(err))
		s.writeResponse(w, http.StatusServiceUnavailable, schemas.Response{
			Success: false,
			Message: "Request abandoned before the action completed",
		})
		return
	}

	s.writeResponse(w, report.StatusCode(result), s.reporter.Response(action, result))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response body.", zap.Error(err))
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("Handled request.",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}
