// Package http exposes quiz sessions over a JSON API with server-sent events.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/pathquiz/internal/logging"
	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Sessions is the session API the server drives. *session.Manager implements it.
type Sessions interface {
	Definition() *domain.QuizDefinition
	Create(ctx context.Context) (domain.Directive, error)
	Directive(ctx context.Context, sessionID string) (domain.Directive, error)
	Select(ctx context.Context, sessionID string, stepIndex, optionIndex int) (domain.Directive, bool, error)
	Back(ctx context.Context, sessionID string) (domain.Directive, bool, error)
	Restart(ctx context.Context, sessionID string) (domain.Directive, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// Server holds the handler dependencies.
type Server struct {
	Sessions Sessions
	Catalog  ports.CourseCatalog
	Streams  *StreamManager
	Metrics  http.Handler
	Logger   *slog.Logger
	Version  string
	Origins  []string
}

// Option configures the Server.
type Option func(*Server)

// WithCatalog serves GET /courses from c.
func WithCatalog(c ports.CourseCatalog) Option {
	return func(s *Server) { s.Catalog = c }
}

// WithStreams shares a StreamManager that is also registered as the session notifier.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		if sm != nil {
			s.Streams = sm
		}
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.Logger = l
		}
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.Version = v }
}

// WithAllowedOrigins restricts CORS. Empty allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.Origins = origins }
}

// NewHandler builds the router.
func NewHandler(sessions Sessions, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		Streams:  NewStreamManager(),
		Logger:   logging.NewNop(),
		Version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	origins := s.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/definition", s.GetDefinition)
	r.Get("/courses", s.GetCourses)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/select", s.Select)
			r.Post("/back", s.Back)
			r.Post("/restart", s.Restart)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	return r
}

// SelectRequest is the body of POST /sessions/{id}/select.
type SelectRequest struct {
	StepIndex   *int `json:"step_index"`
	OptionIndex *int `json:"option_index"`
}

// ActionResponse reports whether an input was accepted, with the directive to render.
// Ignored inputs are not errors: they return 200 with accepted false.
type ActionResponse struct {
	Accepted  bool             `json:"accepted"`
	Directive domain.Directive `json:"directive"`
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	d, err := s.Sessions.Create(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+d.SessionID)
	s.writeJSON(w, http.StatusCreated, d)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	d, err := s.Sessions.Directive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Sessions.Directive(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.Streams.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// Select handles POST /sessions/{id}/select.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var body SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.Logger.Warn("select: invalid request body", "err", err)
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.StepIndex == nil || body.OptionIndex == nil {
		s.writeError(w, http.StatusBadRequest, "step_index and option_index are required")
		return
	}

	d, ok, err := s.Sessions.Select(r.Context(), chi.URLParam(r, "id"), *body.StepIndex, *body.OptionIndex)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ActionResponse{Accepted: ok, Directive: d})
}

// Back handles POST /sessions/{id}/back.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	d, ok, err := s.Sessions.Back(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ActionResponse{Accepted: ok, Directive: d})
}

// Restart handles POST /sessions/{id}/restart.
func (s *Server) Restart(w http.ResponseWriter, r *http.Request) {
	d, err := s.Sessions.Restart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ActionResponse{Accepted: true, Directive: d})
}

// GetDefinition handles GET /definition.
func (s *Server) GetDefinition(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Sessions.Definition())
}

// GetCourses handles GET /courses.
func (s *Server) GetCourses(w http.ResponseWriter, r *http.Request) {
	courses := []domain.Course{}
	if s.Catalog != nil {
		list, err := s.Catalog.Courses(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		courses = append(courses, list...)
	}
	s.writeJSON(w, http.StatusOK, courses)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	def := s.Sessions.Definition()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":        "pathquiz-http",
		"version":    s.Version,
		"definition": def.ID,
		"steps":      def.StepCount(),
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
