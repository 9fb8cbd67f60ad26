// Package mcp exposes quiz sessions as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/pathquiz/internal/logging"
	"github.com/aretw0/pathquiz/internal/runtime"
	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const definitionURI = "pathquiz://definition"

// Sessions is the session API the tools drive. *session.Manager implements it.
type Sessions interface {
	Definition() *domain.QuizDefinition
	Create(ctx context.Context) (domain.Directive, error)
	Directive(ctx context.Context, sessionID string) (domain.Directive, error)
	Select(ctx context.Context, sessionID string, stepIndex, optionIndex int) (domain.Directive, bool, error)
	Back(ctx context.Context, sessionID string) (domain.Directive, bool, error)
	Restart(ctx context.Context, sessionID string) (domain.Directive, error)
}

// ActionResult is returned by every tool that sends an input to a session.
type ActionResult struct {
	Accepted  bool             `json:"accepted" jsonschema_description:"False when the input was ignored (transition running, stale step, out of range)"`
	Directive domain.Directive `json:"directive" jsonschema_description:"What the session shows now"`
}

// SessionArgs identifies a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// SelectArgs are the arguments of select_option.
type SelectArgs struct {
	SessionID   string `json:"session_id"`
	StepIndex   int    `json:"step_index"`
	OptionIndex int    `json:"option_index"`
}

// ResolveArgs are the arguments of resolve_result.
type ResolveArgs struct {
	Answers []int `json:"answers"`
}

// Server wraps a session manager and exposes it as an MCP Server.
type Server struct {
	sessions  Sessions
	catalog   ports.CourseCatalog
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithCatalog resolves course titles for resolve_result.
func WithCatalog(c ports.CourseCatalog) Option {
	return func(s *Server) { s.catalog = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions Sessions, version string, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		logger:   logging.NewNop(),
		mcpServer: server.NewMCPServer("pathquiz-mcp", version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. to mount it on another transport.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP server over SSE on ln until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, ln net.Listener) error {
	baseURL := "http://" + ln.Addr().String()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Handle("/sse", sse.SSEHandler())
	r.Handle("/message", sse.MessageHandler())

	httpServer := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", baseURL)
		serverErrors <- httpServer.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	sessionID := mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by start_quiz"))

	s.mcpServer.AddTool(mcp.NewTool("start_quiz",
		mcp.WithDescription("Start a new learning path quiz session and return its first question."),
		mcp.WithOutputSchema[domain.Directive](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("get_directive",
		mcp.WithDescription("Show the current question, selected option and step indicators, or the result once completed."),
		sessionID,
		mcp.WithOutputSchema[domain.Directive](),
	), mcp.NewStructuredToolHandler(s.handleDirective))

	s.mcpServer.AddTool(mcp.NewTool("select_option",
		mcp.WithDescription("Answer the current question. The answer is ignored while a step transition runs or if step_index is not the current step."),
		sessionID,
		mcp.WithNumber("step_index", mcp.Required(), mcp.Description("Step being answered (0-based)")),
		mcp.WithNumber("option_index", mcp.Required(), mcp.Description("Chosen option (0-based)")),
		mcp.WithOutputSchema[ActionResult](),
	), mcp.NewStructuredToolHandler(s.handleSelect))

	s.mcpServer.AddTool(mcp.NewTool("go_back",
		mcp.WithDescription("Return to the previous question. Ignored on the first question and after completion."),
		sessionID,
		mcp.WithOutputSchema[ActionResult](),
	), mcp.NewStructuredToolHandler(s.handleBack))

	s.mcpServer.AddTool(mcp.NewTool("restart_quiz",
		mcp.WithDescription("Discard all answers and return to the first question."),
		sessionID,
		mcp.WithOutputSchema[ActionResult](),
	), mcp.NewStructuredToolHandler(s.handleRestart))

	s.mcpServer.AddTool(mcp.NewTool("resolve_result",
		mcp.WithDescription("Compute the recommended learning path for a complete answer sequence without starting a session."),
		mcp.WithArray("answers", mcp.Required(),
			mcp.Description("One option index per question, in order"),
			mcp.Items(map[string]any{"type": "integer", "minimum": 0}),
		),
		mcp.WithOutputSchema[domain.Resolved](),
	), mcp.NewStructuredToolHandler(s.handleResolve))
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args struct{}) (domain.Directive, error) {
	return s.sessions.Create(ctx)
}

func (s *Server) handleDirective(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (domain.Directive, error) {
	d, err := s.sessions.Directive(ctx, args.SessionID)
	return d, s.wrap(err, args.SessionID)
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest, args SelectArgs) (ActionResult, error) {
	d, ok, err := s.sessions.Select(ctx, args.SessionID, args.StepIndex, args.OptionIndex)
	return ActionResult{Accepted: ok, Directive: d}, s.wrap(err, args.SessionID)
}

func (s *Server) handleBack(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (ActionResult, error) {
	d, ok, err := s.sessions.Back(ctx, args.SessionID)
	return ActionResult{Accepted: ok, Directive: d}, s.wrap(err, args.SessionID)
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (ActionResult, error) {
	d, err := s.sessions.Restart(ctx, args.SessionID)
	return ActionResult{Accepted: err == nil, Directive: d}, s.wrap(err, args.SessionID)
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest, args ResolveArgs) (domain.Resolved, error) {
	def := s.sessions.Definition()
	if err := def.ValidateAnswers(args.Answers); err != nil {
		return domain.Resolved{}, err
	}
	res, err := runtime.Resolve(ctx, def, s.catalog, args.Answers)
	if err != nil {
		s.logger.Warn("mcp: course lookup failed", "err", err)
	}
	return *res, nil
}

func (s *Server) wrap(err error, sessionID string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrSessionNotFound):
		return fmt.Errorf("unknown session %q: call start_quiz first", sessionID)
	default:
		s.logger.Error("mcp: tool failed", "session_id", sessionID, "err", err)
		return err
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(definitionURI, "Quiz Definition",
		mcp.WithResourceDescription("Questions, options, decision rules and results of the quiz"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.sessions.Definition())
		if err != nil {
			return nil, fmt.Errorf("failed to encode definition: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      definitionURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
