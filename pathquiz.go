package pathquiz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/pathquiz/internal/logging"
	"github.com/aretw0/pathquiz/internal/runtime"
	"github.com/aretw0/pathquiz/pkg/adapters/definition"
	"github.com/aretw0/pathquiz/pkg/adapters/memory"
	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/ports"
	"github.com/aretw0/pathquiz/pkg/session"
)

// Version is the release version; overridden at build time with -ldflags "-X".
var Version = "0.1.0"

type config struct {
	loader   ports.DefinitionLoader
	store    ports.SessionStore
	catalog  ports.CourseCatalog
	logger   *slog.Logger
	sessions []session.Option
}

// Option configures New.
type Option func(*config)

// WithDefinition uses def instead of the built-in learning path quiz.
func WithDefinition(def *domain.QuizDefinition) Option {
	return func(c *config) {
		c.loader = definition.StaticLoader{Definition: def}
	}
}

// WithLoader injects a custom DefinitionLoader.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(c *config) {
		c.loader = l
	}
}

// WithStore persists sessions in s. Default: in-memory.
func WithStore(s ports.SessionStore) Option {
	return func(c *config) {
		c.store = s
	}
}

// WithCatalog resolves course titles from cat. Default: the seeded in-memory catalog.
func WithCatalog(cat ports.CourseCatalog) Option {
	return func(c *config) {
		c.catalog = cat
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.sessions = append(c.sessions, session.WithLifecycleHooks(hooks))
	}
}

// WithSessionOptions passes options through to the session manager.
func WithSessionOptions(opts ...session.Option) Option {
	return func(c *config) {
		c.sessions = append(c.sessions, opts...)
	}
}

// New loads the quiz definition and returns a ready session manager.
func New(ctx context.Context, opts ...Option) (*session.Manager, error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}

	if c.loader == nil {
		c.loader = definition.StaticLoader{}
	}
	if c.store == nil {
		c.store = memory.NewStore()
	}
	if c.catalog == nil {
		c.catalog = memory.NewSeededCatalog()
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}

	def, err := c.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz definition: %w", err)
	}

	sessionOpts := append([]session.Option{
		session.WithCatalog(c.catalog),
		session.WithLogger(c.logger.With("quiz", def.ID)),
	}, c.sessions...)

	return session.NewManager(def, c.store, sessionOpts...), nil
}

// Resolve computes the result for a complete answer sequence without playing a session.
// Courses missing from the catalog come back as placeholders.
func Resolve(ctx context.Context, def *domain.QuizDefinition, catalog ports.CourseCatalog, answers []int) (*domain.Resolved, error) {
	if err := def.ValidateAnswers(answers); err != nil {
		return nil, err
	}
	return runtime.Resolve(ctx, def, catalog, answers)
}
