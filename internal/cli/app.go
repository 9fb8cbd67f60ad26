package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/pathquiz/internal/config"
	"github.com/aretw0/pathquiz/internal/logging"
	httpadapter "github.com/aretw0/pathquiz/pkg/adapters/http"
	"github.com/aretw0/pathquiz/pkg/adapters/definition"
	"github.com/aretw0/pathquiz/pkg/adapters/file"
	"github.com/aretw0/pathquiz/pkg/adapters/memory"
	"github.com/aretw0/pathquiz/pkg/adapters/redis"
	"github.com/aretw0/pathquiz/pkg/adapters/sqlite"
	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/observability"
	"github.com/aretw0/pathquiz/pkg/persistence/middleware"
	"github.com/aretw0/pathquiz/pkg/ports"
	"github.com/aretw0/pathquiz/pkg/session"
)

const lockPrefix = "pathquiz:lock:"

// App is the fully wired application shared by every command.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Definition *domain.QuizDefinition
	Catalog    ports.CourseCatalog
	Store      ports.SessionStore
	Metrics    *observability.Metrics
	Streams    *httpadapter.StreamManager
	Sessions   *session.Manager

	closers []func() error
}

type buildOptions struct {
	logger    *slog.Logger
	notifiers []session.Notifier
	sessions  []session.Option
}

// BuildOption customizes Build.
type BuildOption func(*buildOptions)

// WithLogger sets the application logger. Default: discard.
func WithLogger(l *slog.Logger) BuildOption {
	return func(o *buildOptions) { o.logger = l }
}

// WithNotifier adds a receiver of session updates next to the SSE streams.
func WithNotifier(n session.Notifier) BuildOption {
	return func(o *buildOptions) { o.notifiers = append(o.notifiers, n) }
}

// WithSessionOptions passes options through to the session manager.
func WithSessionOptions(opts ...session.Option) BuildOption {
	return func(o *buildOptions) { o.sessions = append(o.sessions, opts...) }
}

// Build wires definition, catalog, store, metrics and the session manager from cfg.
// Close must be called to release the backends.
func Build(ctx context.Context, cfg *config.Config, opts ...BuildOption) (_ *App, err error) {
	o := &buildOptions{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	app := &App{Config: cfg, Logger: o.logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	if app.Definition, err = LoadDefinition(ctx, cfg.Definition); err != nil {
		return nil, err
	}
	if app.Catalog, err = app.openCatalog(ctx); err != nil {
		return nil, err
	}

	var locker ports.DistributedLocker
	if app.Store, locker, err = app.openStore(ctx); err != nil {
		return nil, err
	}
	if app.Store, err = sealStore(cfg, app.Store); err != nil {
		return nil, err
	}

	app.Metrics = observability.NewMetrics()
	app.Streams = httpadapter.NewStreamManager()
	app.Streams.SetLogger(o.logger)

	hooks := app.Metrics.Hooks()
	if cfg.Debug {
		hooks = hooks.Merge(observability.LoggingHooks(o.logger))
	}

	notifiers := append([]session.Notifier{app.Streams.Notify}, o.notifiers...)
	sessionOpts := []session.Option{
		session.WithCatalog(app.Catalog),
		session.WithLogger(o.logger),
		session.WithLifecycleHooks(hooks),
		session.WithNotifier(fanOut(notifiers)),
	}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}
	app.Sessions = session.NewManager(app.Definition, app.Store, append(sessionOpts, o.sessions...)...)
	app.closers = append([]func() error{func() error { app.Sessions.Close(); return nil }}, app.closers...)

	o.logger.Debug("application wired",
		"quiz", app.Definition.ID, "store", cfg.Store, "catalog_db", cfg.CatalogDB)
	return app, nil
}

// Close stops running transitions and releases the backends, newest first.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// LoadDefinition reads the quiz at path, or the built-in one when path is empty.
func LoadDefinition(ctx context.Context, path string) (*domain.QuizDefinition, error) {
	var loader ports.DefinitionLoader = definition.StaticLoader{}
	if path != "" {
		loader = definition.NewFileLoader(path)
	}
	return loader.Load(ctx)
}

func (a *App) openCatalog(ctx context.Context) (ports.CourseCatalog, error) {
	if a.Config.CatalogDB == "" {
		return memory.NewSeededCatalog(), nil
	}

	cat, err := sqlite.Open(ctx, a.Config.CatalogDB)
	if err != nil {
		return nil, err
	}
	a.closers = append([]func() error{cat.Close}, a.closers...)

	n, err := cat.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		a.Logger.Info("seeding empty course catalog", "path", a.Config.CatalogDB)
		if err := cat.Seed(ctx, memory.SeedCourses()...); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

func (a *App) openStore(ctx context.Context) (ports.SessionStore, ports.DistributedLocker, error) {
	switch a.Config.Store {
	case config.StoreFile:
		return file.New(a.Config.SessionDir), nil, nil
	case config.StoreRedis:
		r := a.Config.Redis
		store := redis.New(r.Addr, r.Password, r.DB, redis.WithTTL(a.Config.SessionTTL))
		a.closers = append([]func() error{store.Close}, a.closers...)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis %s: %w", r.Addr, err)
		}
		return store, redis.NewLocker(store.Client(), lockPrefix), nil
	default:
		return memory.NewStore(), nil, nil
	}
}

// sealStore wraps store with at-rest encryption when a key is configured.
func sealStore(cfg *config.Config, store ports.SessionStore) (ports.SessionStore, error) {
	if cfg.EncryptionKey == "" {
		return store, nil
	}
	ec := middleware.EncryptionConfig{}
	var err error
	if ec.ActiveKey, err = middleware.ParseKey(cfg.EncryptionKey); err != nil {
		return nil, err
	}
	for _, k := range cfg.EncryptionFallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("fallback key: %w", err)
		}
		ec.FallbackKeys = append(ec.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryptionMiddleware(ec)
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, mw), nil
}

func fanOut(ns []session.Notifier) session.Notifier {
	return func(ctx context.Context, u session.Update) {
		for _, n := range ns {
			n(ctx, u)
		}
	}
}
