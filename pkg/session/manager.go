package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/pathquiz/internal/logging"
	"github.com/aretw0/pathquiz/internal/runtime"
	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/ports"
	"github.com/google/uuid"
)

const defaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	def   *domain.QuizDefinition
	store ports.SessionStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	enginesMu sync.Mutex
	engines   map[string]*runtime.Engine

	locker   ports.DistributedLocker
	lockTTL  time.Duration
	logger   *slog.Logger
	catalog  ports.CourseCatalog
	sched    runtime.Scheduler
	hooks    domain.LifecycleHooks
	notifier Notifier
	newID    func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
// Engines are then refreshed from the store before every operation.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager and its engines.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithCatalog sets the course catalog used when resolving results.
func WithCatalog(c ports.CourseCatalog) Option {
	return func(m *Manager) {
		m.catalog = c
	}
}

// WithScheduler sets the transition timer mechanism for every engine.
func WithScheduler(s runtime.Scheduler) Option {
	return func(m *Manager) {
		m.sched = s
	}
}

// WithLifecycleHooks registers hooks on every engine the manager creates.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(h)
	}
}

// WithNotifier receives a directive every time a session visibly changes.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithIDGenerator overrides session ID generation (defaults to UUIDv4).
func WithIDGenerator(f func() string) Option {
	return func(m *Manager) {
		if f != nil {
			m.newID = f
		}
	}
}

// NewManager creates a Manager running def and persisting to store.
func NewManager(def *domain.QuizDefinition, store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		def:     def,
		store:   store,
		locks:   make(map[string]*lockEntry),
		engines: make(map[string]*runtime.Engine),
		lockTTL: defaultLockTTL,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Definition returns the quiz every session runs.
func (m *Manager) Definition() *domain.QuizDefinition {
	return m.def
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Create starts a new session at the first step and persists it.
func (m *Manager) Create(ctx context.Context) (domain.Directive, error) {
	id := m.newID()
	var d domain.Directive
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		e := m.newEngine(id)
		if err := m.store.Save(ctx, id, e.Snapshot()); err != nil {
			e.Close()
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.enginesMu.Lock()
		m.engines[id] = e
		m.enginesMu.Unlock()

		m.logger.Info("session created", "session_id", id)
		d = e.Directive()
		return nil
	})
	return d, err
}

// Directive returns what the session should currently render.
func (m *Manager) Directive(ctx context.Context, sessionID string) (domain.Directive, error) {
	var d domain.Directive
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		e, err := m.engine(ctx, sessionID)
		if err != nil {
			return err
		}
		d = e.Directive()
		return nil
	})
	return d, err
}

// Select records an answer. Ignored input is reported with accepted == false and no error.
func (m *Manager) Select(ctx context.Context, sessionID string, stepIndex, optionIndex int) (d domain.Directive, accepted bool, err error) {
	err = m.mutate(ctx, sessionID, func(ctx context.Context, e *runtime.Engine) bool {
		d, accepted = e.Select(ctx, stepIndex, optionIndex)
		return accepted
	})
	return d, accepted, err
}

// Back returns to the previous step.
func (m *Manager) Back(ctx context.Context, sessionID string) (d domain.Directive, accepted bool, err error) {
	err = m.mutate(ctx, sessionID, func(ctx context.Context, e *runtime.Engine) bool {
		d, accepted = e.Back(ctx)
		return accepted
	})
	return d, accepted, err
}

// Restart resets the session to the first step.
func (m *Manager) Restart(ctx context.Context, sessionID string) (d domain.Directive, err error) {
	err = m.mutate(ctx, sessionID, func(ctx context.Context, e *runtime.Engine) bool {
		d = e.Restart(ctx)
		return true
	})
	return d, err
}

// Snapshot returns the persisted view of a session without starting an engine.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*domain.Session, error) {
	m.enginesMu.Lock()
	e, live := m.engines[sessionID]
	m.enginesMu.Unlock()
	if live && m.locker == nil {
		return e.Snapshot(), nil
	}
	return m.store.Load(ctx, sessionID)
}

// Delete stops the session's engine and removes it from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.evict(sessionID)
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
		}
		m.logger.Info("session deleted", "session_id", sessionID)
		return nil
	})
}

// Evict drops the live engine for a session, keeping its persisted snapshot.
// A later operation rehydrates it from the store.
func (m *Manager) Evict(sessionID string) {
	m.evict(sessionID)
}

// List returns the stored session IDs in lexical order.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Live returns how many engines are currently held in memory.
func (m *Manager) Live() int {
	m.enginesMu.Lock()
	defer m.enginesMu.Unlock()
	return len(m.engines)
}

// Close stops every live engine.
func (m *Manager) Close() {
	m.enginesMu.Lock()
	defer m.enginesMu.Unlock()
	for id, e := range m.engines {
		e.Close()
		delete(m.engines, id)
	}
}

func (m *Manager) mutate(ctx context.Context, sessionID string, op func(context.Context, *runtime.Engine) bool) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		e, err := m.engine(ctx, sessionID)
		if err != nil {
			return err
		}
		if !op(ctx, e) {
			return nil
		}
		if err := m.store.Save(ctx, sessionID, e.Snapshot()); err != nil {
			return fmt.Errorf("failed to persist session %s: %w", sessionID, err)
		}
		return nil
	})
}

// engine returns the live engine for a session, rehydrating it from the store if needed.
// Must be called under the session lock.
func (m *Manager) engine(ctx context.Context, sessionID string) (*runtime.Engine, error) {
	m.enginesMu.Lock()
	e, live := m.engines[sessionID]
	m.enginesMu.Unlock()

	if live && m.locker == nil {
		return e, nil
	}

	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		if live && errors.Is(err, domain.ErrSessionNotFound) {
			// Deleted by another replica.
			m.evict(sessionID)
		}
		return nil, err
	}

	if live {
		// Another replica may have moved the session on.
		if snap.UpdatedAt.After(e.Snapshot().UpdatedAt) {
			m.logger.Debug("refreshing session from store", "session_id", sessionID)
			if err := e.Restore(ctx, snap); err != nil {
				return nil, fmt.Errorf("failed to refresh session %s: %w", sessionID, err)
			}
		}
		return e, nil
	}

	e = m.newEngine(sessionID)
	if err := e.Restore(ctx, snap); err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to restore session %s: %w", sessionID, err)
	}

	m.enginesMu.Lock()
	m.engines[sessionID] = e
	m.enginesMu.Unlock()

	m.logger.Debug("session rehydrated", "session_id", sessionID, "step", snap.StepIndex)
	return e, nil
}

func (m *Manager) evict(sessionID string) {
	m.enginesMu.Lock()
	defer m.enginesMu.Unlock()
	if e, ok := m.engines[sessionID]; ok {
		e.Close()
		delete(m.engines, sessionID)
	}
}

func (m *Manager) newEngine(sessionID string) *runtime.Engine {
	var e *runtime.Engine
	hooks := m.hooks
	if m.notifier != nil {
		hooks = hooks.Merge(m.notifyHooks(func() *runtime.Engine { return e }))
	}

	opts := []runtime.EngineOption{
		runtime.WithLogger(m.logger),
		runtime.WithCatalog(m.catalog),
		runtime.WithLifecycleHooks(hooks),
	}
	if m.sched != nil {
		opts = append(opts, runtime.WithScheduler(m.sched))
	}
	e = runtime.NewEngine(m.def, sessionID, opts...)
	return e
}
