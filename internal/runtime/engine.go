package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/pathquiz/internal/logging"
	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/aretw0/pathquiz/pkg/ports"
)

// Engine is the quiz state machine for a single session.
//
// All mutation happens under mu. Lifecycle hooks are collected while holding the
// mutex and fired after it is released, so hooks may call back into the engine.
type Engine struct {
	def     *domain.QuizDefinition
	catalog ports.CourseCatalog
	sched   Scheduler
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	now     func() time.Time

	mu           sync.Mutex
	session      *domain.Session
	result       *domain.Resolved
	illustration int
	locked       bool
	gen          uint64
	pending      []Timer
	closed       bool
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithScheduler replaces the timer mechanism (tests use a manual clock).
func WithScheduler(s Scheduler) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.sched = s
		}
	}
}

// WithCatalog sets the course catalog used to resolve recommended courses.
// Without a catalog every course renders as a placeholder.
func WithCatalog(c ports.CourseCatalog) EngineOption {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithClock overrides the timestamp source for events and snapshots.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine positioned at the first step of def.
// The definition must already be validated.
func NewEngine(def *domain.QuizDefinition, sessionID string, opts ...EngineOption) *Engine {
	e := &Engine{
		def:    def,
		sched:  SystemScheduler{},
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("session_id", sessionID)
	e.session = domain.NewSession(sessionID, def.ID, def.StepCount())
	return e
}

// Definition returns the definition the engine runs.
func (e *Engine) Definition() *domain.QuizDefinition {
	return e.def
}

// Directive returns what the presenter should currently render.
func (e *Engine) Directive() domain.Directive {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.directiveLocked()
}

// Locked reports whether a transition is in flight.
func (e *Engine) Locked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.locked
}

// Snapshot returns a copy of the session suitable for persistence.
func (e *Engine) Snapshot() *domain.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Snapshot()
}

// Select records optionIndex for stepIndex and advances the quiz.
// Invalid input is ignored: the current directive is returned with accepted == false.
func (e *Engine) Select(ctx context.Context, stepIndex, optionIndex int) (domain.Directive, bool) {
	e.mu.Lock()
	var out emitter
	accepted := e.selectLocked(ctx, stepIndex, optionIndex, &out)
	d := e.directiveLocked()
	e.mu.Unlock()

	out.fire()
	return d, accepted
}

func (e *Engine) selectLocked(ctx context.Context, stepIndex, optionIndex int, out *emitter) bool {
	s := e.session
	reject := func(reason domain.RejectReason) bool {
		e.rejectLocked(ctx, "select", reason, optionIndex, out)
		return false
	}

	switch {
	case e.locked:
		return reject(domain.RejectLocked)
	case s.Completed:
		return reject(domain.RejectCompleted)
	case stepIndex != s.StepIndex:
		return reject(domain.RejectStaleStep)
	case optionIndex < 0 || optionIndex >= len(e.def.Steps[s.StepIndex].Options):
		return reject(domain.RejectOutOfRange)
	}

	i := s.StepIndex
	if i < len(s.Recorded) {
		s.Recorded[i] = optionIndex
	} else {
		s.Recorded = append(s.Recorded, optionIndex)
	}
	s.Answered[i] = true
	s.UpdatedAt = e.now().UTC()

	e.logger.Debug("option selected", "step", i, "option", optionIndex)

	if i == e.def.StepCount()-1 {
		e.completeLocked(ctx, out)
		return true
	}

	s.StepIndex = i + 1
	e.beginTransitionLocked(ctx, domain.DirectionForward, i, i+1, out)
	return true
}

// Back returns to the previous step.
// It is ignored at the first step, after completion and while a transition runs.
func (e *Engine) Back(ctx context.Context) (domain.Directive, bool) {
	e.mu.Lock()
	var out emitter
	accepted := e.backLocked(ctx, &out)
	d := e.directiveLocked()
	e.mu.Unlock()

	out.fire()
	return d, accepted
}

func (e *Engine) backLocked(ctx context.Context, out *emitter) bool {
	s := e.session
	switch {
	case e.locked:
		e.rejectLocked(ctx, "back", domain.RejectLocked, 0, out)
		return false
	case s.Completed:
		e.rejectLocked(ctx, "back", domain.RejectCompleted, 0, out)
		return false
	case s.StepIndex == 0:
		e.rejectLocked(ctx, "back", domain.RejectAtFirstStep, 0, out)
		return false
	}

	from := s.StepIndex
	s.StepIndex--
	// The step we return to is open again; its recorded value stays as the preselection.
	s.Answered[s.StepIndex] = false
	s.UpdatedAt = e.now().UTC()

	e.logger.Debug("going back", "from", from, "to", s.StepIndex)
	e.beginTransitionLocked(ctx, domain.DirectionBackward, from, s.StepIndex, out)
	return true
}

// Restart discards all progress and returns to the first step.
// An in-flight transition is cancelled.
func (e *Engine) Restart(ctx context.Context) domain.Directive {
	e.mu.Lock()
	var out emitter

	from := e.session.StepIndex
	cancelled := e.cancelPendingLocked()

	old := e.session
	e.session = domain.NewSession(old.ID, e.def.ID, e.def.StepCount())
	e.session.CreatedAt = old.CreatedAt
	e.session.UpdatedAt = e.now().UTC()
	e.result = nil
	e.illustration = 0

	e.logger.Debug("quiz restarted", "from", from, "cancelled_transition", cancelled)
	if h := e.hooks.OnRestart; h != nil {
		ev := &domain.RestartEvent{EventBase: e.base(), FromStep: from, Cancelled: cancelled}
		out.add(func() { h(ctx, ev) })
	}

	d := e.directiveLocked()
	e.mu.Unlock()

	out.fire()
	return d
}

// Restore replaces the session with a persisted snapshot.
// Transitions never survive persistence, so the engine comes back unlocked.
func (e *Engine) Restore(ctx context.Context, snap *domain.Session) error {
	if snap == nil {
		return fmt.Errorf("cannot restore nil session")
	}
	n := e.def.StepCount()
	if snap.DefinitionID != "" && snap.DefinitionID != e.def.ID {
		return fmt.Errorf("session %s belongs to definition %q, engine runs %q", snap.ID, snap.DefinitionID, e.def.ID)
	}
	if snap.StepIndex < 0 || snap.StepIndex > n || (snap.StepIndex == n && !snap.Completed) {
		return fmt.Errorf("session %s has step index %d outside [0,%d)", snap.ID, snap.StepIndex, n)
	}
	if len(snap.Recorded) < snap.StepIndex || len(snap.Recorded) > n {
		return fmt.Errorf("session %s has %d recorded answers at step %d", snap.ID, len(snap.Recorded), snap.StepIndex)
	}
	if snap.Completed && (snap.StepIndex != n || len(snap.Recorded) != n) {
		return fmt.Errorf("session %s is completed at step %d with %d answers, want %d", snap.ID, snap.StepIndex, len(snap.Recorded), n)
	}
	for i, a := range snap.Recorded {
		if a < 0 || a >= len(e.def.Steps[i].Options) {
			return fmt.Errorf("session %s has answer %d for step %d out of range [0,%d)", snap.ID, a, i, len(e.def.Steps[i].Options))
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelPendingLocked()
	s := snap.Snapshot()
	if len(s.Answered) != n {
		answered := make([]bool, n)
		copy(answered, s.Answered)
		s.Answered = answered
	}
	e.session = s
	e.result = nil
	e.illustration = s.StepIndex
	if s.Completed {
		e.illustration = n - 1
		e.result = e.resolveLocked(ctx)
	}
	return nil
}

// Close stops scheduled callbacks. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPendingLocked()
	e.closed = true
}

func (e *Engine) completeLocked(ctx context.Context, out *emitter) {
	s := e.session
	s.Completed = true
	s.StepIndex = e.def.StepCount()

	e.result = e.resolveLocked(ctx)
	idx := e.result.Index
	s.ResultIndex = &idx

	e.logger.Info("quiz completed", "answers", s.Answers(), "result", idx)
	if h := e.hooks.OnComplete; h != nil {
		ev := &domain.CompleteEvent{EventBase: e.base(), Answers: s.Answers(), Result: e.result}
		out.add(func() { h(ctx, ev) })
	}
}

func (e *Engine) rejectLocked(ctx context.Context, action string, reason domain.RejectReason, option int, out *emitter) {
	e.logger.Debug("ignoring input", "action", action, "reason", reason, "step", e.session.StepIndex)
	if h := e.hooks.OnReject; h != nil {
		ev := &domain.RejectEvent{
			EventBase: e.base(),
			Action:    action,
			Reason:    reason,
			StepIndex: e.session.StepIndex,
			Option:    option,
		}
		out.add(func() { h(ctx, ev) })
	}
}

func (e *Engine) base() domain.EventBase {
	return domain.EventBase{Timestamp: e.now().UTC(), SessionID: e.session.ID}
}

// emitter collects hook invocations to run once the engine mutex is released.
type emitter []func()

func (em *emitter) add(f func()) {
	*em = append(*em, f)
}

func (em emitter) fire() {
	for _, f := range em {
		f()
	}
}
