package runtime

import (
	"context"
	"time"

	"github.com/aretw0/pathquiz/pkg/domain"
)

// beginTransitionLocked takes the transition lock and schedules the two chained
// callbacks: the midpoint swap after FadeOut and the release FadeIn later.
// The step index has already moved; only the illustration waits for the swap.
func (e *Engine) beginTransitionLocked(ctx context.Context, dir domain.Direction, from, to int, out *emitter) {
	e.locked = true
	e.gen++
	gen := e.gen
	started := e.now()

	// Callbacks outlive the request that triggered them.
	bg := context.WithoutCancel(ctx)

	ev := e.transitionEvent(domain.PhaseStarted, dir, from, to, 0)
	e.emitTransition(bg, ev, out)

	timing := e.def.Transition
	t := e.sched.AfterFunc(timing.FadeOut, func() {
		e.swap(bg, gen, dir, from, to, started)
	})
	e.pending = []Timer{t}
}

func (e *Engine) swap(ctx context.Context, gen uint64, dir domain.Direction, from, to int, started time.Time) {
	e.mu.Lock()
	if e.closed || gen != e.gen {
		e.mu.Unlock()
		return
	}

	var out emitter
	e.illustration = to
	e.emitTransition(ctx, e.transitionEvent(domain.PhaseSwap, dir, from, to, e.now().Sub(started)), &out)

	t := e.sched.AfterFunc(e.def.Transition.FadeIn, func() {
		e.settle(ctx, gen, dir, from, to, started)
	})
	e.pending = append(e.pending, t)
	e.mu.Unlock()

	out.fire()
}

func (e *Engine) settle(ctx context.Context, gen uint64, dir domain.Direction, from, to int, started time.Time) {
	e.mu.Lock()
	if e.closed || gen != e.gen {
		e.mu.Unlock()
		return
	}

	var out emitter
	e.locked = false
	e.pending = nil
	e.emitTransition(ctx, e.transitionEvent(domain.PhaseSettled, dir, from, to, e.now().Sub(started)), &out)
	e.mu.Unlock()

	out.fire()
}

// cancelPendingLocked invalidates any in-flight transition and reports whether one existed.
func (e *Engine) cancelPendingLocked() bool {
	wasLocked := e.locked
	e.gen++
	for _, t := range e.pending {
		t.Stop()
	}
	e.pending = nil
	e.locked = false
	return wasLocked
}

func (e *Engine) transitionEvent(phase domain.Phase, dir domain.Direction, from, to int, elapsed time.Duration) *domain.TransitionEvent {
	return &domain.TransitionEvent{
		EventBase:        e.base(),
		Phase:            phase,
		Direction:        dir,
		FromStep:         from,
		ToStep:           to,
		FromIllustration: from,
		ToIllustration:   to,
		Elapsed:          elapsed,
	}
}

func (e *Engine) emitTransition(ctx context.Context, ev *domain.TransitionEvent, out *emitter) {
	e.logger.Debug("transition", "phase", ev.Phase, "direction", ev.Direction, "from", ev.FromStep, "to", ev.ToStep)
	if h := e.hooks.OnTransition; h != nil {
		out.add(func() { h(ctx, ev) })
	}
}
