package domain

import (
	"context"
	"time"
)

// Phase is a stage of a visual step transition.
type Phase string

const (
	// PhaseStarted fires when the lock is taken and the old illustration starts fading out.
	PhaseStarted Phase = "started"
	// PhaseSwap fires at the midpoint: the old illustration is hidden, the new one shown at zero opacity.
	PhaseSwap Phase = "swap"
	// PhaseSettled fires when the new illustration is fully visible and the lock is released.
	PhaseSettled Phase = "settled"
)

// Direction tells presenters which way the illustrations move.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// RejectReason explains why an input was ignored.
type RejectReason string

const (
	RejectLocked      RejectReason = "locked"
	RejectOutOfRange  RejectReason = "out_of_range"
	RejectStaleStep   RejectReason = "stale_step"
	RejectAtFirstStep RejectReason = "at_first_step"
	RejectCompleted   RejectReason = "completed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

// TransitionEvent describes one phase of a step transition.
type TransitionEvent struct {
	EventBase
	Phase            Phase     `json:"phase"`
	Direction        Direction `json:"direction"`
	FromStep         int       `json:"from_step"`
	ToStep           int       `json:"to_step"`
	FromIllustration int       `json:"from_illustration"`
	ToIllustration   int       `json:"to_illustration"`
	// Elapsed is the time since PhaseStarted; zero for the started phase.
	Elapsed time.Duration `json:"elapsed"`
}

// RejectEvent is emitted for every ignored input.
type RejectEvent struct {
	EventBase
	Action    string       `json:"action"`
	Reason    RejectReason `json:"reason"`
	StepIndex int          `json:"step_index"`
	Option    int          `json:"option,omitempty"`
}

// CompleteEvent is emitted once when the final answer is recorded.
type CompleteEvent struct {
	EventBase
	Answers []int     `json:"answers"`
	Result  *Resolved `json:"result"`
}

// RestartEvent is emitted when a session is reset to the first step.
type RestartEvent struct {
	EventBase
	FromStep  int  `json:"from_step"`
	Cancelled bool `json:"cancelled_transition"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnReject     func(context.Context, *RejectEvent)
	OnComplete   func(context.Context, *CompleteEvent)
	OnRestart    func(context.Context, *RestartEvent)
}

// Merge combines two hook sets; both callbacks run, a first.
func (a LifecycleHooks) Merge(b LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: chain(a.OnTransition, b.OnTransition),
		OnReject:     chain(a.OnReject, b.OnReject),
		OnComplete:   chain(a.OnComplete, b.OnComplete),
		OnRestart:    chain(a.OnRestart, b.OnRestart),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
