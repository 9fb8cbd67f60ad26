package session

import (
	"context"

	"github.com/aretw0/pathquiz/internal/runtime"
	"github.com/aretw0/pathquiz/pkg/domain"
)

// Update kinds pushed to a Notifier.
const (
	UpdateTransition = "transition"
	UpdateComplete   = "complete"
	UpdateRestart    = "restart"
)

// Update is a visible change of a session, carrying the directive to re-render.
type Update struct {
	Kind      string           `json:"kind"`
	SessionID string           `json:"session_id"`
	Phase     domain.Phase     `json:"phase,omitempty"`
	Directive domain.Directive `json:"directive"`
}

// Notifier receives updates. It is called outside the engine mutex, possibly
// from a timer goroutine, and must not block.
type Notifier func(ctx context.Context, u Update)

func (m *Manager) notifyHooks(engine func() *runtime.Engine) domain.LifecycleHooks {
	push := func(ctx context.Context, kind, sessionID string, phase domain.Phase) {
		e := engine()
		if e == nil {
			return
		}
		m.notifier(ctx, Update{Kind: kind, SessionID: sessionID, Phase: phase, Directive: e.Directive()})
	}

	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, ev *domain.TransitionEvent) {
			push(ctx, UpdateTransition, ev.SessionID, ev.Phase)
		},
		OnComplete: func(ctx context.Context, ev *domain.CompleteEvent) {
			push(ctx, UpdateComplete, ev.SessionID, "")
		},
		OnRestart: func(ctx context.Context, ev *domain.RestartEvent) {
			push(ctx, UpdateRestart, ev.SessionID, "")
		},
	}
}
