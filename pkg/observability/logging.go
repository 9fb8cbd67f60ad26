package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/pathquiz/pkg/domain"
)

// LoggingHooks writes one structured line per lifecycle event.
// Transition phases other than started are logged at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			level := slog.LevelDebug
			if e.Phase == domain.PhaseStarted {
				level = slog.LevelInfo
			}
			logger.Log(ctx, level, "step_transition",
				"session_id", e.SessionID,
				"phase", e.Phase,
				"direction", e.Direction,
				"from", e.FromStep,
				"to", e.ToStep,
				"elapsed", e.Elapsed,
			)
		},
		OnReject: func(ctx context.Context, e *domain.RejectEvent) {
			logger.Debug("input_rejected",
				"session_id", e.SessionID,
				"action", e.Action,
				"reason", e.Reason,
				"step", e.StepIndex,
			)
		},
		OnComplete: func(ctx context.Context, e *domain.CompleteEvent) {
			attrs := []any{"session_id", e.SessionID, "answers", e.Answers}
			if e.Result != nil {
				attrs = append(attrs, "result", e.Result.Title)
			}
			logger.Info("quiz_complete", attrs...)
		},
		OnRestart: func(ctx context.Context, e *domain.RestartEvent) {
			logger.Info("quiz_restart",
				"session_id", e.SessionID,
				"from", e.FromStep,
				"cancelled_transition", e.Cancelled,
			)
		},
	}
}
