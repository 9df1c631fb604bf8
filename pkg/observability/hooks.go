package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/flowrun/pkg/domain"
)

// Combine merges hook sets so that every non-nil callback runs, in argument order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnRunStart = chainRun(out.OnRunStart, h.OnRunStart)
		out.OnNodeEnter = chainNode(out.OnNodeEnter, h.OnNodeEnter)
		out.OnNodeLeave = chainNode(out.OnNodeLeave, h.OnNodeLeave)
		out.OnRunComplete = chainRun(out.OnRunComplete, h.OnRunComplete)
	}
	return out
}

func chainRun(a, b func(context.Context, *domain.RunEvent)) func(context.Context, *domain.RunEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.RunEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainNode(a, b func(context.Context, *domain.NodeEvent)) func(context.Context, *domain.NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LoggingHooks logs node transitions at debug level and run outcomes at info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter",
				"run_id", e.RunID,
				"graph_id", e.GraphID,
				"node_id", e.NodeID,
				"step_type", e.StepType,
				"step", e.Step,
			)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "node_leave", "run_id", e.RunID, "node_id", e.NodeID, "step", e.Step, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "node_leave", "run_id", e.RunID, "node_id", e.NodeID, "step", e.Step)
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "run_failed", "run_id", e.RunID, "graph_id", e.GraphID, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "run_complete",
				"run_id", e.RunID,
				"graph_id", e.GraphID,
				"steps", e.Steps,
				"terminated_by", string(e.TerminatedBy),
			)
		},
	}
}
