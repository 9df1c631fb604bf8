package runtime

import (
	"context"

	"github.com/aretw0/flowrun/pkg/domain"
)

func (e *Engine) emitRunStart(ctx context.Context, graphID, runID string) {
	if e.hooks.OnRunStart == nil {
		return
	}
	e.hooks.OnRunStart(ctx, &domain.RunEvent{
		EventBase: e.base(domain.EventRunStart, graphID, runID),
	})
}

func (e *Engine) emitRunComplete(ctx context.Context, graphID, runID string, result *domain.RunResult, err error) {
	if e.hooks.OnRunComplete == nil {
		return
	}
	evt := &domain.RunEvent{
		EventBase: e.base(domain.EventRunComplete, graphID, runID),
		Err:       err,
	}
	if result != nil {
		evt.Steps = result.Steps
		evt.TerminatedBy = result.TerminatedBy
	}
	e.hooks.OnRunComplete(ctx, evt)
}

func (e *Engine) emitNodeEnter(ctx context.Context, graphID, runID, nodeID, stepType string, step int) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: e.base(domain.EventNodeEnter, graphID, runID),
		NodeID:    nodeID,
		StepType:  stepType,
		Step:      step,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, graphID, runID, nodeID, stepType string, step int, err error) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		EventBase: e.base(domain.EventNodeLeave, graphID, runID),
		NodeID:    nodeID,
		StepType:  stepType,
		Step:      step,
		Err:       err,
	})
}

func (e *Engine) base(t domain.EventType, graphID, runID string) domain.EventBase {
	return domain.EventBase{
		Timestamp: e.now(),
		Type:      t,
		RunID:     runID,
		GraphID:   graphID,
	}
}
