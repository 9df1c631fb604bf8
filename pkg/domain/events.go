package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart    EventType = "run_start"
	EventNodeEnter   EventType = "node_enter"
	EventNodeLeave   EventType = "node_leave"
	EventRunComplete EventType = "run_complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	GraphID   string    `json:"graph_id"`
}

// NodeEvent represents entry into or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID   string `json:"node_id"`
	StepType string `json:"step_type"`
	Step     int    `json:"step"`
	// Err is set on leave when the handler failed.
	Err error `json:"-"`
}

// RunEvent represents the start or the completion of a run.
type RunEvent struct {
	EventBase
	Steps        int         `json:"steps,omitempty"`
	TerminatedBy Termination `json:"terminated_by,omitempty"`
	Err          error       `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnRunStart    func(context.Context, *RunEvent)
	OnNodeEnter   func(context.Context, *NodeEvent)
	OnNodeLeave   func(context.Context, *NodeEvent)
	OnRunComplete func(context.Context, *RunEvent)
}
