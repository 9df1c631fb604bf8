package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every lookup failure.
var ErrNotFound = errors.New("not found")

var (
	// ErrGraphNotFound is returned when a graph id is not registered.
	ErrGraphNotFound = fmt.Errorf("graph %w", ErrNotFound)
	// ErrRunNotFound is returned when a run id is unknown to the run store.
	ErrRunNotFound = fmt.Errorf("run %w", ErrNotFound)
	// ErrNodeNotFound is returned when the traversal reaches an undefined node.
	ErrNodeNotFound = fmt.Errorf("node %w", ErrNotFound)
	// ErrStepTypeNotFound is returned when a node names an unregistered step type.
	ErrStepTypeNotFound = fmt.Errorf("step type %w", ErrNotFound)
)

// ErrRunExists is returned when a run result is saved twice under the same id.
var ErrRunExists = errors.New("run already exists")

// ErrInvalidGraph is returned when a graph definition is rejected.
var ErrInvalidGraph = errors.New("invalid graph")

// NodeNotFoundError reports a traversal step onto a node missing from the graph.
type NodeNotFoundError struct {
	GraphID string
	NodeID  string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("graph %q: node %q not found", e.GraphID, e.NodeID)
}

func (e *NodeNotFoundError) Unwrap() error { return ErrNodeNotFound }

// StepTypeNotFoundError reports a node whose step type has no registered handler.
type StepTypeNotFoundError struct {
	GraphID  string
	NodeID   string
	StepType string
}

func (e *StepTypeNotFoundError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("step type %q not registered", e.StepType)
	}
	return fmt.Sprintf("graph %q: node %q: step type %q not registered", e.GraphID, e.NodeID, e.StepType)
}

func (e *StepTypeNotFoundError) Unwrap() error { return ErrStepTypeNotFound }

// StepError wraps a failure raised by a step handler.
type StepError struct {
	GraphID  string
	NodeID   string
	StepType string
	Step     int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("graph %q: step %d (node %q, type %q) failed: %v", e.GraphID, e.Step, e.NodeID, e.StepType, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
