package domain

// Termination records why a run stopped.
type Termination string

const (
	// TerminatedNatural means no outgoing edge matched after the last step.
	TerminatedNatural Termination = "natural"
	// TerminatedMaxSteps means the graph's step budget was exhausted.
	TerminatedMaxSteps Termination = "max_steps"
)

// LogEntry records the node that ran and a copy of the state it produced.
type LogEntry struct {
	Node  string `json:"node"`
	State State  `json:"state_snapshot"`
}

// RunResult is the immutable outcome of one execution.
type RunResult struct {
	RunID        string      `json:"run_id"`
	GraphID      string      `json:"graph_id"`
	FinalState   State       `json:"final_state"`
	Log          []LogEntry  `json:"log"`
	Steps        int         `json:"steps"`
	TerminatedBy Termination `json:"terminated_by"`
}

// Clone returns a deep copy of the result.
func (r *RunResult) Clone() *RunResult {
	if r == nil {
		return nil
	}
	out := *r
	out.FinalState = r.FinalState.Clone()
	out.Log = make([]LogEntry, len(r.Log))
	for i, e := range r.Log {
		out.Log[i] = LogEntry{Node: e.Node, State: e.State.Clone()}
	}
	return &out
}

// Nodes returns the sequence of visited node ids.
func (r *RunResult) Nodes() []string {
	out := make([]string, len(r.Log))
	for i, e := range r.Log {
		out[i] = e.Node
	}
	return out
}
