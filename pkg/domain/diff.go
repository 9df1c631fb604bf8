package domain

// StateDiff represents the changes between two states.
type StateDiff struct {
	// Added holds keys absent from the previous state.
	Added map[string]Value `json:"added,omitempty"`
	// Changed holds keys whose value is no longer structurally equal.
	Changed map[string]Value `json:"changed,omitempty"`
	// Removed lists keys dropped from the state, sorted.
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between prev and next.
// A nil prev yields every key of next as added.
func Diff(prev, next State) StateDiff {
	var d StateDiff
	for _, k := range next.Keys() {
		nv := next[k]
		ov, exists := prev[k]
		switch {
		case !exists:
			if d.Added == nil {
				d.Added = make(map[string]Value)
			}
			d.Added[k] = nv.Clone()
		case !ov.Equal(nv):
			if d.Changed == nil {
				d.Changed = make(map[string]Value)
			}
			d.Changed[k] = nv.Clone()
		}
	}
	for _, k := range prev.Keys() {
		if _, exists := next[k]; !exists {
			d.Removed = append(d.Removed, k)
		}
	}
	return d
}

// IsEmpty checks if the diff contains any changes.
func (d StateDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

// StepDiffs returns the diff produced by each logged step, starting from initial.
func StepDiffs(initial State, log []LogEntry) []StateDiff {
	out := make([]StateDiff, len(log))
	prev := initial
	for i, e := range log {
		out[i] = Diff(prev, e.State)
		prev = e.State
	}
	return out
}
