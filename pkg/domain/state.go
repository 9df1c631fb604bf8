package domain

import (
	"fmt"
	"sort"
)

// State is the shared key/value blob read and written by step handlers.
// The engine imposes no schema on it.
type State map[string]Value

// NewState converts a native map into a State.
func NewState(m map[string]any) (State, error) {
	s := make(State, len(m))
	for k, raw := range m {
		v, err := FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("state key %q: %w", k, err)
		}
		s[k] = v
	}
	return s, nil
}

// MustState is like NewState but panics on unsupported values.
func MustState(m map[string]any) State {
	s, err := NewState(m)
	if err != nil {
		panic(err)
	}
	return s
}

// Clone returns a deep copy. Cloning a nil State yields an empty State.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v.Clone()
	}
	return out
}

// Get returns the value under key and whether it is present.
func (s State) Get(key string) (Value, bool) {
	v, ok := s[key]
	return v, ok
}

// Set stores v under key.
func (s State) Set(key string, v Value) {
	s[key] = v
}

// Equal reports whether both states hold the same keys with structurally equal values.
func (s State) Equal(o State) bool {
	if len(s) != len(o) {
		return false
	}
	for k, a := range s {
		b, ok := o[k]
		if !ok || !a.Equal(b) {
			return false
		}
	}
	return true
}

// Keys returns the state keys in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the string held under key, if any.
func (s State) String(key string) (string, bool) {
	v, ok := s[key]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Number returns the number held under key, if any.
func (s State) Number(key string) (float64, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// Bool returns the boolean held under key, if any.
func (s State) Bool(key string) (bool, bool) {
	v, ok := s[key]
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// Any converts the state into a plain map, e.g. for templating or encoders
// that do not know about Value.
func (s State) Any() map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		out[k] = v.Any()
	}
	return out
}
