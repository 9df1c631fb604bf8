package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/aretw0/flowrun/pkg/ports"
)

// Mask replaces the value of every state key matching a PII pattern.
const Mask = "***"

type piiMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys matching the patterns
// in the final state and in every logged snapshot before they reach the store.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.RunStore) ports.RunStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

// CompilePatterns checks that every pattern is a valid regular expression.
func CompilePatterns(patternStrings []string) error {
	for _, p := range patternStrings {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
	}
	return nil
}

func (m *piiMiddleware) Save(ctx context.Context, result *domain.RunResult) error {
	// Work on a copy: the caller keeps the unmasked result.
	cloned := result.Clone()
	cloned.FinalState = m.maskState(cloned.FinalState)
	for i := range cloned.Log {
		cloned.Log[i].State = m.maskState(cloned.Log[i].State)
	}
	return m.next.Save(ctx, cloned)
}

func (m *piiMiddleware) Get(ctx context.Context, runID string) (*domain.RunResult, error) {
	return m.next.Get(ctx, runID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) maskState(s domain.State) domain.State {
	if s == nil {
		return nil
	}
	out := make(domain.State, len(s))
	for k, v := range s {
		out[k] = m.maskEntry(k, v)
	}
	return out
}

func (m *piiMiddleware) maskEntry(key string, v domain.Value) domain.Value {
	if m.matches(key) {
		return domain.String(Mask)
	}
	return m.maskValue(v)
}

// maskValue recurses into maps and lists of maps.
func (m *piiMiddleware) maskValue(v domain.Value) domain.Value {
	switch v.Kind() {
	case domain.KindMap:
		entries, _ := v.AsMap()
		for k, sub := range entries {
			entries[k] = m.maskEntry(k, sub)
		}
		return domain.Map(entries)
	case domain.KindList:
		items, _ := v.AsList()
		for i, it := range items {
			items[i] = m.maskValue(it)
		}
		return domain.List(items...)
	default:
		return v
	}
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
