package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/flowrun/pkg/domain"
)

// Handler defines the signature for a step implementation.
// It receives the current state and returns the state handed to the next step.
// Returning a nil state is treated as an empty state.
type Handler func(ctx context.Context, s domain.State) (domain.State, error)

// Pure adapts a context-free, infallible transformation into a Handler.
func Pure(fn func(domain.State) domain.State) Handler {
	return func(_ context.Context, s domain.State) (domain.State, error) {
		return fn(s), nil
	}
}

// Registry manages the available step handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler to the registry.
// If a handler with the same name exists, it is overwritten.
// Register panics if fn is nil.
func (r *Registry) Register(name string, fn Handler) {
	if fn == nil {
		panic(fmt.Sprintf("registry: nil handler for step type %q", name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

// Resolve looks up a handler by name.
// An unknown name yields a *domain.StepTypeNotFoundError.
func (r *Registry) Resolve(name string) (Handler, error) {
	r.mu.RLock()
	fn, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &domain.StepTypeNotFoundError{StepType: name}
	}
	return fn, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered step types, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
