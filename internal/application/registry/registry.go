package registry

import (
	"errors"
	"sort"
	"sync"

	"github.com/flowgraph-io/flowgraph/internal/domain"
)

// Registry resolves function names referenced by graph definitions to
// concrete callables. It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]domain.OpFunc
}

// NewRegistry creates an empty function registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]domain.OpFunc)}
}

// Register binds a function under name.
func (r *Registry) Register(name string, fn domain.OpFunc) error {
	if name == "" {
		return errors.New("function name cannot be empty")
	}
	if fn == nil {
		return errors.New("function is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.fns[name]; exists {
		return errors.New("function name already registered")
	}
	r.fns[name] = fn
	return nil
}

// MustRegister binds a function or panics; for package-init wiring.
func (r *Registry) MustRegister(name string, fn domain.OpFunc) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Get returns the function bound to name.
func (r *Registry) Get(name string) (domain.OpFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[name]
	return fn, ok
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.fns))
	for name := range r.fns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
