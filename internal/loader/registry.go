package loader

import (
	"fmt"
	"sync"

	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/loaders/raw"
	"github.com/avmjs/vapdeploy/loaders/solc"
)

// Registry maps loader identifiers to their functions. Resolution of an
// unknown identifier is a configuration error, caught before any stage
// executes.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]ir.LoaderFunc
}

// NewRegistry returns a registry pre-populated with the built-in
// loaders.
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]ir.LoaderFunc)}
	r.Register("raw", raw.Load)
	r.Register("literal", raw.LoadLiterals)
	r.Register("solc", solc.Load)
	return r
}

// Register binds name to fn, replacing any previous binding.
func (r *Registry) Register(name string, fn ir.LoaderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[name] = fn
}

// Get returns the function registered under name.
func (r *Registry) Get(name string) (ir.LoaderFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.loaders[name]
	if !ok {
		return nil, fmt.Errorf("unknown loader: %q", name)
	}
	return fn, nil
}
