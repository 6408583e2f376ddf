package output

import (
	"fmt"
	"sync"

	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/plugins/builtin"
)

// Registry maps plugin identifiers to their functions.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]ir.PluginFunc
}

// NewRegistry returns a registry pre-populated with the built-in
// plugins.
func NewRegistry() *Registry {
	r := &Registry{plugins: make(map[string]ir.PluginFunc)}
	r.Register("minify", builtin.Minify)
	r.Register("redact", builtin.Redact)
	r.Register("banner", builtin.Banner)
	return r
}

// Register binds name to fn, replacing any previous binding.
func (r *Registry) Register(name string, fn ir.PluginFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[name] = fn
}

// Get returns the function registered under name.
func (r *Registry) Get(name string) (ir.PluginFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.plugins[name]
	if !ok {
		return nil, fmt.Errorf("unknown output plugin: %q", name)
	}
	return fn, nil
}
