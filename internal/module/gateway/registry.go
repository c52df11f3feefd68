package gateway

import (
	"fmt"
	"sync"
)

// Registry holds the registered gateway integrations.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

// NewRegistry creates a new gateway registry.
func NewRegistry() *Registry {
	return &Registry{
		gateways: make(map[string]Gateway),
	}
}

// Register adds a gateway to the registry.
func (r *Registry) Register(g Gateway) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := g.Name()
	if _, exists := r.gateways[name]; exists {
		return fmt.Errorf("gateway %q already registered", name)
	}

	r.gateways[name] = g
	return nil
}

// Get returns the gateway with the given name.
func (r *Registry) Get(name string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, exists := r.gateways[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotFound, name)
	}

	return g, nil
}

// List returns the names of all registered gateways.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	return names
}
