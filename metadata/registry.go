package metadata

import (
	"context"
	"sync"
)

// Registry owns at most one Provider. The first Instance call fixes its
// configuration; later calls return the same provider and ignore their
// options.
type Registry struct {
	mu       sync.Mutex
	provider *Provider
}

// Instance returns the registered provider, creating it from opts on the
// first call.
func (r *Registry) Instance(opts ...Option) *Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.provider == nil {
		r.provider = NewProvider(opts...)
	}
	return r.provider
}

// Current returns the registered provider or a ConfigurationError.
func (r *Registry) Current() (*Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.provider == nil {
		return nil, &ConfigurationError{Op: "metadata.Current"}
	}
	return r.provider, nil
}

// IsValidDioceseForNation checks diocese against the registered provider.
func (r *Registry) IsValidDioceseForNation(ctx context.Context, diocese, nation string) (bool, error) {
	r.mu.Lock()
	p := r.provider
	r.mu.Unlock()
	if p == nil {
		return false, &ConfigurationError{Op: "metadata.IsValidDioceseForNation"}
	}
	return p.IsValidDioceseForNation(ctx, diocese, nation)
}

// Reset forgets the provider and its configuration.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provider = nil
}

var defaultRegistry Registry

// Instance calls Instance on the process-wide registry.
func Instance(opts ...Option) *Provider { return defaultRegistry.Instance(opts...) }

// Current calls Current on the process-wide registry.
func Current() (*Provider, error) { return defaultRegistry.Current() }

// IsValidDioceseForNation calls IsValidDioceseForNation on the process-wide registry.
func IsValidDioceseForNation(ctx context.Context, diocese, nation string) (bool, error) {
	return defaultRegistry.IsValidDioceseForNation(ctx, diocese, nation)
}

// Reset clears the process-wide registry.
func Reset() { defaultRegistry.Reset() }
