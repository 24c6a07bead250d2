package breaker

import "sync"

// Registry owns one Breaker per upstream endpoint.
type Registry struct {
	settings Settings

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates a Registry whose breakers share settings.
func NewRegistry(settings Settings) *Registry {
	return &Registry{
		settings: settings.withDefaults(),
		breakers: make(map[string]*Breaker),
	}
}

// For returns the breaker for endpoint, creating it on first use.
func (r *Registry) For(endpoint string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.breakers[endpoint]
	if !ok {
		b = New(endpoint, r.settings)
		r.breakers[endpoint] = b
	}
	return b
}

// Snapshot reports every known breaker keyed by endpoint.
func (r *Registry) Snapshot() map[string]Snapshot {
	r.mu.Lock()
	breakers := make(map[string]*Breaker, len(r.breakers))
	for endpoint, b := range r.breakers {
		breakers[endpoint] = b
	}
	r.mu.Unlock()

	out := make(map[string]Snapshot, len(breakers))
	for endpoint, b := range breakers {
		out[endpoint] = b.Snapshot()
	}
	return out
}
