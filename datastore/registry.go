package datastore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps URI schemes to dialers.
type Registry struct {
	mu      sync.RWMutex
	dialers map[string]Dialer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{dialers: make(map[string]Dialer)}
}

// Register binds dialer to each scheme. Schemes are case-insensitive.
func (r *Registry) Register(dialer Dialer, schemes ...string) error {
	if dialer == nil || len(schemes) == 0 {
		return errors.New("datastore: invalid dialer registration")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range schemes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			return errors.New("datastore: empty scheme")
		}
		if _, exists := r.dialers[s]; exists {
			return fmt.Errorf("datastore: scheme %q already registered", s)
		}
	}
	for _, s := range schemes {
		r.dialers[strings.ToLower(strings.TrimSpace(s))] = dialer
	}
	return nil
}

// Lookup returns the dialer for scheme.
func (r *Registry) Lookup(scheme string) (Dialer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dialers[strings.ToLower(scheme)]
	return d, ok
}

// For resolves the dialer for cfg's URI scheme. An unusable URI or an
// unregistered scheme is a *ConfigError.
func (r *Registry) For(cfg ConnectionConfig) (Dialer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scheme := cfg.Scheme()
	d, ok := r.Lookup(scheme)
	if !ok {
		return nil, &ConfigError{
			Setting: SettingURI,
			Err:     fmt.Errorf("%w %q (registered: %s)", ErrUnknownScheme, scheme, strings.Join(r.Schemes(), ", ")),
		}
	}
	return d, nil
}

// Schemes returns the registered schemes, sorted.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.dialers))
	for s := range r.dialers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry receives the dialers that driver packages register in init.
var DefaultRegistry = NewRegistry()

// Register binds dialer to schemes on DefaultRegistry and panics on conflict.
func Register(dialer Dialer, schemes ...string) {
	if err := DefaultRegistry.Register(dialer, schemes...); err != nil {
		panic(err)
	}
}
