package secret

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

const refPrefix = "secretref:"

var inlineRef = regexp.MustCompile(`secretref:([^:\s]+):([^\s]+)`)

// Resolver expands configuration values and resolves secret references.
type Resolver struct {
	mu        sync.RWMutex
	providers map[string]Provider
	strict    bool
}

// NewResolver creates a resolver. In strict mode a provider returning an
// empty value is an error.
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider), strict: strict}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// DefaultResolver returns a strict resolver with the file and env providers.
func DefaultResolver() *Resolver {
	return NewResolver(true, FileProvider{}, EnvProvider{})
}

// Register adds or replaces a provider.
func (r *Resolver) Register(p Provider) {
	if p == nil {
		return
	}
	r.mu.Lock()
	r.providers[p.Name()] = p
	r.mu.Unlock()
}

// ResolveValue expands the environment in value and resolves every secret
// reference it contains, whether it is the whole value or embedded in it.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}
	if !strings.Contains(expanded, refPrefix) {
		return expanded, nil
	}
	if name, ref, ok := ParseSecretRef(expanded); ok && !strings.ContainsAny(ref, " \t") {
		return r.resolve(ctx, name, ref)
	}

	matches := inlineRef.FindAllStringSubmatchIndex(expanded, -1)
	out := expanded
	// Replace from the end so earlier indexes stay valid.
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		secret, err := r.resolve(ctx, out[m[2]:m[3]], out[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		out = out[:m[0]] + secret + out[m[1]:]
	}
	return out, nil
}

// ResolveInPlace resolves each pointed-to string, stopping at the first error.
func (r *Resolver) ResolveInPlace(ctx context.Context, fields map[string]*string) error {
	for name, p := range fields {
		if p == nil || *p == "" {
			continue
		}
		v, err := r.ResolveValue(ctx, *p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", name, err)
		}
		*p = v
	}
	return nil
}

// ParseSecretRef splits "secretref:<provider>:<ref>".
func ParseSecretRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, refPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

func (r *Resolver) resolve(ctx context.Context, name, ref string) (string, error) {
	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}

	v, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if r.strict && v == "" {
		return "", fmt.Errorf("%w: provider %q", ErrEmptySecret, name)
	}
	return v, nil
}
