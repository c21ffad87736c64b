// Package providers knows which external credential providers a user may be
// linked to, and how to complete an OAuth authorization-code flow for the
// ones that support it.
package providers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Registry is the set of linkable provider names. It is built once at
// startup and read-only afterwards.
type Registry struct {
	names map[string]*OAuthProvider
}

// NewRegistry registers names that can be linked without an OAuth flow
// (credentials supplied by the caller).
func NewRegistry(names ...string) *Registry {
	r := &Registry{names: make(map[string]*OAuthProvider)}
	for _, n := range names {
		if n = normalize(n); n != "" {
			r.names[n] = nil
		}
	}
	return r
}

// AddOAuth registers p under its name.
func (r *Registry) AddOAuth(p *OAuthProvider) {
	r.names[p.Name()] = p
}

// Registered reports whether name may be linked.
func (r *Registry) Registered(name string) bool {
	_, ok := r.names[normalize(name)]
	return ok
}

// OAuth returns the OAuth flow for name.
func (r *Registry) OAuth(name string) (*OAuthProvider, error) {
	p, ok := r.names[normalize(name)]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists registered providers in order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.names))
	for n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
