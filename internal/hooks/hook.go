// Package hooks defines the certificate-renewal hooks and the runner that
// executes them under the shared renewal lock.
package hooks

import (
	"sort"
)

// Hook ties a hook name to the service unit it restarts. Priority orders
// hooks when several run in one invocation; lower restarts first.
type Hook struct {
	Name     string `json:"name" yaml:"name"`
	Unit     string `json:"unit" yaml:"unit"`
	Priority int    `json:"priority" yaml:"priority"`
}

// The default table mirrors the service ordering of the Kerberos server
// stack this tool manages: KDC first, then the admin and supporting
// services that hold certificates of their own.
var defaults = []Hook{
	{Name: "kdc", Unit: "krb5kdc", Priority: 10},
	{Name: "kadmin", Unit: "kadmin", Priority: 20},
	{Name: "named", Unit: "named", Priority: 30},
	{Name: "httpd", Unit: "httpd", Priority: 40},
	{Name: "pki", Unit: "pki-cad", Priority: 50},
}

// Registry holds the known hooks, keyed by name.
type Registry struct {
	hooks map[string]Hook
}

// NewRegistry returns a registry seeded with the default hook table.
func NewRegistry() *Registry {
	r := &Registry{hooks: make(map[string]Hook, len(defaults))}
	for _, h := range defaults {
		r.hooks[h.Name] = h
	}
	return r
}

// Override points an existing hook at a different unit, or registers a new
// hook when the name is unknown. New hooks sort after the defaults.
func (r *Registry) Override(name, unit string) {
	h, ok := r.hooks[name]
	if !ok {
		h = Hook{Name: name, Priority: 100}
	}
	h.Unit = unit
	r.hooks[name] = h
}

// Get looks up a hook by name.
func (r *Registry) Get(name string) (Hook, bool) {
	h, ok := r.hooks[name]
	return h, ok
}

// All returns every hook in run order.
func (r *Registry) All() []Hook {
	out := make([]Hook, 0, len(r.hooks))
	for _, h := range r.hooks {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}
