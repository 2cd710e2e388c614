package router

import (
	"strings"

	"github.com/zen-systems/mediagate/pkg/adapter"
)

// Override carries per-request provider selection.
type Override struct {
	Name    string
	APIKey  string
	BaseURL string
}

// Active reports whether the override selects a provider of its own.
func (o Override) Active() bool {
	return strings.TrimSpace(o.Name) != "" && strings.TrimSpace(o.APIKey) != ""
}

// Resolver picks the adapter serving a call: a fresh dynamic adapter when the
// override names a provider and key, otherwise the shared default.
type Resolver struct {
	defaultAdapter adapter.Adapter
	opts           []Option
}

// NewResolver creates a resolver around the process-wide default adapter.
func NewResolver(defaultAdapter adapter.Adapter, opts ...Option) *Resolver {
	return &Resolver{defaultAdapter: defaultAdapter, opts: opts}
}

// Default returns the shared default adapter.
func (r *Resolver) Default() adapter.Adapter {
	return r.defaultAdapter
}

// Resolve is evaluated on every call; dynamic adapters are never cached.
func (r *Resolver) Resolve(o Override) (adapter.Adapter, error) {
	if !o.Active() {
		if r.defaultAdapter == nil {
			return nil, adapter.NewError(adapter.KindConfiguration, "", "no default provider configured")
		}
		return r.defaultAdapter, nil
	}
	return BuildDynamic(o.Name, o.APIKey, o.BaseURL, r.opts...)
}
