package codec

import (
	"sync"

	"github.com/mrjoshuak/go-j2kbox/errs"
)

// Registry maps codec names to Codec implementations, mirroring the
// register/get/list surface callers expect from a pluggable transfer-syntax
// registry.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// Register adds c under its own Name(). A later Register with the same name
// replaces the earlier entry.
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[c.Name()] = c
}

// Get looks up a codec by name.
func (r *Registry) Get(name string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[name]
	if !ok {
		return nil, errs.Wrap(errs.KindInvalidParameter, "codec.Registry.Get", "no codec registered under name "+name, ErrCodecNotFound)
	}
	return c, nil
}

// List returns every registered codec name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		out = append(out, name)
	}
	return out
}

// defaultRegistry is the package-level registry used by the convenience
// functions below, for callers that don't need multiple independent
// registries.
var defaultRegistry = NewRegistry()

// Register adds c to the default registry.
func Register(c Codec) { defaultRegistry.Register(c) }

// Get looks up a codec by name in the default registry.
func Get(name string) (Codec, error) { return defaultRegistry.Get(name) }

// List returns every codec name registered in the default registry.
func List() []string { return defaultRegistry.List() }
