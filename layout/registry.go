package layout

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds layouts by version.
type Registry struct {
	mu      sync.RWMutex
	layouts map[string]*Layout
}

func NewRegistry() *Registry {
	return &Registry{layouts: make(map[string]*Layout)}
}

// Register validates l and adds it. A version can only be registered once.
func (r *Registry) Register(l *Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.layouts[l.Version]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateVersion, l.Version)
	}
	r.layouts[l.Version] = l
	return nil
}

func (r *Registry) Lookup(version string) (*Layout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.layouts[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, version)
	}
	return l, nil
}

// Versions returns the registered versions in sorted order.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.layouts))
	for v := range r.layouts {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Default is the registry the command line resolves --layout-version against.
var Default = NewRegistry()

func init() {
	if err := Default.Register(Heroes3); err != nil {
		panic(err)
	}
}

func Register(l *Layout) error              { return Default.Register(l) }
func Lookup(version string) (*Layout, error) { return Default.Lookup(version) }
func Versions() []string                     { return Default.Versions() }
