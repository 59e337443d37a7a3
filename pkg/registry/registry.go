package registry

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
)

// Entry pairs a node type's manifest with its constructor.
type Entry struct {
	Manifest    node.Manifest
	Constructor node.Constructor
}

// Registry manages the available node types.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register adds a node type under m.ID.
// Registering an identifier twice fails with ErrDuplicateRegistration.
func (r *Registry) Register(m node.Manifest, ctor node.Constructor) error {
	if m.ID == "" {
		return fmt.Errorf("register: empty node type identifier")
	}
	if ctor == nil {
		return fmt.Errorf("register %s: nil constructor", m.ID)
	}
	if m.Ports == nil {
		m.Ports = node.PortsList{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[m.ID]; ok {
		return &domain.BuildError{Node: m.ID, Kind: domain.ErrDuplicateRegistration}
	}
	r.entries[m.ID] = Entry{Manifest: m, Constructor: ctor}
	return nil
}

// MustRegister is Register that panics on error. Meant for package init.
func (r *Registry) MustRegister(m node.Manifest, ctor node.Constructor) {
	if err := r.Register(m, ctor); err != nil {
		panic(err)
	}
}

// Lookup returns the entry registered under id.
func (r *Registry) Lookup(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Manifests returns every registered manifest sorted by identifier.
func (r *Registry) Manifests() []node.Manifest {
	r.mu.RLock()
	out := make([]node.Manifest, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Manifest)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b node.Manifest) int { return strings.Compare(a.ID, b.ID) })
	return out
}
