// Package blackboard provides the key/value store shared by every node of a
// tree instance.
package blackboard

import (
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/canopy/pkg/convert"
	"github.com/aretw0/canopy/pkg/domain"
)

// Observer is notified after every successful write.
type Observer func(key string, value any)

// Blackboard is a thread-safe, type-erased key/value store. Entries are created
// on first write and replaced by later writes; they are never evicted.
type Blackboard struct {
	// writeMu orders writes and their notifications, so observers see
	// writes in store order.
	writeMu   sync.Mutex
	mu        sync.RWMutex
	data      map[string]any
	observers map[int]Observer
	nextObs   int
}

// New creates an empty blackboard.
func New() *Blackboard {
	return &Blackboard{
		data:      make(map[string]any),
		observers: make(map[int]Observer),
	}
}

// Write stores value under key, replacing any previous entry. Observers must
// not write to the same blackboard.
func (b *Blackboard) Write(key string, value any) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.Lock()
	b.data[key] = value
	obs := slices.Collect(maps.Values(b.observers))
	b.mu.Unlock()

	for _, o := range obs {
		o(key, value)
	}
}

// ReadAny returns the raw stored value.
func (b *Blackboard) ReadAny(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok
}

// Read returns the value under key as a T. A stored string is parsed into T,
// so values seeded from text can be read back typed.
func Read[T any](b *Blackboard, key string) (T, error) {
	var zero T
	v, ok := b.ReadAny(key)
	if !ok {
		return zero, &domain.BlackboardError{Key: key, Kind: domain.ErrKeyNotFound}
	}
	out, err := convert.Convert[T](v)
	if err != nil {
		return zero, &domain.BlackboardError{Key: key, Kind: domain.ErrTypeMismatch, Cause: err}
	}
	return out, nil
}

// Has reports whether key has ever been written.
func (b *Blackboard) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.data[key]
	return ok
}

// Keys returns all keys in sorted order.
func (b *Blackboard) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Sorted(maps.Keys(b.data))
}

// Snapshot returns a shallow copy of all entries.
func (b *Blackboard) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.data)
}

// TextSnapshot returns all entries rendered as text.
func (b *Blackboard) TextSnapshot() map[string]string {
	snap := b.Snapshot()
	out := make(map[string]string, len(snap))
	for k, v := range snap {
		out[k] = convert.ToText(v)
	}
	return out
}

// Subscribe registers o for write notifications. Observers run on the
// writer's goroutine, one write at a time and in store order, while readers
// are not blocked. The returned func removes the observer.
func (b *Blackboard) Subscribe(o Observer) (cancel func()) {
	b.mu.Lock()
	id := b.nextObs
	b.nextObs++
	b.observers[id] = o
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.observers, id)
			b.mu.Unlock()
		})
	}
}
