package memory

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/canopy/pkg/ports"
)

// Loader implements ports.DocumentLoader using an in-memory map.
type Loader struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewLoader creates a new Loader with the provided documents, keyed by name.
func NewLoader(data map[string]string) *Loader {
	docs := make(map[string][]byte, len(data))
	for k, v := range data {
		docs[k] = []byte(v)
	}
	return &Loader{docs: docs}
}

// Add stores or replaces a document.
func (l *Loader) Add(name, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[name] = []byte(text)
}

// GetDocument retrieves the raw text of a document by name.
func (l *Loader) GetDocument(name string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	content, ok := l.docs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrDocumentNotFound, name)
	}
	return slices.Clone(content), nil
}

// ListDocuments returns all document names, sorted.
func (l *Loader) ListDocuments() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.docs))
	for k := range l.docs {
		names = append(names, k)
	}
	slices.Sort(names)
	return names, nil
}
