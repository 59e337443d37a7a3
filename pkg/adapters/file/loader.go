package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/canopy/pkg/ports"
)

// Ext is the extension of tree documents.
const Ext = ".xml"

// Loader implements ports.DocumentLoader over a directory tree. Every file
// ending in Ext is a document, named by its slash-separated path relative to
// the root.
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{fsys: os.DirFS(dir)}
}

// NewLoaderFS creates a Loader over an arbitrary file system, e.g. an
// embed.FS.
func NewLoaderFS(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// ListDocuments returns the names of all documents, sorted.
func (l *Loader) ListDocuments() ([]string, error) {
	var names []string
	err := fs.WalkDir(l.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == Ext {
			names = append(names, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tree documents: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

// GetDocument reads a document by name.
func (l *Loader) GetDocument(name string) ([]byte, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ports.ErrDocumentNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tree document %s: %w", name, err)
	}
	return data, nil
}
