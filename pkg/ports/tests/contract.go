package tests

import (
	"errors"
	"slices"
	"testing"

	"github.com/aretw0/canopy/pkg/ports"
)

// DocumentLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.DocumentLoader.
func DocumentLoaderContractTest(t *testing.T, loader ports.DocumentLoader, setupData map[string][]byte) {
	t.Helper()

	t.Run("GetDocument_Success", func(t *testing.T) {
		for name, expected := range setupData {
			content, err := loader.GetDocument(name)
			if err != nil {
				t.Fatalf("unexpected error getting document %s: %v", name, err)
			}
			if string(content) != string(expected) {
				t.Errorf("content mismatch for %s. got %q, want %q", name, content, expected)
			}
		}
	})

	t.Run("GetDocument_NotFound", func(t *testing.T) {
		_, err := loader.GetDocument("non-existent-document")
		if !errors.Is(err, ports.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound, got %v", err)
		}
	})

	t.Run("ListDocuments", func(t *testing.T) {
		names, err := loader.ListDocuments()
		if err != nil {
			t.Fatalf("unexpected error listing documents: %v", err)
		}
		if len(names) != len(setupData) {
			t.Errorf("expected %d documents, got %d", len(setupData), len(names))
		}
		if !slices.IsSorted(names) {
			t.Errorf("documents not listed in order: %v", names)
		}
		for name := range setupData {
			if !slices.Contains(names, name) {
				t.Errorf("document %s missing from list", name)
			}
		}
	})
}
