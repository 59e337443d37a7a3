package ports

import "errors"

// ErrDocumentNotFound is returned by loaders for an unknown document name.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentLoader defines how the engine retrieves tree documents.
// Documents are returned as raw text; parsing belongs to the factory.
type DocumentLoader interface {
	// ListDocuments returns the names of all documents, in a stable order.
	ListDocuments() ([]string, error)

	// GetDocument returns the raw text of the named document.
	GetDocument(name string) ([]byte, error)
}
