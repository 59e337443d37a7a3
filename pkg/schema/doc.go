// Package schema describes parsed tree documents.
//
// A Document holds one or more named trees. Each tree has a single root
// Element; elements keep their attributes in document order together with
// the line they were declared on, so that later validation can point back
// at the source.
package schema
