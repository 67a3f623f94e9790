// Package backend defines the document backend consumed by the hybrid
// search pipeline: approximate-nearest-neighbor queries for the vector
// side and filtered scrolling for keyword candidates.
package backend

import (
	"context"
	"errors"
)

var (
	// ErrConnectionFailed indicates the backend could not be reached.
	ErrConnectionFailed = errors.New("failed to connect to backend")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Document is a document to be stored, already embedded by the caller.
// Ingestion proper lives outside this module; Add exists for seeding the
// embedded driver and for tests.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]any
}

// Hit is one raw backend hit, before any hybrid scoring.
type Hit struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]any
}

// Backend is the narrow handle the pipeline consumes. Implementations are
// safe for concurrent use.
type Backend interface {
	// QueryVector performs ANN search with a similarity floor.
	QueryVector(ctx context.Context, vector []float32, limit int, minScore float64, filter *Filter) ([]Hit, error)

	// Scroll pages through documents matching the filter, up to limit.
	Scroll(ctx context.Context, filter *Filter, limit int) ([]Hit, error)

	// Add stores pre-embedded documents.
	Add(ctx context.Context, docs []Document) error

	// Close releases backend resources.
	Close() error
}
