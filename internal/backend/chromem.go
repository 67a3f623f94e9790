package backend

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/fyrsmithlabs/searchd/internal/config"
	"github.com/fyrsmithlabs/searchd/internal/logging"
)

// ChromemBackend implements Backend over an embedded chromem-go database.
// chromem stores string metadata and has no scroll API, so the backend
// keeps the original documents in an in-process mirror: ANN queries go to
// chromem, scroll and rich-metadata lookups go to the mirror.
type ChromemBackend struct {
	db         *chromem.DB
	collection *chromem.Collection

	mu    sync.RWMutex
	docs  map[string]Document
	order []string // insertion order, for deterministic scroll

	logger *logging.Logger
}

// NewChromemBackend opens (or creates) an embedded backend. An empty path
// keeps everything in memory.
func NewChromemBackend(cfg config.BackendConfig, logger *logging.Logger) (*ChromemBackend, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("opening chromem db at %s: %w", cfg.Path, err)
		}
	}

	// The embedding func is never called: all documents and queries arrive
	// pre-embedded.
	noEmbed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("chromem backend expects pre-embedded input")
	}
	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", cfg.Collection, err)
	}

	return &ChromemBackend{
		db:         db,
		collection: collection,
		docs:       make(map[string]Document),
		logger:     logger,
	}, nil
}

// QueryVector performs ANN search with a similarity floor. Filters are
// applied in process against the mirror, after the vector query.
func (b *ChromemBackend) QueryVector(ctx context.Context, vector []float32, limit int, minScore float64, filter *Filter) ([]Hit, error) {
	count := b.collection.Count()
	if count == 0 {
		return []Hit{}, nil
	}

	// Over-fetch so post-filtering still fills the limit; chromem caps
	// nResults at the collection size.
	n := limit * 3
	if n > count {
		n = count
	}

	results, err := b.collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	hits := make([]Hit, 0, limit)
	for _, r := range results {
		if float64(r.Similarity) < minScore {
			continue
		}
		doc, ok := b.docs[r.ID]
		if !ok {
			continue
		}
		if !filter.Matches(doc.Metadata) {
			continue
		}
		hits = append(hits, Hit{
			ID:       doc.ID,
			Content:  doc.Content,
			Score:    float64(r.Similarity),
			Metadata: doc.Metadata,
		})
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// Scroll pages through mirrored documents matching the filter.
func (b *ChromemBackend) Scroll(ctx context.Context, filter *Filter, limit int) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	hits := make([]Hit, 0, limit)
	for _, id := range b.order {
		doc := b.docs[id]
		if !filter.Matches(doc.Metadata) {
			continue
		}
		hits = append(hits, Hit{ID: doc.ID, Content: doc.Content, Metadata: doc.Metadata})
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// Add stores pre-embedded documents in chromem and the mirror.
func (b *ChromemBackend) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return ErrEmptyDocuments
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: doc.Embedding,
			Metadata:  stringifyMetadata(doc.Metadata),
		}
	}
	if err := b.collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, doc := range docs {
		if _, exists := b.docs[doc.ID]; !exists {
			b.order = append(b.order, doc.ID)
		}
		b.docs[doc.ID] = doc
	}
	return nil
}

// Close is a no-op for the embedded driver.
func (b *ChromemBackend) Close() error {
	return nil
}

// stringifyMetadata flattens metadata to chromem's string map. Nested and
// list values are dropped; the mirror keeps the originals.
func stringifyMetadata(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case int:
			out[k] = strconv.Itoa(val)
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return out
}
