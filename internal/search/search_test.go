package search

import (
	"context"

	"github.com/fyrsmithlabs/searchd/internal/backend"
)

// fakeBackend serves canned hits and records the filters it saw.
type fakeBackend struct {
	queryHits  []backend.Hit
	scrollHits []backend.Hit
	queryErr   error
	scrollErr  error

	lastScrollFilter *backend.Filter
	queryCalls       int
	scrollCalls      int
}

func (f *fakeBackend) QueryVector(_ context.Context, _ []float32, limit int, _ float64, _ *backend.Filter) ([]backend.Hit, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	hits := f.queryHits
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (f *fakeBackend) Scroll(_ context.Context, filter *backend.Filter, limit int) ([]backend.Hit, error) {
	f.scrollCalls++
	f.lastScrollFilter = filter
	if f.scrollErr != nil {
		return nil, f.scrollErr
	}
	var hits []backend.Hit
	for _, hit := range f.scrollHits {
		if filter.Matches(hit.Metadata) {
			hits = append(hits, hit)
		}
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

func (f *fakeBackend) Add(_ context.Context, _ []backend.Document) error { return nil }

func (f *fakeBackend) Close() error { return nil }

// fakeEmbedder returns the same vector for every input.
type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}
