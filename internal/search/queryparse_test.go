package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldQuery(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantResidual string
		wantFields   []fieldFilter
		wantIgnored  []string
	}{
		{
			name:         "plain query",
			query:        "connection pool tuning",
			wantResidual: "connection pool tuning",
		},
		{
			name:         "single field with residual",
			query:        "source_type:wiki deployment guide",
			wantResidual: "deployment guide",
			wantFields:   []fieldFilter{{Name: "source_type", Value: "wiki"}},
		},
		{
			name:         "quoted value",
			query:        `title:"Getting Started" onboarding`,
			wantResidual: "onboarding",
			wantFields:   []fieldFilter{{Name: "title", Value: "Getting Started"}},
		},
		{
			name:         "dotted field",
			query:        "hierarchy.parent_id:p42 children",
			wantResidual: "children",
			wantFields:   []fieldFilter{{Name: "hierarchy.parent_id", Value: "p42"}},
		},
		{
			name:         "unsupported field ignored",
			query:        "author:alice release plan",
			wantResidual: "release plan",
			wantIgnored:  []string{"author"},
		},
		{
			name:         "multiple fields keep query order",
			query:        "project_id:core section_type:reference grpc",
			wantResidual: "grpc",
			wantFields: []fieldFilter{
				{Name: "project_id", Value: "core"},
				{Name: "section_type", Value: "reference"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := parseFieldQuery(tt.query)
			assert.Equal(t, tt.wantResidual, parsed.Residual)
			assert.Equal(t, tt.wantFields, parsed.Fields)
			assert.Equal(t, tt.wantIgnored, parsed.Ignored)
		})
	}
}

func TestFilterOnly(t *testing.T) {
	t.Run("no fields is never filter-only", func(t *testing.T) {
		parsed := parseFieldQuery("plain text")
		assert.False(t, parsed.filterOnly())
	})

	t.Run("field with empty residual", func(t *testing.T) {
		parsed := parseFieldQuery("source_type:wiki")
		assert.True(t, parsed.filterOnly())
	})

	t.Run("unique id filter overrides residual", func(t *testing.T) {
		parsed := parseFieldQuery("document_id:abc123 some leftover words")
		require.Len(t, parsed.Fields, 1)
		assert.True(t, parsed.hasUniqueIDFilter())
		assert.True(t, parsed.filterOnly())
	})

	t.Run("non-unique field with residual ranks normally", func(t *testing.T) {
		parsed := parseFieldQuery("source_type:wiki deployment")
		assert.False(t, parsed.filterOnly())
	})
}
