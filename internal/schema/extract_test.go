package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmptyPayload(t *testing.T) {
	r := Extract(map[string]any{})

	assert.Nil(t, r.Project)
	assert.Nil(t, r.Hierarchy)
	assert.Nil(t, r.Attachment)
	assert.Nil(t, r.Section)
	assert.Nil(t, r.ContentAnalysis)
	assert.Nil(t, r.SemanticAnalysis)
	assert.Nil(t, r.Navigation)
	assert.Nil(t, r.Chunking)
	assert.Nil(t, r.Conversion)
	assert.Nil(t, r.CrossReference)
}

func TestExtractCreatedDate(t *testing.T) {
	r := Extract(map[string]any{"created_date": "2024-11-03T09:15:00Z"})

	created, ok := r.CreatedAt()
	assert.True(t, ok)
	assert.Equal(t, "2024-11-03T09:15:00Z", created)

	_, ok = Extract(map[string]any{}).CreatedAt()
	assert.False(t, ok)
}

func TestExtractComponentNeedsOneKey(t *testing.T) {
	r := Extract(map[string]any{"project_id": "p1"})

	require.NotNil(t, r.Project)
	assert.Equal(t, "p1", r.Project.ProjectID)
	assert.Empty(t, r.Project.ProjectName)
	assert.Nil(t, r.Hierarchy, "components without any present key stay nil")
}

func TestExtractHierarchyOptionalInts(t *testing.T) {
	r := Extract(map[string]any{
		"parent_id": "p42",
		"depth":     int64(3),
	})

	require.NotNil(t, r.Hierarchy)
	assert.Equal(t, "p42", r.Hierarchy.ParentID)
	require.NotNil(t, r.Hierarchy.Depth)
	assert.Equal(t, 3, *r.Hierarchy.Depth)
	assert.Nil(t, r.Hierarchy.ChildrenCount, "absent counts stay nil, not zero")
}

func TestExtractContentAnalysisTypedProbes(t *testing.T) {
	// Payload values arrive with backend-dependent numeric types.
	r := Extract(map[string]any{
		"has_code_blocks":     true,
		"word_count":          float64(812),
		"char_count":          int64(5120),
		"estimated_read_time": 4,
	})

	require.NotNil(t, r.ContentAnalysis)
	assert.True(t, r.ContentAnalysis.HasCodeBlocks)
	require.NotNil(t, r.ContentAnalysis.WordCount)
	assert.Equal(t, 812, *r.ContentAnalysis.WordCount)
	require.NotNil(t, r.ContentAnalysis.CharCount)
	assert.Equal(t, 5120, *r.ContentAnalysis.CharCount)
	require.NotNil(t, r.ContentAnalysis.ReadTimeMinutes)
	assert.Equal(t, 4.0, *r.ContentAnalysis.ReadTimeMinutes)
}

func TestExtractIgnoresWrongTypes(t *testing.T) {
	r := Extract(map[string]any{
		"project_id": 42,
		"word_count": "many",
		"section_title": map[string]any{
			"nested": "junk",
		},
	})

	assert.Nil(t, r.Project)
	assert.Nil(t, r.ContentAnalysis)
	assert.Nil(t, r.Section)
}

func TestExtractNilValuesTreatedAsAbsent(t *testing.T) {
	r := Extract(map[string]any{
		"project_id":    nil,
		"is_attachment": nil,
	})

	assert.Nil(t, r.Project)
	assert.Nil(t, r.Attachment)
}

func TestExtractSemanticAnalysisSliceEncodings(t *testing.T) {
	r := Extract(map[string]any{
		"entities": []any{"redis", "lua", 7},
		"topics":   []string{"caching"},
	})

	require.NotNil(t, r.SemanticAnalysis)
	assert.Equal(t, []string{"redis", "lua"}, r.SemanticAnalysis.Entities, "non-string items are skipped")
	assert.Equal(t, []string{"caching"}, r.SemanticAnalysis.Topics)
	assert.Nil(t, r.SemanticAnalysis.KeyPhrases)
}

func TestExtractAttachment(t *testing.T) {
	r := Extract(map[string]any{
		"is_attachment": true,
		"filename":      "design.pdf",
		"file_size":     int64(20480),
	})

	require.NotNil(t, r.Attachment)
	assert.True(t, r.Attachment.IsAttachment)
	assert.Equal(t, "design.pdf", r.Attachment.Filename)
	require.NotNil(t, r.Attachment.FileSize)
	assert.Equal(t, 20480, *r.Attachment.FileSize)
}

func TestExtractCrossReferences(t *testing.T) {
	r := Extract(map[string]any{
		"cross_references": []any{
			map[string]any{"url": "https://wiki/page-1", "title": "Page One"},
			map[string]any{"title": "Untitled Link"},
			map[string]any{},
			"not a map",
		},
	})

	require.NotNil(t, r.CrossReference)
	require.Len(t, r.CrossReference.References, 2, "entries with neither url nor title are dropped")
	assert.Equal(t, "https://wiki/page-1", r.CrossReference.References[0].URL)
	assert.Equal(t, "Untitled Link", r.CrossReference.References[1].Title)
}

func TestExtractCrossReferencesWrongShape(t *testing.T) {
	r := Extract(map[string]any{"cross_references": "see page 3"})
	assert.Nil(t, r.CrossReference)
}

func TestExtractConversion(t *testing.T) {
	r := Extract(map[string]any{
		"original_file_type": "docx",
		"conversion_failed":  true,
	})

	require.NotNil(t, r.Conversion)
	assert.Equal(t, "docx", r.Conversion.OriginalFileType)
	assert.True(t, r.Conversion.Failed)
}

func TestExtractNavigationAndChunking(t *testing.T) {
	r := Extract(map[string]any{
		"next_title":  "Deployment",
		"chunk_index": 0,
	})

	require.NotNil(t, r.Navigation)
	assert.Equal(t, "Deployment", r.Navigation.NextTitle)

	require.NotNil(t, r.Chunking)
	require.NotNil(t, r.Chunking.ChunkIndex)
	assert.Zero(t, *r.Chunking.ChunkIndex, "a present zero index is distinct from an absent one")
	assert.Nil(t, r.Chunking.TotalChunks)
}
