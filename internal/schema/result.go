// Package schema defines the search result data model shared by the hybrid
// search pipeline and the cross-document analyzers.
//
// A SearchResult has a small required core and ten optional components. A
// component is non-nil only when at least one of its fields was present in
// the source metadata: absence means "unknown", not "empty". Results are
// immutable after construction except for explicit, request-scoped score
// rescaling in the pipeline post-processors.
package schema

// SearchResult is one merged hit from the hybrid pipeline.
type SearchResult struct {
	Score        float64 `json:"score"`
	Text         string  `json:"text"`
	SourceType   string  `json:"source_type"`
	SourceTitle  string  `json:"source_title"`
	VectorScore  float64 `json:"vector_score"`
	KeywordScore float64 `json:"keyword_score"`
	DocumentID   string  `json:"document_id"`
	CreatedDate  string  `json:"created_date,omitempty"`

	Project          *ProjectInfo          `json:"project,omitempty"`
	Hierarchy        *HierarchyInfo        `json:"hierarchy,omitempty"`
	Attachment       *AttachmentInfo       `json:"attachment,omitempty"`
	Section          *SectionInfo          `json:"section,omitempty"`
	ContentAnalysis  *ContentAnalysisInfo  `json:"content_analysis,omitempty"`
	SemanticAnalysis *SemanticAnalysisInfo `json:"semantic_analysis,omitempty"`
	Navigation       *NavigationInfo       `json:"navigation,omitempty"`
	Chunking         *ChunkingInfo         `json:"chunking,omitempty"`
	Conversion       *ConversionInfo       `json:"conversion,omitempty"`
	CrossReference   *CrossReferenceInfo   `json:"cross_reference,omitempty"`
}

// ProjectInfo groups project-level metadata.
type ProjectInfo struct {
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name,omitempty"`
	Collection  string `json:"collection,omitempty"`
}

// HierarchyInfo describes the document's place in a page tree.
type HierarchyInfo struct {
	ParentID      string   `json:"parent_id,omitempty"`
	ParentTitle   string   `json:"parent_title,omitempty"`
	Breadcrumb    string   `json:"breadcrumb,omitempty"`
	Depth         *int     `json:"depth,omitempty"`
	ChildrenCount *int     `json:"children_count,omitempty"`
	Siblings      []string `json:"siblings,omitempty"`
}

// AttachmentInfo describes file-attachment documents.
type AttachmentInfo struct {
	IsAttachment   bool   `json:"is_attachment"`
	AttachmentID   string `json:"attachment_id,omitempty"`
	Filename       string `json:"filename,omitempty"`
	MimeType       string `json:"mime_type,omitempty"`
	FileSize       *int   `json:"file_size,omitempty"`
	ParentDocument string `json:"parent_document,omitempty"`
}

// SectionInfo describes the section a chunk was cut from.
type SectionInfo struct {
	Title  string `json:"title,omitempty"`
	Type   string `json:"type,omitempty"`
	Level  *int   `json:"level,omitempty"`
	Anchor string `json:"anchor,omitempty"`
}

// ContentAnalysisInfo carries structural features of the text.
type ContentAnalysisInfo struct {
	HasCodeBlocks   bool     `json:"has_code_blocks"`
	HasTables       bool     `json:"has_tables"`
	HasImages       bool     `json:"has_images"`
	HasLinks        bool     `json:"has_links"`
	WordCount       *int     `json:"word_count,omitempty"`
	CharCount       *int     `json:"char_count,omitempty"`
	ReadTimeMinutes *float64 `json:"read_time_minutes,omitempty"`
}

// SemanticAnalysisInfo carries extracted entities and topics.
type SemanticAnalysisInfo struct {
	Entities   []string `json:"entities,omitempty"`
	Topics     []string `json:"topics,omitempty"`
	KeyPhrases []string `json:"key_phrases,omitempty"`
}

// NavigationInfo links to adjacent documents.
type NavigationInfo struct {
	PreviousTitle string `json:"previous_title,omitempty"`
	NextTitle     string `json:"next_title,omitempty"`
}

// ChunkingInfo records how the document was split.
type ChunkingInfo struct {
	ChunkIndex  *int   `json:"chunk_index,omitempty"`
	TotalChunks *int   `json:"total_chunks,omitempty"`
	Strategy    string `json:"strategy,omitempty"`
}

// ConversionInfo records file-format conversion provenance.
type ConversionInfo struct {
	OriginalFileType string `json:"original_file_type,omitempty"`
	ConversionMethod string `json:"conversion_method,omitempty"`
	SheetName        string `json:"sheet_name,omitempty"`
	Failed           bool   `json:"failed"`
}

// Reference is one outgoing cross-reference.
type Reference struct {
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// CrossReferenceInfo carries outgoing references to other documents.
type CrossReferenceInfo struct {
	References []Reference `json:"references"`
}

// DocKey returns the "source_type:source_title" key used by clustering and
// the citation network.
func (r *SearchResult) DocKey() string {
	return r.SourceType + ":" + r.SourceTitle
}

// ProjectID returns the project identifier if known.
func (r *SearchResult) ProjectID() (string, bool) {
	if r.Project == nil || r.Project.ProjectID == "" {
		return "", false
	}
	return r.Project.ProjectID, true
}

// CreatedAt returns the document creation date if known.
func (r *SearchResult) CreatedAt() (string, bool) {
	if r.CreatedDate == "" {
		return "", false
	}
	return r.CreatedDate, true
}

// Breadcrumb returns the hierarchy breadcrumb if known.
func (r *SearchResult) Breadcrumb() (string, bool) {
	if r.Hierarchy == nil || r.Hierarchy.Breadcrumb == "" {
		return "", false
	}
	return r.Hierarchy.Breadcrumb, true
}

// ParentID returns the hierarchy parent identifier if known.
func (r *SearchResult) ParentID() (string, bool) {
	if r.Hierarchy == nil || r.Hierarchy.ParentID == "" {
		return "", false
	}
	return r.Hierarchy.ParentID, true
}

// Depth returns the hierarchy depth if known.
func (r *SearchResult) Depth() (int, bool) {
	if r.Hierarchy == nil || r.Hierarchy.Depth == nil {
		return 0, false
	}
	return *r.Hierarchy.Depth, true
}

// WordCount returns the analyzed word count if known.
func (r *SearchResult) WordCount() (int, bool) {
	if r.ContentAnalysis == nil || r.ContentAnalysis.WordCount == nil {
		return 0, false
	}
	return *r.ContentAnalysis.WordCount, true
}

// ReadTime returns the estimated read time in minutes if known.
func (r *SearchResult) ReadTime() (float64, bool) {
	if r.ContentAnalysis == nil || r.ContentAnalysis.ReadTimeMinutes == nil {
		return 0, false
	}
	return *r.ContentAnalysis.ReadTimeMinutes, true
}

// HasCodeBlocks reports whether the document is known to contain code.
func (r *SearchResult) HasCodeBlocks() bool {
	return r.ContentAnalysis != nil && r.ContentAnalysis.HasCodeBlocks
}

// Entities returns the extracted entity list (nil when unknown).
func (r *SearchResult) Entities() []string {
	if r.SemanticAnalysis == nil {
		return nil
	}
	return r.SemanticAnalysis.Entities
}

// Topics returns the extracted topic list (nil when unknown).
func (r *SearchResult) Topics() []string {
	if r.SemanticAnalysis == nil {
		return nil
	}
	return r.SemanticAnalysis.Topics
}

// References returns outgoing cross-references (nil when unknown).
func (r *SearchResult) References() []Reference {
	if r.CrossReference == nil {
		return nil
	}
	return r.CrossReference.References
}

// SectionType returns the section type if known.
func (r *SearchResult) SectionType() (string, bool) {
	if r.Section == nil || r.Section.Type == "" {
		return "", false
	}
	return r.Section.Type, true
}
