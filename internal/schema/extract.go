package schema

// Extract decodes a flat backend payload into the optional components of a
// SearchResult. The payload has no fixed schema; each component is built
// only if at least one of its keys is present, so downstream code can tell
// "unknown" apart from "empty". Conversion happens once here, at the
// boundary, never ad hoc at call sites.
func Extract(metadata map[string]any) *SearchResult {
	r := &SearchResult{}
	r.CreatedDate, _ = getString(metadata, "created_date")
	r.Project = extractProject(metadata)
	r.Hierarchy = extractHierarchy(metadata)
	r.Attachment = extractAttachment(metadata)
	r.Section = extractSection(metadata)
	r.ContentAnalysis = extractContentAnalysis(metadata)
	r.SemanticAnalysis = extractSemanticAnalysis(metadata)
	r.Navigation = extractNavigation(metadata)
	r.Chunking = extractChunking(metadata)
	r.Conversion = extractConversion(metadata)
	r.CrossReference = extractCrossReference(metadata)
	return r
}

func extractProject(m map[string]any) *ProjectInfo {
	id, okID := getString(m, "project_id")
	name, okName := getString(m, "project_name")
	coll, okColl := getString(m, "collection_name")
	if !okID && !okName && !okColl {
		return nil
	}
	return &ProjectInfo{ProjectID: id, ProjectName: name, Collection: coll}
}

func extractHierarchy(m map[string]any) *HierarchyInfo {
	parentID, ok1 := getString(m, "parent_id")
	parentTitle, ok2 := getString(m, "parent_title")
	breadcrumb, ok3 := getString(m, "breadcrumb_text")
	depth, ok4 := getInt(m, "depth")
	children, ok5 := getInt(m, "children_count")
	siblings, ok6 := getStringSlice(m, "sibling_titles")
	if !ok1 && !ok2 && !ok3 && !ok4 && !ok5 && !ok6 {
		return nil
	}
	h := &HierarchyInfo{
		ParentID:    parentID,
		ParentTitle: parentTitle,
		Breadcrumb:  breadcrumb,
		Siblings:    siblings,
	}
	if ok4 {
		h.Depth = &depth
	}
	if ok5 {
		h.ChildrenCount = &children
	}
	return h
}

func extractAttachment(m map[string]any) *AttachmentInfo {
	isAtt, ok1 := getBool(m, "is_attachment")
	attID, ok2 := getString(m, "attachment_id")
	filename, ok3 := getString(m, "filename")
	mime, ok4 := getString(m, "mime_type")
	size, ok5 := getInt(m, "file_size")
	parent, ok6 := getString(m, "parent_document_title")
	if !ok1 && !ok2 && !ok3 && !ok4 && !ok5 && !ok6 {
		return nil
	}
	a := &AttachmentInfo{
		IsAttachment:   isAtt,
		AttachmentID:   attID,
		Filename:       filename,
		MimeType:       mime,
		ParentDocument: parent,
	}
	if ok5 {
		a.FileSize = &size
	}
	return a
}

func extractSection(m map[string]any) *SectionInfo {
	title, ok1 := getString(m, "section_title")
	typ, ok2 := getString(m, "section_type")
	level, ok3 := getInt(m, "section_level")
	anchor, ok4 := getString(m, "section_anchor")
	if !ok1 && !ok2 && !ok3 && !ok4 {
		return nil
	}
	s := &SectionInfo{Title: title, Type: typ, Anchor: anchor}
	if ok3 {
		s.Level = &level
	}
	return s
}

func extractContentAnalysis(m map[string]any) *ContentAnalysisInfo {
	hasCode, ok1 := getBool(m, "has_code_blocks")
	hasTables, ok2 := getBool(m, "has_tables")
	hasImages, ok3 := getBool(m, "has_images")
	hasLinks, ok4 := getBool(m, "has_links")
	words, ok5 := getInt(m, "word_count")
	chars, ok6 := getInt(m, "char_count")
	readTime, ok7 := getFloat(m, "estimated_read_time")
	if !ok1 && !ok2 && !ok3 && !ok4 && !ok5 && !ok6 && !ok7 {
		return nil
	}
	c := &ContentAnalysisInfo{
		HasCodeBlocks: hasCode,
		HasTables:     hasTables,
		HasImages:     hasImages,
		HasLinks:      hasLinks,
	}
	if ok5 {
		c.WordCount = &words
	}
	if ok6 {
		c.CharCount = &chars
	}
	if ok7 {
		c.ReadTimeMinutes = &readTime
	}
	return c
}

func extractSemanticAnalysis(m map[string]any) *SemanticAnalysisInfo {
	entities, ok1 := getStringSlice(m, "entities")
	topics, ok2 := getStringSlice(m, "topics")
	phrases, ok3 := getStringSlice(m, "key_phrases")
	if !ok1 && !ok2 && !ok3 {
		return nil
	}
	return &SemanticAnalysisInfo{Entities: entities, Topics: topics, KeyPhrases: phrases}
}

func extractNavigation(m map[string]any) *NavigationInfo {
	prev, ok1 := getString(m, "previous_title")
	next, ok2 := getString(m, "next_title")
	if !ok1 && !ok2 {
		return nil
	}
	return &NavigationInfo{PreviousTitle: prev, NextTitle: next}
}

func extractChunking(m map[string]any) *ChunkingInfo {
	idx, ok1 := getInt(m, "chunk_index")
	total, ok2 := getInt(m, "total_chunks")
	strategy, ok3 := getString(m, "chunking_strategy")
	if !ok1 && !ok2 && !ok3 {
		return nil
	}
	c := &ChunkingInfo{Strategy: strategy}
	if ok1 {
		c.ChunkIndex = &idx
	}
	if ok2 {
		c.TotalChunks = &total
	}
	return c
}

func extractConversion(m map[string]any) *ConversionInfo {
	orig, ok1 := getString(m, "original_file_type")
	method, ok2 := getString(m, "conversion_method")
	sheet, ok3 := getString(m, "sheet_name")
	failed, ok4 := getBool(m, "conversion_failed")
	if !ok1 && !ok2 && !ok3 && !ok4 {
		return nil
	}
	return &ConversionInfo{
		OriginalFileType: orig,
		ConversionMethod: method,
		SheetName:        sheet,
		Failed:           failed,
	}
}

func extractCrossReference(m map[string]any) *CrossReferenceInfo {
	raw, ok := m["cross_references"]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	refs := make([]Reference, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		url, _ := getString(entry, "url")
		title, _ := getString(entry, "title")
		if url == "" && title == "" {
			continue
		}
		refs = append(refs, Reference{URL: url, Title: title})
	}
	return &CrossReferenceInfo{References: refs}
}

// Typed payload probes. Backends hand back loosely typed values (qdrant
// integers arrive as int64, chromem values as strings parsed upstream), so
// each probe accepts the common encodings.

func getString(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return s, true
}

func getInt(m map[string]any, key string) (int, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func getFloat(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func getBool(m map[string]any, key string) (bool, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, false
	}
	b, ok := v.(bool)
	if !ok {
		return false, false
	}
	return b, true
}

func getStringSlice(m map[string]any, key string) ([]string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}
