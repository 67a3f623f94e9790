package search

import (
	"regexp"
	"strings"
)

// fieldToken matches field:value pairs, preserving quoted values:
// `title:"Getting Started" source_type:wiki`.
var fieldToken = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_.]*):("([^"]*)"|\S+)`)

// supportedFields is the allowlist of filterable payload fields. Dotted
// names map to one level of nesting. Unknown fields are ignored with a
// warning, never an error.
var supportedFields = map[string]bool{
	"document_id":         true,
	"source_type":         true,
	"title":               true,
	"project_id":          true,
	"section_type":        true,
	"original_file_type":  true,
	"hierarchy.parent_id": true,
	"attachment.filename": true,
}

// uniqueIDFields identify a single document; filtering on one of these
// makes ranking pointless (filter-only mode).
var uniqueIDFields = map[string]bool{
	"document_id": true,
}

// parsedQuery is the outcome of pulling field filters out of a query.
type parsedQuery struct {
	// Residual is the query text left after removing field tokens.
	Residual string

	// Fields holds the accepted field filters in query order.
	Fields []fieldFilter

	// Ignored lists unsupported field names that were dropped.
	Ignored []string
}

type fieldFilter struct {
	Name  string
	Value string
}

// hasUniqueIDFilter reports whether any filter is on a unique-ID field.
func (p *parsedQuery) hasUniqueIDFilter() bool {
	for _, f := range p.Fields {
		if uniqueIDFields[f.Name] {
			return true
		}
	}
	return false
}

// filterOnly reports whether ranking should be skipped: no meaningful
// residual text, or a unique-ID filter makes relevance moot.
func (p *parsedQuery) filterOnly() bool {
	if len(p.Fields) == 0 {
		return false
	}
	return strings.TrimSpace(p.Residual) == "" || p.hasUniqueIDFilter()
}

// parseFieldQuery extracts field:value tokens from a query.
func parseFieldQuery(query string) parsedQuery {
	var parsed parsedQuery

	residual := query
	for _, match := range fieldToken.FindAllStringSubmatch(query, -1) {
		name := strings.ToLower(match[1])
		value := match[2]
		if match[3] != "" || strings.HasPrefix(match[2], `"`) {
			value = match[3]
		}

		if !supportedFields[name] {
			parsed.Ignored = append(parsed.Ignored, name)
			residual = strings.Replace(residual, match[0], " ", 1)
			continue
		}

		parsed.Fields = append(parsed.Fields, fieldFilter{Name: name, Value: value})
		residual = strings.Replace(residual, match[0], " ", 1)
	}

	parsed.Residual = strings.Join(strings.Fields(residual), " ")
	return parsed
}
