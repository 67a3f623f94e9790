package backend

// Condition is an exact-match condition on a top-level payload field.
type Condition struct {
	Key   string
	Value string
}

// NestedCondition matches a field one level inside a nested payload object.
type NestedCondition struct {
	Path  string
	Key   string
	Value string
}

// Filter combines equality conditions, one level of nested conditions, and
// project-ID membership. A nil or zero Filter matches everything.
type Filter struct {
	Equals     []Condition
	Nested     []NestedCondition
	ProjectIDs []string
}

// IsEmpty reports whether the filter has no conditions.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.Equals) == 0 && len(f.Nested) == 0 && len(f.ProjectIDs) == 0)
}

// Matches evaluates the filter against a payload map. Used by the embedded
// driver, which filters in process; the qdrant driver pushes the same
// semantics down as a gRPC filter.
func (f *Filter) Matches(metadata map[string]any) bool {
	if f.IsEmpty() {
		return true
	}
	for _, c := range f.Equals {
		v, ok := metadata[c.Key].(string)
		if !ok || v != c.Value {
			return false
		}
	}
	for _, n := range f.Nested {
		inner, ok := metadata[n.Path].(map[string]any)
		if !ok {
			return false
		}
		v, ok := inner[n.Key].(string)
		if !ok || v != n.Value {
			return false
		}
	}
	if len(f.ProjectIDs) > 0 {
		project, ok := metadata["project_id"].(string)
		if !ok {
			return false
		}
		found := false
		for _, id := range f.ProjectIDs {
			if id == project {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
