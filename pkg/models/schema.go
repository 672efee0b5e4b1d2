package models

import "sort"

// PathSeparator joins nested property names into qualified field paths.
const PathSeparator = "."

// FieldInfo is one inferred column for a field path observed during sampling.
type FieldInfo struct {
	Name string

	// DetectedTypes is the set of type tokens observed across samples.
	// The NULL marker participates in the set (it drives nullability) but is
	// ignored by type reconciliation.
	DetectedTypes map[string]struct{}

	// RecommendedSqlType is derived from DetectedTypes via the reconciler
	// priority table. It is never mutated independently.
	RecommendedSqlType string

	// Required is true unless any observed sample had the field absent or null.
	Required bool

	// IsNested is true when the field path contains a separator, i.e. the
	// field came from a nested object or a child-table shape.
	IsNested bool

	// MaxLength is the longest observed string value, 0 for non-text fields.
	MaxLength int
}

// NewFieldInfo creates a FieldInfo with an empty type set.
func NewFieldInfo(name string) *FieldInfo {
	return &FieldInfo{
		Name:          name,
		DetectedTypes: make(map[string]struct{}),
		Required:      true,
	}
}

// AddType records one observed type token.
func (f *FieldInfo) AddType(token string) {
	f.DetectedTypes[token] = struct{}{}
}

// HasType reports whether the token was observed for this field.
func (f *FieldInfo) HasType(token string) bool {
	_, ok := f.DetectedTypes[token]
	return ok
}

// SortedTypes returns the detected type tokens in lexicographic order.
func (f *FieldInfo) SortedTypes() []string {
	tokens := make([]string, 0, len(f.DetectedTypes))
	for t := range f.DetectedTypes {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

// Clone returns a deep copy. Merging across schemas must never alias the
// per-schema field state.
func (f *FieldInfo) Clone() *FieldInfo {
	cp := &FieldInfo{
		Name:               f.Name,
		DetectedTypes:      make(map[string]struct{}, len(f.DetectedTypes)),
		RecommendedSqlType: f.RecommendedSqlType,
		Required:           f.Required,
		IsNested:           f.IsNested,
		MaxLength:          f.MaxLength,
	}
	for t := range f.DetectedTypes {
		cp.DetectedTypes[t] = struct{}{}
	}
	return cp
}

// ChildTableType tags how a child-table candidate was observed in the source.
type ChildTableType string

const (
	// ChildTableTypeArray is an array of scalar values.
	ChildTableTypeArray ChildTableType = "array"
	// ChildTableTypeNestedObject is a nested object property.
	ChildTableTypeNestedObject ChildTableType = "nested_object"
	// ChildTableTypeManyToMany is an array of objects carrying an id-like
	// field, a join-table candidate.
	ChildTableTypeManyToMany ChildTableType = "many_to_many"
)

// ChildTableCandidate is one array-valued or nested-object property observed
// within sampled documents, destined to become a normalized child table.
type ChildTableCandidate struct {
	// Path is the qualified source field path the candidate was observed at.
	Path string

	// Type tags the structural origin of the candidate.
	Type ChildTableType

	// Rows holds one flat field-name→type-token map per sampled occurrence,
	// capped at the array sampling limit.
	Rows []map[string]string
}

// FieldNames returns the union of field names across all sampled occurrences,
// sorted lexicographically.
func (c *ChildTableCandidate) FieldNames() []string {
	seen := make(map[string]struct{})
	for _, row := range c.Rows {
		for name := range row {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DocumentSchema is one structurally distinct document shape within a
// container. Created on first occurrence of a new signature, mutated on every
// subsequent matching sample, finalized once container sampling completes.
type DocumentSchema struct {
	// Name is synthetic (Schema_N), assigned in first-seen order.
	Name string

	// Signature is the canonical string the schema was grouped under.
	Signature string

	// Fields maps qualified field path to its inferred column info.
	Fields map[string]*FieldInfo

	// ChildTables maps source field path to the child-table candidate
	// observed for this shape.
	ChildTables map[string]*ChildTableCandidate

	// SampleCount is the number of sampled documents matching this shape.
	SampleCount int

	// Prevalence is SampleCount over the container's total sampled documents,
	// computed when sampling completes.
	Prevalence float64
}

// SortedFieldNames returns the schema's field paths in lexicographic order.
func (s *DocumentSchema) SortedFieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedChildPaths returns the schema's child-table paths in lexicographic order.
func (s *DocumentSchema) SortedChildPaths() []string {
	paths := make([]string, 0, len(s.ChildTables))
	for p := range s.ChildTables {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
