package models

// ContainerInfo is per-container metadata read from the source account.
type ContainerInfo struct {
	Database       string   `yaml:"database"`
	Name           string   `yaml:"name"`
	DocumentCount  int64    `yaml:"document_count"`
	SizeBytes      int64    `yaml:"size_bytes"`
	PartitionKey   string   `yaml:"partition_key"`
	ThroughputRU   int32    `yaml:"throughput_ru"`
	Autoscale      bool     `yaml:"autoscale"`
	CompositeIndexes int    `yaml:"composite_indexes"`
	IndexedPaths   []string `yaml:"indexed_paths,omitempty"`
}

// FieldMapping maps one source field to one target column.
type FieldMapping struct {
	SourceField   string   `yaml:"source_field"`
	TargetColumn  string   `yaml:"target_column"`
	SqlType       string   `yaml:"sql_type"`
	Nullable      bool     `yaml:"nullable"`
	IsNested      bool     `yaml:"is_nested,omitempty"`
	DetectedTypes []string `yaml:"detected_types,omitempty"`

	// RequiresTransformation is true iff the source field carries more than
	// one detected type, or is nested, or was demoted to nullable when schemas
	// were merged.
	RequiresTransformation bool `yaml:"requires_transformation"`
}

// ChildTableMapping is one normalized child table hanging off a parent
// container mapping.
type ChildTableMapping struct {
	SourcePath    string         `yaml:"source_path"`
	Type          ChildTableType `yaml:"type"`
	TargetSchema  string         `yaml:"target_schema"`
	TargetTable   string         `yaml:"target_table"`
	ParentKeyColumn string       `yaml:"parent_key_column"`
	FieldMappings []FieldMapping `yaml:"field_mappings,omitempty"`

	// SharedSchemaHash references a deduplicated shared schema. When set,
	// FieldMappings is empty and the shared definition is authoritative.
	SharedSchemaHash string `yaml:"shared_schema_hash,omitempty"`

	EstimatedRowCount int64 `yaml:"estimated_row_count"`
}

// ContainerMapping is the canonical relational mapping for one source container.
type ContainerMapping struct {
	Database     string `yaml:"database"`
	Container    string `yaml:"container"`
	TargetSchema string `yaml:"target_schema"`
	TargetTable  string `yaml:"target_table"`

	// FieldMappings is ordered lexicographically by source field so repeated
	// runs over identical input serialize byte-identically.
	FieldMappings []FieldMapping      `yaml:"field_mappings"`
	ChildTables   []ChildTableMapping `yaml:"child_tables,omitempty"`

	Schemas           []*DocumentSchema `yaml:"-"`
	SampledDocuments  int               `yaml:"sampled_documents"`
	EstimatedRowCount int64             `yaml:"estimated_row_count"`

	TransformationNotes []string `yaml:"transformation_notes,omitempty"`
}

// SharedSchemaUsage records where one usage of a shared schema came from.
type SharedSchemaUsage struct {
	Database   string `yaml:"database"`
	Container  string `yaml:"container"`
	SourcePath string `yaml:"source_path"`
}

// SharedSchema is a child-table definition reused by multiple source
// containers/fields because their structures are identical.
type SharedSchema struct {
	// Hash is the canonical content hash of the field signature.
	Hash string `yaml:"hash"`

	TargetSchema string `yaml:"target_schema"`
	TargetTable  string `yaml:"target_table"`

	UsageCount int                 `yaml:"usage_count"`
	Usages     []SharedSchemaUsage `yaml:"usages"`

	// FieldMappings is the canonical column list, with a generic parent key
	// column (each referencing table binds its own FK name).
	FieldMappings []FieldMapping `yaml:"field_mappings"`
}

// ConstraintType tags an inferred relational constraint.
type ConstraintType string

const (
	ConstraintTypeForeignKey ConstraintType = "foreign_key"
	ConstraintTypeUnique     ConstraintType = "unique"
)

// InferredConstraint is a FK or unique constraint recommended for the target.
type InferredConstraint struct {
	Type         ConstraintType `yaml:"type"`
	Table        string         `yaml:"table"`
	Column       string         `yaml:"column"`
	ReferencesTable  string     `yaml:"references_table,omitempty"`
	ReferencesColumn string     `yaml:"references_column,omitempty"`
}
