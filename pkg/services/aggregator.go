package services

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/docshift-inc/docshift-engine/pkg/models"
	"github.com/docshift-inc/docshift-engine/pkg/sqltypes"
)

// SchemaAggregator groups extracted documents into structurally distinct
// schemas keyed by a signature derived from field names, types, and
// child-table shapes. Not safe for concurrent use; one aggregator serves one
// container's sample set, processed in arrival order.
type SchemaAggregator struct {
	bySignature  map[string]*models.DocumentSchema
	order        []*models.DocumentSchema
	totalSampled int
	logger       *zap.Logger
}

// NewSchemaAggregator creates an aggregator for one container's samples.
func NewSchemaAggregator(logger *zap.Logger) *SchemaAggregator {
	return &SchemaAggregator{
		bySignature: make(map[string]*models.DocumentSchema),
		logger:      logger.Named("aggregator"),
	}
}

// Add folds one extracted document into the aggregation. First occurrence of
// a signature creates a new DocumentSchema (named Schema_N in first-seen
// order); subsequent matches increment its sample count. Two samples with the
// same field names but different detected types are distinct schemas - the
// signature encodes types on purpose, surfacing true heterogeneity.
func (a *SchemaAggregator) Add(res *ExtractResult) {
	a.totalSampled++
	sig := Signature(res)

	if existing, ok := a.bySignature[sig]; ok {
		existing.SampleCount++
		// Same signature means identical field shapes; widening the field map
		// would be a no-op. Child occurrences still accumulate so child-table
		// types merge over the full sample set.
		for path, cand := range res.Children {
			if target, ok := existing.ChildTables[path]; ok {
				target.Rows = append(target.Rows, cand.Rows...)
			}
		}
		return
	}

	schema := &models.DocumentSchema{
		Name:        fmt.Sprintf("Schema_%d", len(a.order)+1),
		Signature:   sig,
		Fields:      make(map[string]*models.FieldInfo, len(res.Fields)),
		ChildTables: make(map[string]*models.ChildTableCandidate, len(res.Children)),
		SampleCount: 1,
	}
	for path, field := range res.Fields {
		schema.Fields[path] = field.Clone()
	}
	for path, cand := range res.Children {
		rows := make([]map[string]string, len(cand.Rows))
		for i, row := range cand.Rows {
			cp := make(map[string]string, len(row))
			for k, v := range row {
				cp[k] = v
			}
			rows[i] = cp
		}
		schema.ChildTables[path] = &models.ChildTableCandidate{
			Path: cand.Path,
			Type: cand.Type,
			Rows: rows,
		}
		mergeChildFields(schema, path, cand)
	}

	a.bySignature[sig] = schema
	a.order = append(a.order, schema)

	a.logger.Debug("New document schema detected",
		zap.String("schema", schema.Name),
		zap.Int("fields", len(schema.Fields)),
		zap.Int("child_tables", len(schema.ChildTables)))
}

// mergeChildFields folds a child candidate's first-occurrence fields into the
// schema field map under parentpath.childfield names, marked nested.
func mergeChildFields(schema *models.DocumentSchema, path string, cand *models.ChildTableCandidate) {
	for _, name := range cand.FieldNames() {
		qualified := path + models.PathSeparator + name
		field, ok := schema.Fields[qualified]
		if !ok {
			field = models.NewFieldInfo(qualified)
			field.IsNested = true
			schema.Fields[qualified] = field
		}
		for _, row := range cand.Rows {
			if token, ok := row[name]; ok {
				field.AddType(token)
			} else {
				// Element without the field: optional in the child shape.
				field.Required = false
			}
		}
		field.RecommendedSqlType = sqltypes.Reconcile(field.DetectedTypes)
	}
}

// TotalSampled returns the number of documents folded in so far.
func (a *SchemaAggregator) TotalSampled() int {
	return a.totalSampled
}

// Finalize computes per-schema prevalence and returns the schemas in
// first-seen order. Call once, after the container's sample set is exhausted.
func (a *SchemaAggregator) Finalize() []*models.DocumentSchema {
	for _, schema := range a.order {
		if a.totalSampled > 0 {
			schema.Prevalence = float64(schema.SampleCount) / float64(a.totalSampled)
		}
	}
	return a.order
}

// Signature computes the canonical grouping key for one extracted document:
// sorted field-name:type-set pairs concatenated with sorted
// child-path:key-list pairs. Type sets are part of the key, so type
// heterogeneity splits schemas by design.
func Signature(res *ExtractResult) string {
	var sb strings.Builder

	fieldNames := make([]string, 0, len(res.Fields))
	for name := range res.Fields {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)
	for _, name := range fieldNames {
		sb.WriteString(name)
		sb.WriteByte(':')
		sb.WriteString(strings.Join(res.Fields[name].SortedTypes(), ","))
		sb.WriteByte(';')
	}

	childPaths := make([]string, 0, len(res.Children))
	for path := range res.Children {
		childPaths = append(childPaths, path)
	}
	sort.Strings(childPaths)
	for _, path := range childPaths {
		cand := res.Children[path]
		sb.WriteString("child:")
		sb.WriteString(path)
		sb.WriteByte('=')
		if len(cand.Rows) > 0 {
			keys := make([]string, 0, len(cand.Rows[0]))
			for k := range cand.Rows[0] {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			sb.WriteString(strings.Join(keys, ","))
		}
		sb.WriteByte(';')
	}

	return sb.String()
}
