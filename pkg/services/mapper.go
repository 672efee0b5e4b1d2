package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/docshift-inc/docshift-engine/pkg/models"
	"github.com/docshift-inc/docshift-engine/pkg/sqltypes"
)

// ContainerMapper merges one container's aggregated schemas into its
// canonical relational mapping.
type ContainerMapper struct {
	targetSchema string
	logger       *zap.Logger
}

// NewContainerMapper creates a mapper emitting tables under targetSchema.
func NewContainerMapper(targetSchema string, logger *zap.Logger) *ContainerMapper {
	return &ContainerMapper{
		targetSchema: targetSchema,
		logger:       logger.Named("mapper"),
	}
}

// mergedField tracks one field while schemas are merged.
type mergedField struct {
	info    *models.FieldInfo
	seenIn  int  // number of schemas the field appeared in
	demoted bool // merge demoted required→nullable
}

// Map produces the ContainerMapping for one container. Output ordering is
// lexicographic by source field and child path, so repeated runs over
// identical input serialize byte-identically.
func (m *ContainerMapper) Map(info models.ContainerInfo, schemas []*models.DocumentSchema, sampled int) *models.ContainerMapping {
	parentTable := TableName(info.Name)

	mapping := &models.ContainerMapping{
		Database:          info.Database,
		Container:         info.Name,
		TargetSchema:      m.targetSchema,
		TargetTable:       parentTable,
		Schemas:           schemas,
		SampledDocuments:  sampled,
		EstimatedRowCount: info.DocumentCount,
	}

	merged := m.mergeFields(schemas)
	mapping.FieldMappings = m.buildFieldMappings(merged, &mapping.TransformationNotes)
	mapping.ChildTables = m.buildChildMappings(info, parentTable, schemas, merged, sampled)

	m.logger.Info("Container mapped",
		zap.String("database", info.Database),
		zap.String("container", info.Name),
		zap.Int("schemas", len(schemas)),
		zap.Int("fields", len(mapping.FieldMappings)),
		zap.Int("child_tables", len(mapping.ChildTables)))

	return mapping
}

// mergeFields unions every schema's field map. Required is the default; any
// single schema marking a field optional - or lacking it entirely - demotes
// the merged field (OR-of-optionality, not majority vote).
func (m *ContainerMapper) mergeFields(schemas []*models.DocumentSchema) map[string]*mergedField {
	merged := make(map[string]*mergedField)

	for _, schema := range schemas {
		for _, name := range schema.SortedFieldNames() {
			field := schema.Fields[name]
			target, ok := merged[name]
			if !ok {
				merged[name] = &mergedField{info: field.Clone(), seenIn: 1}
				continue
			}
			target.seenIn++
			for token := range field.DetectedTypes {
				target.info.DetectedTypes[token] = struct{}{}
			}
			if !field.Required && target.info.Required {
				target.info.Required = false
				target.demoted = true
			}
			if field.MaxLength > target.info.MaxLength {
				target.info.MaxLength = field.MaxLength
			}
			target.info.RecommendedSqlType = sqltypes.Reconcile(target.info.DetectedTypes)
		}
	}

	// A field absent from any schema was absent from at least one sample.
	for _, target := range merged {
		if target.seenIn < len(schemas) && target.info.Required {
			target.info.Required = false
			target.demoted = true
		}
	}

	return merged
}

func (m *ContainerMapper) buildFieldMappings(merged map[string]*mergedField, notes *[]string) []models.FieldMapping {
	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	mappings := make([]models.FieldMapping, 0, len(names))
	for _, name := range names {
		target := merged[name]
		fm := fieldMapping(target.info, target.demoted)
		if fm.RequiresTransformation {
			*notes = append(*notes, transformationNote(target))
		}
		mappings = append(mappings, fm)
	}
	return mappings
}

func fieldMapping(info *models.FieldInfo, demoted bool) models.FieldMapping {
	return models.FieldMapping{
		SourceField:   info.Name,
		TargetColumn:  ColumnName(info.Name),
		SqlType:       info.RecommendedSqlType,
		Nullable:      !info.Required,
		IsNested:      info.IsNested,
		DetectedTypes: info.SortedTypes(),
		RequiresTransformation: len(info.DetectedTypes) > 1 || info.IsNested || demoted,
	}
}

func transformationNote(target *mergedField) string {
	info := target.info
	switch {
	case len(info.DetectedTypes) > 1:
		return fmt.Sprintf("field %s: heterogeneous types %v require conversion to %s",
			info.Name, info.SortedTypes(), info.RecommendedSqlType)
	case target.demoted:
		return fmt.Sprintf("field %s: optional in a subset of document schemas, target column is nullable", info.Name)
	default:
		return fmt.Sprintf("field %s: nested path flattens into column %s", info.Name, ColumnName(info.Name))
	}
}

// buildChildMappings merges each distinct child-table path observed across
// schemas into one ChildTableMapping using the same union rule as the parent.
func (m *ContainerMapper) buildChildMappings(
	info models.ContainerInfo,
	parentTable string,
	schemas []*models.DocumentSchema,
	merged map[string]*mergedField,
	sampled int,
) []models.ChildTableMapping {
	// Collect candidates per path, preserving schema order.
	byPath := make(map[string][]*models.ChildTableCandidate)
	paths := make([]string, 0)
	for _, schema := range schemas {
		for _, path := range schema.SortedChildPaths() {
			if _, ok := byPath[path]; !ok {
				paths = append(paths, path)
			}
			byPath[path] = append(byPath[path], schema.ChildTables[path])
		}
	}
	sort.Strings(paths)

	parentKey := ParentKeyColumn(parentTable)
	parentKeyType := parentKeyType(merged)

	mappings := make([]models.ChildTableMapping, 0, len(paths))
	for _, path := range paths {
		cands := byPath[path]

		totalRows := 0
		for _, cand := range cands {
			totalRows += len(cand.Rows)
		}

		child := models.ChildTableMapping{
			SourcePath:      path,
			Type:            cands[0].Type,
			TargetSchema:    m.targetSchema,
			TargetTable:     ChildTableName(parentTable, path),
			ParentKeyColumn: parentKey,
			FieldMappings:   childFieldMappings(cands, parentKey, parentKeyType),
			EstimatedRowCount: estimateChildRows(info.DocumentCount, totalRows, sampled),
		}
		mappings = append(mappings, child)
	}
	return mappings
}

// childFieldMappings unions field observations across all sampled occurrence
// rows. The synthetic parent key column leads and is never subject to
// transformation.
func childFieldMappings(cands []*models.ChildTableCandidate, parentKey, parentKeyType string) []models.FieldMapping {
	type childField struct {
		tokens  map[string]struct{}
		present int
	}
	fields := make(map[string]*childField)
	totalRows := 0

	for _, cand := range cands {
		for _, row := range cand.Rows {
			totalRows++
			for name, token := range row {
				cf, ok := fields[name]
				if !ok {
					cf = &childField{tokens: make(map[string]struct{})}
					fields[name] = cf
				}
				cf.tokens[token] = struct{}{}
				cf.present++
			}
		}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	mappings := make([]models.FieldMapping, 0, len(names)+1)
	mappings = append(mappings, models.FieldMapping{
		SourceField:  parentKey,
		TargetColumn: parentKey,
		SqlType:      parentKeyType,
		Nullable:     false,
	})

	for _, name := range names {
		cf := fields[name]
		required := cf.present == totalRows && !hasNullToken(cf.tokens)
		recommended := sqltypes.Reconcile(cf.tokens)
		nested := strings.Contains(name, models.PathSeparator)
		mappings = append(mappings, models.FieldMapping{
			SourceField:   name,
			TargetColumn:  ColumnName(name),
			SqlType:       recommended,
			Nullable:      !required,
			IsNested:      nested,
			DetectedTypes: sortedTokens(cf.tokens),
			RequiresTransformation: len(cf.tokens) > 1 || nested,
		})
	}
	return mappings
}

func hasNullToken(tokens map[string]struct{}) bool {
	_, ok := tokens[sqltypes.TypeNull]
	return ok
}

func sortedTokens(tokens map[string]struct{}) []string {
	out := make([]string, 0, len(tokens))
	for t := range tokens {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// parentKeyType mirrors the parent's id field type; Cosmos ids are strings,
// so the fallback is bounded text.
func parentKeyType(merged map[string]*mergedField) string {
	if target, ok := merged["id"]; ok {
		if _, ranked := sqltypes.Rank(target.info.RecommendedSqlType); ranked {
			return target.info.RecommendedSqlType
		}
	}
	return sqltypes.TypeNVarChar255
}

func estimateChildRows(documentCount int64, observedRows, sampled int) int64 {
	if sampled == 0 || observedRows == 0 {
		return documentCount
	}
	avg := float64(observedRows) / float64(sampled)
	return int64(avg * float64(documentCount))
}

// ============================================================================
// Naming
// ============================================================================

// TableName derives the target table name from a container name.
func TableName(container string) string {
	return pascal(sanitizeIdentifier(container))
}

// ChildTableName derives a child table name from its parent table and source
// path: the last path segment is singularized, so "orders" + "items" becomes
// "Orders_Item".
func ChildTableName(parentTable, path string) string {
	segments := strings.Split(path, models.PathSeparator)
	last := inflection.Singular(segments[len(segments)-1])
	prefix := parentTable
	if len(segments) > 1 {
		mid := make([]string, 0, len(segments)-1)
		for _, seg := range segments[:len(segments)-1] {
			mid = append(mid, pascal(sanitizeIdentifier(seg)))
		}
		prefix = parentTable + "_" + strings.Join(mid, "_")
	}
	return prefix + "_" + pascal(sanitizeIdentifier(last))
}

// ParentKeyColumn names the synthetic FK column pointing at the parent table.
func ParentKeyColumn(parentTable string) string {
	return inflection.Singular(parentTable) + "Id"
}

// ColumnName derives a target column name from a qualified field path.
func ColumnName(path string) string {
	return sanitizeIdentifier(strings.ReplaceAll(path, models.PathSeparator, "_"))
}

func sanitizeIdentifier(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	out := sb.String()
	if out == "" {
		return "_"
	}
	return out
}

func pascal(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
