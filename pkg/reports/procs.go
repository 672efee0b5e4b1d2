package reports

import (
	"fmt"
	"strings"

	"github.com/docshift-inc/docshift-engine/pkg/models"
)

// GenerateLoadProcedures renders one bulk-load stored procedure per target
// table. Each procedure takes a JSON array of source documents and shreds it
// with OPENJSON using the field mappings, so the same export that fed the
// assessment can seed the target.
func GenerateLoadProcedures(assessment *models.Assessment) string {
	var sb strings.Builder

	sb.WriteString("-- Bulk-load procedures generated by docshift-engine\n\n")

	for _, mapping := range assessment.Mappings {
		writeLoadProc(&sb, mapping.TargetSchema, mapping.TargetTable, mapping.FieldMappings)
		for _, child := range mapping.ChildTables {
			if child.SharedSchemaHash != "" {
				continue
			}
			writeLoadProc(&sb, child.TargetSchema, child.TargetTable, child.FieldMappings)
		}
	}
	return sb.String()
}

func writeLoadProc(sb *strings.Builder, schema, table string, fields []models.FieldMapping) {
	sb.WriteString(fmt.Sprintf("CREATE PROCEDURE [%s].[usp_Load_%s]\n    @json NVARCHAR(MAX)\nAS\nBEGIN\n    SET NOCOUNT ON;\n\n", schema, table))

	columns := make([]string, 0, len(fields))
	withClauses := make([]string, 0, len(fields))
	for _, fm := range fields {
		columns = append(columns, fmt.Sprintf("[%s]", fm.TargetColumn))
		withClauses = append(withClauses, fmt.Sprintf("        [%s] %s '%s'",
			fm.TargetColumn, fm.SqlType, jsonPath(fm.SourceField)))
	}

	sb.WriteString(fmt.Sprintf("    INSERT INTO [%s].[%s] (%s)\n", schema, table, strings.Join(columns, ", ")))
	sb.WriteString("    SELECT ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString("\n    FROM OPENJSON(@json)\n    WITH (\n")
	sb.WriteString(strings.Join(withClauses, ",\n"))
	sb.WriteString("\n    );\nEND;\nGO\n\n")
}

// jsonPath builds the OPENJSON path for a source field. Dotted source fields
// address nested properties; child-table procedures receive the already
// flattened element array, so the path is relative to the element.
func jsonPath(sourceField string) string {
	parts := strings.Split(sourceField, models.PathSeparator)
	for i, p := range parts {
		parts[i] = fmt.Sprintf("\"%s\"", p)
	}
	return "$." + strings.Join(parts, ".")
}
