package reports

import (
	"fmt"
	"strings"

	"github.com/docshift-inc/docshift-engine/pkg/models"
)

// GenerateDDL renders the full T-SQL deployment script for an assessment:
// schema, parent tables, child tables, shared tables, then constraints.
// Tables appear in mapping order, columns in mapping order, so the script is
// deterministic for identical assessments.
func GenerateDDL(assessment *models.Assessment) string {
	var sb strings.Builder

	sb.WriteString("-- Generated by docshift-engine\n")
	sb.WriteString(fmt.Sprintf("-- Run %s, source account %s\n\n", assessment.RunID, assessment.AccountName))

	schemas := targetSchemas(assessment)
	for _, schema := range schemas {
		sb.WriteString(fmt.Sprintf(
			"IF NOT EXISTS (SELECT 1 FROM sys.schemas WHERE name = '%s')\n    EXEC('CREATE SCHEMA [%s]');\nGO\n\n",
			schema, schema))
	}

	for _, ss := range assessment.SharedSchemas {
		writeTable(&sb, ss.TargetSchema, ss.TargetTable, ss.FieldMappings, "")
	}

	for _, mapping := range assessment.Mappings {
		writeTable(&sb, mapping.TargetSchema, mapping.TargetTable, mapping.FieldMappings, "id")
		for _, child := range mapping.ChildTables {
			if child.SharedSchemaHash != "" {
				continue // shared definition already emitted
			}
			writeTable(&sb, child.TargetSchema, child.TargetTable, child.FieldMappings, "")
		}
	}

	writeConstraints(&sb, assessment)
	return sb.String()
}

func writeTable(sb *strings.Builder, schema, table string, fields []models.FieldMapping, pkColumn string) {
	sb.WriteString(fmt.Sprintf("CREATE TABLE [%s].[%s] (\n", schema, table))
	for i, fm := range fields {
		null := "NULL"
		if !fm.Nullable {
			null = "NOT NULL"
		}
		sb.WriteString(fmt.Sprintf("    [%s] %s %s", fm.TargetColumn, fm.SqlType, null))
		if fm.TargetColumn == pkColumn {
			sb.WriteString(fmt.Sprintf(" CONSTRAINT [PK_%s] PRIMARY KEY", table))
		}
		if i < len(fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(");\nGO\n\n")
}

func writeConstraints(sb *strings.Builder, assessment *models.Assessment) {
	for _, c := range assessment.Constraints {
		switch c.Type {
		case models.ConstraintTypeUnique:
			sb.WriteString(fmt.Sprintf(
				"ALTER TABLE [%s] ADD CONSTRAINT [UQ_%s_%s] UNIQUE ([%s]);\nGO\n",
				c.Table, c.Table, c.Column, c.Column))
		case models.ConstraintTypeForeignKey:
			sb.WriteString(fmt.Sprintf(
				"ALTER TABLE [%s] ADD CONSTRAINT [FK_%s_%s] FOREIGN KEY ([%s]) REFERENCES [%s] ([%s]);\nGO\n",
				c.Table, c.Table, c.ReferencesTable, c.Column, c.ReferencesTable, c.ReferencesColumn))
		}
	}
}

// targetSchemas collects the distinct schema names used by the assessment, in
// first-use order.
func targetSchemas(assessment *models.Assessment) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 1)
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, ss := range assessment.SharedSchemas {
		add(ss.TargetSchema)
	}
	for _, m := range assessment.Mappings {
		add(m.TargetSchema)
		for _, child := range m.ChildTables {
			add(child.TargetSchema)
		}
	}
	return out
}
