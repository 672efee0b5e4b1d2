package reports

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/docshift-inc/docshift-engine/pkg/models"
)

// BuildWorkbook renders the assessment into an Excel workbook with one sheet
// per report section. The caller owns the returned file and must Close it.
func BuildWorkbook(assessment *models.Assessment) (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeSummarySheet(f, assessment, header); err != nil {
		return nil, err
	}
	if err := writeContainersSheet(f, assessment, header); err != nil {
		return nil, err
	}
	if err := writeMappingsSheet(f, assessment, header); err != nil {
		return nil, err
	}
	if err := writeSharedSchemasSheet(f, assessment, header); err != nil {
		return nil, err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	return f, nil
}

func newSheet(f *excelize.File, name string, headerStyle int, columns []string) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, col); err != nil {
			return err
		}
		if err := f.SetCellStyle(name, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, assessment *models.Assessment, headerStyle int) error {
	const sheet = "Summary"
	if err := newSheet(f, sheet, headerStyle, []string{"Item", "Value"}); err != nil {
		return err
	}

	rows := [][]any{
		{"Run ID", assessment.RunID.String()},
		{"Account", assessment.AccountName},
		{"Started", assessment.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Completed", assessment.CompletedAt.Format("2006-01-02 15:04:05 MST")},
		{"Containers", len(assessment.Containers)},
		{"Shared schemas", len(assessment.SharedSchemas)},
		{"Recommended platform", string(assessment.Recommendation.Platform)},
		{"Recommended tier", string(assessment.Recommendation.Tier)},
		{"Migration complexity", string(assessment.Recommendation.Complexity)},
		{"Total documents", assessment.Estimate.TotalDocuments},
		{"Total size (bytes)", assessment.Estimate.TotalSizeBytes},
		{"Estimated duration", assessment.Estimate.Duration.String()},
		{"Estimated cost (USD)", assessment.Estimate.EstimatedCostUSD},
	}
	for i, reason := range assessment.Recommendation.Reasons {
		rows = append(rows, []any{fmt.Sprintf("Reason %d", i+1), reason})
	}

	for i, row := range rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "B", 40)
}

func writeContainersSheet(f *excelize.File, assessment *models.Assessment, headerStyle int) error {
	const sheet = "Containers"
	columns := []string{"Database", "Container", "Documents", "Size (bytes)", "Partition Key", "Throughput (RU/s)", "Autoscale", "Composite Indexes"}
	if err := newSheet(f, sheet, headerStyle, columns); err != nil {
		return err
	}

	for i, c := range assessment.Containers {
		row := []any{c.Database, c.Name, c.DocumentCount, c.SizeBytes, c.PartitionKey, c.ThroughputRU, c.Autoscale, c.CompositeIndexes}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "H", 20)
}

func writeMappingsSheet(f *excelize.File, assessment *models.Assessment, headerStyle int) error {
	const sheet = "Field Mappings"
	columns := []string{"Container", "Target Table", "Source Field", "Target Column", "SQL Type", "Nullable", "Detected Types", "Transformation"}
	if err := newSheet(f, sheet, headerStyle, columns); err != nil {
		return err
	}

	row := 2
	for _, mapping := range assessment.Mappings {
		source := mapping.Database + "/" + mapping.Container
		target := mapping.TargetSchema + "." + mapping.TargetTable
		for _, fm := range mapping.FieldMappings {
			if err := writeRow(f, sheet, row, fieldMappingRow(source, target, fm)); err != nil {
				return err
			}
			row++
		}
		for _, child := range mapping.ChildTables {
			childTarget := child.TargetSchema + "." + child.TargetTable
			for _, fm := range child.FieldMappings {
				if err := writeRow(f, sheet, row, fieldMappingRow(source+"/"+child.SourcePath, childTarget, fm)); err != nil {
					return err
				}
				row++
			}
		}
	}
	return f.SetColWidth(sheet, "A", "H", 24)
}

func fieldMappingRow(source, target string, fm models.FieldMapping) []any {
	return []any{
		source,
		target,
		fm.SourceField,
		fm.TargetColumn,
		fm.SqlType,
		fm.Nullable,
		strings.Join(fm.DetectedTypes, ", "),
		fm.RequiresTransformation,
	}
}

func writeSharedSchemasSheet(f *excelize.File, assessment *models.Assessment, headerStyle int) error {
	const sheet = "Shared Schemas"
	columns := []string{"Target Table", "Hash", "Usages", "Used By"}
	if err := newSheet(f, sheet, headerStyle, columns); err != nil {
		return err
	}

	for i, ss := range assessment.SharedSchemas {
		usedBy := make([]string, 0, len(ss.Usages))
		for _, u := range ss.Usages {
			usedBy = append(usedBy, fmt.Sprintf("%s/%s:%s", u.Database, u.Container, u.SourcePath))
		}
		row := []any{ss.TargetSchema + "." + ss.TargetTable, ss.Hash[:12], ss.UsageCount, strings.Join(usedBy, "; ")}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "D", 32)
}
