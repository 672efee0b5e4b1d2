// Package reports renders a finished assessment into its deliverables: a YAML
// mapping snapshot, a T-SQL deployment script, bulk-load stored procedures,
// an SSDT project scaffold, and an Excel workbook.
package reports

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/docshift-inc/docshift-engine/pkg/models"
)

const (
	mappingFileName  = "mapping.yaml"
	ddlFileName      = "schema.sql"
	procsFileName    = "procs.sql"
	sqlprojFileName  = "docshift.sqlproj"
	workbookFileName = "assessment.xlsx"
)

// Writer persists report artifacts to an output directory.
type Writer struct {
	outputDir string
	logger    *zap.Logger
}

// NewWriter creates a report writer rooted at outputDir.
func NewWriter(outputDir string, logger *zap.Logger) *Writer {
	return &Writer{outputDir: outputDir, logger: logger.Named("reports")}
}

// WriteAll renders every artifact for the assessment and returns the paths
// written, for upload or display.
func (w *Writer) WriteAll(assessment *models.Assessment) ([]string, error) {
	dir := filepath.Join(w.outputDir, assessment.RunID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}

	paths := make([]string, 0, 5)
	write := func(name string, data []byte) error {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
		return nil
	}

	snapshot, err := yaml.Marshal(assessment)
	if err != nil {
		return nil, fmt.Errorf("marshal assessment: %w", err)
	}
	if err := write(mappingFileName, snapshot); err != nil {
		return nil, err
	}

	if err := write(ddlFileName, []byte(GenerateDDL(assessment))); err != nil {
		return nil, err
	}

	if err := write(procsFileName, []byte(GenerateLoadProcedures(assessment))); err != nil {
		return nil, err
	}

	sqlproj, err := GenerateSqlProj("docshift", string(assessment.Recommendation.Platform),
		assessment.RunID.String(), []string{ddlFileName, procsFileName})
	if err != nil {
		return nil, err
	}
	if err := write(sqlprojFileName, []byte(sqlproj)); err != nil {
		return nil, err
	}

	workbook, err := BuildWorkbook(assessment)
	if err != nil {
		return nil, fmt.Errorf("build workbook: %w", err)
	}
	defer workbook.Close()
	workbookPath := filepath.Join(dir, workbookFileName)
	if err := workbook.SaveAs(workbookPath); err != nil {
		return nil, fmt.Errorf("save workbook: %w", err)
	}
	paths = append(paths, workbookPath)

	w.logger.Info("Report artifacts written",
		zap.String("dir", dir),
		zap.Int("files", len(paths)))
	return paths, nil
}
