package services

import (
	"fmt"
	"time"

	"github.com/docshift-inc/docshift-engine/pkg/config"
	"github.com/docshift-inc/docshift-engine/pkg/models"
)

// RecommendPlatform selects a target platform, service tier and migration
// complexity from account-wide totals. The thresholds are configuration
// constants; changing them changes the recommendation contract.
func RecommendPlatform(
	cfg config.RecommendationConfig,
	containers []models.ContainerInfo,
	mappings []*models.ContainerMapping,
	sharedSchemas int,
) models.PlatformRecommendation {
	var totalDocs, totalSize int64
	var peakRU int32
	compositeIndexes := 0
	for _, c := range containers {
		totalDocs += c.DocumentCount
		totalSize += c.SizeBytes
		if c.ThroughputRU > peakRU {
			peakRU = c.ThroughputRU
		}
		compositeIndexes += c.CompositeIndexes
	}

	rec := models.PlatformRecommendation{}

	switch {
	case totalSize > cfg.MaxSizeBytesManagedInstance:
		rec.Platform = models.PlatformSQLServerVM
		rec.Reasons = append(rec.Reasons,
			fmt.Sprintf("total data size %d bytes exceeds the managed instance limit", totalSize))
	case totalSize > cfg.MaxSizeBytesSQLDatabase || totalDocs > cfg.MaxDocumentsSQLDatabase:
		rec.Platform = models.PlatformAzureSQLManagedInstance
		rec.Reasons = append(rec.Reasons,
			fmt.Sprintf("scale (%d documents, %d bytes) exceeds single database limits", totalDocs, totalSize))
	default:
		rec.Platform = models.PlatformAzureSQLDatabase
	}

	switch {
	case totalSize >= cfg.HyperscaleSizeBytes:
		rec.Tier = models.TierHyperscale
		rec.Reasons = append(rec.Reasons, "data size favors Hyperscale storage scaling")
	case peakRU >= cfg.BusinessCriticalThroughputRU:
		rec.Tier = models.TierBusinessCritical
		rec.Reasons = append(rec.Reasons,
			fmt.Sprintf("peak provisioned throughput %d RU/s needs low-latency local storage", peakRU))
	default:
		rec.Tier = models.TierGeneralPurpose
	}

	rec.Complexity = complexity(cfg, mappings, sharedSchemas, compositeIndexes)
	return rec
}

func complexity(
	cfg config.RecommendationConfig,
	mappings []*models.ContainerMapping,
	sharedSchemas, compositeIndexes int,
) models.ComplexityLevel {
	score := 0
	if compositeIndexes > cfg.MaxCompositeIndexesLow {
		score++
	}
	if sharedSchemas > cfg.MaxSharedSchemasLow {
		score++
	}

	totalFields, transformed := 0, 0
	childTables := 0
	for _, m := range mappings {
		totalFields += len(m.FieldMappings)
		for _, fm := range m.FieldMappings {
			if fm.RequiresTransformation {
				transformed++
			}
		}
		childTables += len(m.ChildTables)
	}
	if totalFields > 0 && float64(transformed)/float64(totalFields) > 0.3 {
		score++
	}
	if childTables > len(mappings)*2 {
		score++
	}

	switch {
	case score == 0:
		return models.ComplexityLow
	case score == 1:
		return models.ComplexityMedium
	default:
		return models.ComplexityHigh
	}
}

// EstimateMigration projects the duration and cost of the data move from the
// account totals and the configured sustained copy rate.
func EstimateMigration(cfg config.RecommendationConfig, containers []models.ContainerInfo) models.MigrationEstimate {
	var totalDocs, totalSize int64
	for _, c := range containers {
		totalDocs += c.DocumentCount
		totalSize += c.SizeBytes
	}

	est := models.MigrationEstimate{
		TotalDocuments: totalDocs,
		TotalSizeBytes: totalSize,
	}
	if cfg.MigrationRateBytesPerHour > 0 && totalSize > 0 {
		hours := float64(totalSize) / float64(cfg.MigrationRateBytesPerHour)
		est.Duration = time.Duration(hours * float64(time.Hour))
		est.EstimatedCostUSD = hours * cfg.MigrationCostPerHourUSD
	}
	return est
}

// InferConstraints derives unique and foreign-key constraints from the
// mapping model: every parent table gets a unique constraint on its id
// column (the source document identity), and every child table a FK back to
// its parent.
func InferConstraints(mappings []*models.ContainerMapping) []models.InferredConstraint {
	constraints := make([]models.InferredConstraint, 0)

	for _, m := range mappings {
		hasID := false
		for _, fm := range m.FieldMappings {
			if fm.SourceField == "id" {
				hasID = true
				break
			}
		}
		if hasID {
			constraints = append(constraints, models.InferredConstraint{
				Type:   models.ConstraintTypeUnique,
				Table:  m.TargetTable,
				Column: "id",
			})
		}

		for _, child := range m.ChildTables {
			// A shared table is referenced by several parents through a generic
			// key; a hard FK cannot span them.
			if child.SharedSchemaHash != "" {
				continue
			}
			constraints = append(constraints, models.InferredConstraint{
				Type:             models.ConstraintTypeForeignKey,
				Table:            child.TargetTable,
				Column:           child.ParentKeyColumn,
				ReferencesTable:  m.TargetTable,
				ReferencesColumn: "id",
			})
		}
	}

	return constraints
}
