package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docshift-inc/docshift-engine/pkg/config"
	"github.com/docshift-inc/docshift-engine/pkg/models"
)

func recConfig() config.RecommendationConfig {
	return config.RecommendationConfig{
		MaxDocumentsSQLDatabase:      100_000_000,
		MaxSizeBytesSQLDatabase:      4 << 40,
		MaxSizeBytesManagedInstance:  16 << 40,
		HyperscaleSizeBytes:          1 << 40,
		BusinessCriticalThroughputRU: 50_000,
		MaxCompositeIndexesLow:       5,
		MaxSharedSchemasLow:          3,
		MigrationRateBytesPerHour:    50 << 30,
		MigrationCostPerHourUSD:      12.5,
	}
}

func TestRecommendPlatform_Platform(t *testing.T) {
	tests := []struct {
		name      string
		totalDocs int64
		totalSize int64
		want      models.TargetPlatform
	}{
		{"small account", 1_000_000, 10 << 30, models.PlatformAzureSQLDatabase},
		{"at sql database size limit", 0, 4 << 40, models.PlatformAzureSQLDatabase},
		{"over sql database size limit", 0, (4 << 40) + 1, models.PlatformAzureSQLManagedInstance},
		{"over document limit", 100_000_001, 10 << 30, models.PlatformAzureSQLManagedInstance},
		{"over managed instance limit", 0, (16 << 40) + 1, models.PlatformSQLServerVM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			containers := []models.ContainerInfo{{DocumentCount: tt.totalDocs, SizeBytes: tt.totalSize}}
			rec := RecommendPlatform(recConfig(), containers, nil, 0)
			require.Equal(t, tt.want, rec.Platform)
		})
	}
}

func TestRecommendPlatform_Tier(t *testing.T) {
	tests := []struct {
		name      string
		totalSize int64
		peakRU    int32
		want      models.ServiceTier
	}{
		{"default", 10 << 30, 4000, models.TierGeneralPurpose},
		{"hyperscale on size", 1 << 40, 4000, models.TierHyperscale},
		{"business critical on throughput", 10 << 30, 50_000, models.TierBusinessCritical},
		{"size wins over throughput", 2 << 40, 80_000, models.TierHyperscale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			containers := []models.ContainerInfo{{SizeBytes: tt.totalSize, ThroughputRU: tt.peakRU}}
			rec := RecommendPlatform(recConfig(), containers, nil, 0)
			require.Equal(t, tt.want, rec.Tier)
		})
	}
}

func TestRecommendPlatform_Complexity(t *testing.T) {
	transformed := func(n, of int) []*models.ContainerMapping {
		fms := make([]models.FieldMapping, of)
		for i := 0; i < of; i++ {
			fms[i] = models.FieldMapping{RequiresTransformation: i < n}
		}
		return []*models.ContainerMapping{{FieldMappings: fms}}
	}

	tests := []struct {
		name             string
		mappings         []*models.ContainerMapping
		sharedSchemas    int
		compositeIndexes int
		want             models.ComplexityLevel
	}{
		{"clean account", transformed(0, 10), 0, 0, models.ComplexityLow},
		{"many composite indexes", transformed(0, 10), 0, 6, models.ComplexityMedium},
		{"many shared schemas", transformed(0, 10), 4, 0, models.ComplexityMedium},
		{"heavy transformation", transformed(4, 10), 0, 0, models.ComplexityMedium},
		{"multiple signals", transformed(4, 10), 4, 6, models.ComplexityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			containers := []models.ContainerInfo{{CompositeIndexes: tt.compositeIndexes}}
			rec := RecommendPlatform(recConfig(), containers, tt.mappings, tt.sharedSchemas)
			require.Equal(t, tt.want, rec.Complexity)
		})
	}
}

func TestEstimateMigration(t *testing.T) {
	containers := []models.ContainerInfo{
		{DocumentCount: 1_000_000, SizeBytes: 100 << 30},
		{DocumentCount: 500_000, SizeBytes: 50 << 30},
	}

	est := EstimateMigration(recConfig(), containers)
	require.Equal(t, int64(1_500_000), est.TotalDocuments)
	require.Equal(t, int64(150<<30), est.TotalSizeBytes)
	// 150 GB at 50 GB/h.
	require.Equal(t, 3*time.Hour, est.Duration)
	require.InDelta(t, 37.5, est.EstimatedCostUSD, 1e-9)
}

func TestEstimateMigration_ZeroRate(t *testing.T) {
	cfg := recConfig()
	cfg.MigrationRateBytesPerHour = 0

	est := EstimateMigration(cfg, []models.ContainerInfo{{SizeBytes: 1 << 30}})
	require.Zero(t, est.Duration)
	require.Zero(t, est.EstimatedCostUSD)
}

func TestInferConstraints(t *testing.T) {
	mappings := []*models.ContainerMapping{
		{
			TargetTable: "Orders",
			FieldMappings: []models.FieldMapping{
				{SourceField: "id"},
				{SourceField: "total"},
			},
			ChildTables: []models.ChildTableMapping{
				{TargetTable: "Orders_Item", ParentKeyColumn: "OrderId"},
			},
		},
		{
			TargetTable: "Events",
			FieldMappings: []models.FieldMapping{
				{SourceField: "timestamp"},
			},
		},
	}

	constraints := InferConstraints(mappings)
	require.Len(t, constraints, 2)

	require.Equal(t, models.ConstraintTypeUnique, constraints[0].Type)
	require.Equal(t, "Orders", constraints[0].Table)
	require.Equal(t, "id", constraints[0].Column)

	require.Equal(t, models.ConstraintTypeForeignKey, constraints[1].Type)
	require.Equal(t, "Orders_Item", constraints[1].Table)
	require.Equal(t, "OrderId", constraints[1].Column)
	require.Equal(t, "Orders", constraints[1].ReferencesTable)
	require.Equal(t, "id", constraints[1].ReferencesColumn)
}
