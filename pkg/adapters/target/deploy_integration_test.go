package target

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docshift-inc/docshift-engine/pkg/config"
	"github.com/docshift-inc/docshift-engine/pkg/models"
	"github.com/docshift-inc/docshift-engine/pkg/reports"
	"github.com/docshift-inc/docshift-engine/pkg/testhelpers"
)

func deployAssessment() *models.Assessment {
	return &models.Assessment{
		RunID: uuid.New(),
		Phase: models.AssessmentPhaseComplete,
		Mappings: []*models.ContainerMapping{
			{
				Database:     "shop",
				Container:    "orders",
				TargetSchema: "dbo",
				TargetTable:  "Orders",
				FieldMappings: []models.FieldMapping{
					{SourceField: "id", TargetColumn: "id", SqlType: "NVARCHAR(50)", Nullable: false},
					{SourceField: "placed_at", TargetColumn: "placed_at", SqlType: "DATETIME2", Nullable: true},
					{SourceField: "total", TargetColumn: "total", SqlType: "DECIMAL(18,2)", Nullable: true},
				},
				ChildTables: []models.ChildTableMapping{
					{
						SourcePath:      "items",
						Type:            models.ChildTableTypeNestedObject,
						TargetSchema:    "dbo",
						TargetTable:     "Orders_Item",
						ParentKeyColumn: "OrderId",
						FieldMappings: []models.FieldMapping{
							{SourceField: "OrderId", TargetColumn: "OrderId", SqlType: "NVARCHAR(50)", Nullable: false},
							{SourceField: "sku", TargetColumn: "sku", SqlType: "NVARCHAR(50)", Nullable: false},
							{SourceField: "qty", TargetColumn: "qty", SqlType: "INT", Nullable: true},
						},
					},
				},
			},
		},
		Constraints: []models.InferredConstraint{
			{Type: models.ConstraintTypeUnique, Table: "Orders", Column: "id"},
			{Type: models.ConstraintTypeForeignKey, Table: "Orders_Item", Column: "OrderId", ReferencesTable: "Orders", ReferencesColumn: "id"},
		},
	}
}

// TestDeployDDL_Integration deploys a generated script against a real SQL
// Server and verifies the resulting catalog.
func TestDeployDDL_Integration(t *testing.T) {
	server := testhelpers.GetSQLServer(t)
	server.CreateDatabase(t, "docshift_deploy_test")

	cfg := config.TargetConfig{
		Host:     server.Host,
		Port:     server.Port,
		Database: "docshift_deploy_test",
		Username: "sa",
		Password: server.SAPassword(),
		Encrypt:  false,
	}

	v, err := NewValidator(cfg, zap.NewNop())
	require.NoError(t, err)
	defer v.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	require.NoError(t, v.TestConnection(ctx))

	ddl := reports.GenerateDDL(deployAssessment())
	require.NoError(t, v.DeployDDL(ctx, ddl))

	var tables int
	err = v.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sys.tables WHERE name IN ('Orders', 'Orders_Item')").Scan(&tables)
	require.NoError(t, err)
	require.Equal(t, 2, tables)

	var fks int
	err = v.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sys.foreign_keys WHERE name = 'FK_Orders_Item_Orders'").Scan(&fks)
	require.NoError(t, err)
	require.Equal(t, 1, fks)
}
