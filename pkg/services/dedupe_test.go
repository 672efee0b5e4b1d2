package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docshift-inc/docshift-engine/pkg/models"
	"github.com/docshift-inc/docshift-engine/pkg/sqltypes"
)

func mapContainer(t *testing.T, database, container string, docs ...string) *models.ContainerMapping {
	t.Helper()
	schemas, sampled := aggregate(t, docs...)
	m := NewContainerMapper("dbo", zap.NewNop())
	return m.Map(models.ContainerInfo{Database: database, Name: container, DocumentCount: 10}, schemas, sampled)
}

func TestDeduplicate_SharedShapeAcrossContainers(t *testing.T) {
	// Same address shape embedded in two different containers.
	customers := mapContainer(t, "shop", "customers",
		`{"id": "c-1", "address": {"city": "Oslo", "zip": "0150"}}`)
	suppliers := mapContainer(t, "shop", "suppliers",
		`{"id": "s-1", "address": {"city": "Bergen", "zip": "5003"}}`)

	d := NewSharedSchemaDeduplicator("dbo", zap.NewNop())
	shared := d.Deduplicate([]*models.ContainerMapping{customers, suppliers})

	require.Len(t, shared, 1)
	ss := shared[0]
	require.Equal(t, 2, ss.UsageCount)
	require.Equal(t, "Shared_Address", ss.TargetTable)
	require.Len(t, ss.Usages, 2)

	// Both usages now reference the shared definition instead of their own.
	for _, mapping := range []*models.ContainerMapping{customers, suppliers} {
		child := mapping.ChildTables[0]
		require.Equal(t, ss.Hash, child.SharedSchemaHash)
		require.Equal(t, ss.TargetTable, child.TargetTable)
		require.Nil(t, child.FieldMappings)
	}

	// The canonical field list carries the generic parent key.
	require.Equal(t, SharedParentKeyColumn, ss.FieldMappings[0].SourceField)
}

func TestDeduplicate_DifferentShapesStaySeparate(t *testing.T) {
	a := mapContainer(t, "shop", "customers",
		`{"id": "c-1", "address": {"city": "Oslo", "zip": "0150"}}`)
	b := mapContainer(t, "shop", "warehouses",
		`{"id": "w-1", "address": {"city": "Oslo", "lat": 59.91, "lon": 10.75}}`)

	d := NewSharedSchemaDeduplicator("dbo", zap.NewNop())
	shared := d.Deduplicate([]*models.ContainerMapping{a, b})

	require.Empty(t, shared)
	require.NotNil(t, a.ChildTables[0].FieldMappings)
	require.Empty(t, a.ChildTables[0].SharedSchemaHash)
}

func TestDeduplicate_TypeMismatchStaysSeparate(t *testing.T) {
	// Same field names, different reconciled types.
	a := mapContainer(t, "shop", "customers",
		`{"id": "c-1", "address": {"city": "Oslo", "zip": "0150"}}`)
	b := mapContainer(t, "shop", "suppliers",
		`{"id": "s-1", "address": {"city": "Bergen", "zip": 5003}}`)

	d := NewSharedSchemaDeduplicator("dbo", zap.NewNop())
	shared := d.Deduplicate([]*models.ContainerMapping{a, b})
	require.Empty(t, shared)
}

func TestDeduplicate_ParentKeyExcludedFromHash(t *testing.T) {
	// FK names differ per parent (CustomerId vs SupplierId); the shapes still
	// match because the parent key is excluded from the hash.
	customers := mapContainer(t, "shop", "customers",
		`{"id": "c-1", "tags": ["vip"]}`)
	suppliers := mapContainer(t, "shop", "suppliers",
		`{"id": "s-1", "tags": ["preferred"]}`)

	require.Equal(t, "CustomerId", customers.ChildTables[0].ParentKeyColumn)
	require.Equal(t, "SupplierId", suppliers.ChildTables[0].ParentKeyColumn)

	d := NewSharedSchemaDeduplicator("dbo", zap.NewNop())
	shared := d.Deduplicate([]*models.ContainerMapping{customers, suppliers})
	require.Len(t, shared, 1)
	require.Equal(t, "Shared_Tag", shared[0].TargetTable)
}

func TestDeduplicate_NameCollisionGetsHashSuffix(t *testing.T) {
	// Two distinct shapes that would both be named Shared_Item.
	a := mapContainer(t, "shop", "orders",
		`{"id": "o-1", "items": [{"sku": "A"}]}`,
		`{"id": "o-2", "items": [{"sku": "B"}]}`)
	b := mapContainer(t, "shop", "returns",
		`{"id": "r-1", "items": [{"sku": "A"}]}`,
		`{"id": "r-2", "items": [{"sku": "B"}]}`)
	c := mapContainer(t, "shop", "quotes",
		`{"id": "q-1", "items": [{"sku": "A", "discount": 0.10}]}`,
		`{"id": "q-2", "items": [{"sku": "B", "discount": 0.20}]}`)
	d2 := mapContainer(t, "shop", "invoices",
		`{"id": "i-1", "items": [{"sku": "A", "discount": 0.10}]}`,
		`{"id": "i-2", "items": [{"sku": "B", "discount": 0.20}]}`)

	d := NewSharedSchemaDeduplicator("dbo", zap.NewNop())
	shared := d.Deduplicate([]*models.ContainerMapping{a, b, c, d2})

	require.Len(t, shared, 2)
	require.Equal(t, "Shared_Item", shared[0].TargetTable)
	require.NotEqual(t, shared[0].TargetTable, shared[1].TargetTable)
	require.Contains(t, shared[1].TargetTable, "Shared_Item_")
}

func TestDeduplicate_SharedFieldTypesSurvive(t *testing.T) {
	a := mapContainer(t, "shop", "customers",
		`{"id": "c-1", "address": {"city": "Oslo", "zip": "0150"}}`)
	b := mapContainer(t, "shop", "suppliers",
		`{"id": "s-1", "address": {"city": "Bergen", "zip": "5003"}}`)

	d := NewSharedSchemaDeduplicator("dbo", zap.NewNop())
	shared := d.Deduplicate([]*models.ContainerMapping{a, b})
	require.Len(t, shared, 1)

	byName := make(map[string]models.FieldMapping)
	for _, fm := range shared[0].FieldMappings {
		byName[fm.SourceField] = fm
	}
	require.Equal(t, sqltypes.TypeNVarChar50, byName["city"].SqlType)
	require.Equal(t, sqltypes.TypeNVarChar50, byName["zip"].SqlType)
}
