package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/docshift-inc/docshift-engine/pkg/models"
)

// SharedSchemaDeduplicator detects structurally identical child-table shapes
// recurring across containers and consolidates them into reusable target
// table definitions.
type SharedSchemaDeduplicator struct {
	targetSchema string
	logger       *zap.Logger
}

// NewSharedSchemaDeduplicator creates a deduplicator emitting shared tables
// under targetSchema.
func NewSharedSchemaDeduplicator(targetSchema string, logger *zap.Logger) *SharedSchemaDeduplicator {
	return &SharedSchemaDeduplicator{
		targetSchema: targetSchema,
		logger:       logger.Named("dedupe"),
	}
}

// SharedParentKeyColumn is the generic FK column on a shared table; each
// referencing parent binds its own key into it.
const SharedParentKeyColumn = "ParentId"

// Deduplicate scans every child-table mapping across the assessment. Two
// child tables share a schema when their field-name sets and per-field
// recommended types match exactly (order-independent, parent key excluded -
// FK names differ per parent). Shapes used at least twice become a
// SharedSchema; matched mappings drop their own field list and reference the
// shared definition by hash. Mutates the mappings in place.
func (d *SharedSchemaDeduplicator) Deduplicate(mappings []*models.ContainerMapping) []*models.SharedSchema {
	type usage struct {
		mapping *models.ContainerMapping
		child   *models.ChildTableMapping
	}

	byHash := make(map[string][]usage)
	hashOrder := make([]string, 0)

	for _, mapping := range mappings {
		for i := range mapping.ChildTables {
			child := &mapping.ChildTables[i]
			h := childSchemaHash(child)
			if _, ok := byHash[h]; !ok {
				hashOrder = append(hashOrder, h)
			}
			byHash[h] = append(byHash[h], usage{mapping: mapping, child: child})
		}
	}

	usedNames := make(map[string]struct{})
	shared := make([]*models.SharedSchema, 0)

	for _, h := range hashOrder {
		usages := byHash[h]
		if len(usages) < 2 {
			continue
		}

		first := usages[0].child
		ss := &models.SharedSchema{
			Hash:          h,
			TargetSchema:  d.targetSchema,
			TargetTable:   sharedTableName(first.SourcePath, h, usedNames),
			UsageCount:    len(usages),
			FieldMappings: canonicalSharedFields(first),
		}
		for _, u := range usages {
			ss.Usages = append(ss.Usages, models.SharedSchemaUsage{
				Database:   u.mapping.Database,
				Container:  u.mapping.Container,
				SourcePath: u.child.SourcePath,
			})
			u.child.SharedSchemaHash = h
			u.child.TargetTable = ss.TargetTable
			u.child.FieldMappings = nil
		}
		shared = append(shared, ss)

		d.logger.Info("Shared schema consolidated",
			zap.String("table", ss.TargetTable),
			zap.Int("usages", ss.UsageCount))
	}

	return shared
}

// childSchemaHash canonically serializes the child table's field signature
// (sorted name=type lines, parent key excluded) and hashes it.
func childSchemaHash(child *models.ChildTableMapping) string {
	lines := make([]string, 0, len(child.FieldMappings))
	for _, fm := range child.FieldMappings {
		if fm.SourceField == child.ParentKeyColumn {
			continue
		}
		lines = append(lines, fm.SourceField+"="+fm.SqlType)
	}
	// Field mappings are already sorted by source field; the parent key is
	// the only out-of-order entry and it is excluded.
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// canonicalSharedFields copies the first usage's columns, swapping its
// parent-specific FK for the generic shared one.
func canonicalSharedFields(child *models.ChildTableMapping) []models.FieldMapping {
	fields := make([]models.FieldMapping, 0, len(child.FieldMappings))
	for _, fm := range child.FieldMappings {
		if fm.SourceField == child.ParentKeyColumn {
			fm.SourceField = SharedParentKeyColumn
			fm.TargetColumn = SharedParentKeyColumn
		}
		fields = append(fields, fm)
	}
	return fields
}

func sharedTableName(sourcePath, hash string, used map[string]struct{}) string {
	segments := strings.Split(sourcePath, models.PathSeparator)
	base := "Shared_" + pascal(sanitizeIdentifier(inflection.Singular(segments[len(segments)-1])))
	name := base
	if _, taken := used[name]; taken {
		name = fmt.Sprintf("%s_%s", base, hash[:8])
	}
	used[name] = struct{}{}
	return name
}
