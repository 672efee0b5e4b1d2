package services

import (
	"fmt"
	"strings"

	"github.com/docshift-inc/docshift-engine/pkg/models"
	"github.com/docshift-inc/docshift-engine/pkg/sqltypes"
)

// ExtractResult is the flattened view of a single sampled document: scalar
// and nested-object leaves as qualified fields, plus child-table candidates
// for array-valued and nested-object properties.
//
// ExtractDocument returns a fresh result per call; callers merge explicitly.
// Nothing in here aliases the input document.
type ExtractResult struct {
	Fields   map[string]*models.FieldInfo
	Children map[string]*models.ChildTableCandidate
}

// ExtractDocument walks one parsed document and produces its flat field map
// and child-table candidates. pathPrefix qualifies every field (empty for the
// document root). arrayCap bounds how many elements of one array contribute
// to a child-table shape.
//
// Structure handling:
//   - nested objects flatten into the parent field map under dotted paths and
//     register a nested-object child candidate (the normalization target)
//   - arrays with at least one element register a child candidate; empty
//     arrays are ignored
//   - arrays nested inside array elements are serialized as opaque text,
//     normalization goes a single level deep
func ExtractDocument(doc models.Value, pathPrefix string, arrayCap int) (*ExtractResult, error) {
	if doc.Kind != models.KindObject {
		return nil, fmt.Errorf("document root is %s, expected object", doc.Kind)
	}

	res := &ExtractResult{
		Fields:   make(map[string]*models.FieldInfo),
		Children: make(map[string]*models.ChildTableCandidate),
	}
	extractObject(res, doc, pathPrefix, arrayCap)
	return res, nil
}

func extractObject(res *ExtractResult, obj models.Value, prefix string, arrayCap int) {
	for _, key := range obj.SortedKeys() {
		path := joinPath(prefix, key)
		v := obj.Object[key]

		switch v.Kind {
		case models.KindNull, models.KindBool, models.KindNumber, models.KindString:
			addField(res, path, v)

		case models.KindObject:
			extractObject(res, v, path, arrayCap)
			registerChild(res, path, models.ChildTableTypeNestedObject, []models.Value{v}, arrayCap)

		case models.KindArray:
			if len(v.Array) == 0 {
				continue
			}
			registerChild(res, path, classifyArray(v.Array), v.Array, arrayCap)
		}
	}
}

func addField(res *ExtractResult, path string, v models.Value) {
	field, ok := res.Fields[path]
	if !ok {
		field = models.NewFieldInfo(path)
		field.IsNested = strings.Contains(path, models.PathSeparator)
		res.Fields[path] = field
	}

	token := sqltypes.InferValue(v)
	field.AddType(token)
	if token == sqltypes.TypeNull {
		field.Required = false
	}
	if v.Kind == models.KindString && len(v.Str) > field.MaxLength {
		field.MaxLength = len(v.Str)
	}
	field.RecommendedSqlType = sqltypes.Reconcile(field.DetectedTypes)
}

// registerChild records a child-table candidate at path, sampling at most
// arrayCap occurrences. Behavior is identical regardless of how far beyond
// the cap the array extends.
func registerChild(res *ExtractResult, path string, typ models.ChildTableType, elems []models.Value, arrayCap int) {
	if len(elems) > arrayCap {
		elems = elems[:arrayCap]
	}

	rows := make([]map[string]string, 0, len(elems))
	for _, elem := range elems {
		rows = append(rows, flattenElement(elem))
	}

	res.Children[path] = &models.ChildTableCandidate{
		Path: path,
		Type: typ,
		Rows: rows,
	}
}

// flattenElement maps one array element (or nested object occurrence) to a
// flat field-name→type-token row.
func flattenElement(elem models.Value) map[string]string {
	row := make(map[string]string)
	switch elem.Kind {
	case models.KindObject:
		flattenInto(row, elem, "")
	case models.KindArray:
		// Array directly inside an array: opaque text, not normalized.
		row[elementValueField] = sqltypes.TypeNVarCharMax
	default:
		row[elementValueField] = sqltypes.InferValue(elem)
	}
	return row
}

// elementValueField names the single column of a scalar-element child table.
const elementValueField = "value"

func flattenInto(row map[string]string, obj models.Value, prefix string) {
	for _, key := range obj.SortedKeys() {
		path := joinPath(prefix, key)
		v := obj.Object[key]
		switch v.Kind {
		case models.KindObject:
			flattenInto(row, v, path)
		case models.KindArray:
			row[path] = sqltypes.TypeNVarCharMax
		default:
			row[path] = sqltypes.InferValue(v)
		}
	}
}

// classifyArray tags an array by its first sampled element: scalar elements
// make a plain value table, object elements a nested-object table, and object
// elements carrying an id-like field a join-table candidate.
func classifyArray(elems []models.Value) models.ChildTableType {
	first := elems[0]
	if first.Kind != models.KindObject {
		return models.ChildTableTypeArray
	}
	for key := range first.Object {
		if isIDLike(key) {
			return models.ChildTableTypeManyToMany
		}
	}
	return models.ChildTableTypeNestedObject
}

func isIDLike(name string) bool {
	lower := strings.ToLower(name)
	return lower == "id" || lower == "_id" || strings.HasSuffix(lower, "_id") || strings.HasSuffix(name, "Id")
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + models.PathSeparator + name
}
