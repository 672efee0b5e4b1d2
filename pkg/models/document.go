package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ValueKind identifies the shape of a single node in a sampled document.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

// String returns a human-readable name for the kind.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is one node of a parsed document tree. Exactly one of the payload
// fields is meaningful, selected by Kind. Numbers keep their raw JSON text so
// fractional digits survive for decimal scale inference.
type Value struct {
	Kind   ValueKind
	Str    string
	Num    json.Number
	Bool   bool
	Object map[string]Value
	Array  []Value
}

// Null returns a null value.
func Null() Value { return Value{Kind: KindNull} }

// Bool returns a boolean value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// StringValue returns a string value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// NumberValue returns a numeric value from raw JSON number text.
func NumberValue(n string) Value { return Value{Kind: KindNumber, Num: json.Number(n)} }

// ObjectValue returns an object value.
func ObjectValue(props map[string]Value) Value { return Value{Kind: KindObject, Object: props} }

// ArrayValue returns an array value.
func ArrayValue(elems ...Value) Value { return Value{Kind: KindArray, Array: elems} }

// SortedKeys returns the object's property names in lexicographic order.
// Deterministic traversal depends on this; map iteration order must never
// leak into extraction output.
func (v Value) SortedKeys() []string {
	if v.Kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.Object))
	for k := range v.Object {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DecodeDocument parses one raw JSON document into a Value tree.
// Numbers are preserved verbatim via json.Number.
func DecodeDocument(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return Value{}, fmt.Errorf("decode document: %w", err)
	}
	return fromAny(root), nil
}

func fromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return BoolValue(t)
	case json.Number:
		return Value{Kind: KindNumber, Num: t}
	case string:
		return StringValue(t)
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = fromAny(e)
		}
		return Value{Kind: KindArray, Array: elems}
	case map[string]any:
		props := make(map[string]Value, len(t))
		for k, e := range t {
			props[k] = fromAny(e)
		}
		return Value{Kind: KindObject, Object: props}
	default:
		// json.Decoder with UseNumber never produces other types; keep the
		// fallback total so a hand-built tree cannot panic the extractor.
		return StringValue(fmt.Sprintf("%v", t))
	}
}

// Serialize renders the value back to compact JSON. Used when nested arrays
// inside array elements are stored as opaque text instead of being normalized.
func (v Value) Serialize() string {
	var buf bytes.Buffer
	v.writeJSON(&buf)
	return buf.String()
}

func (v Value) writeJSON(buf *bytes.Buffer) {
	switch v.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(v.Num.String())
	case KindString:
		b, _ := json.Marshal(v.Str)
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.Array {
			if i > 0 {
				buf.WriteByte(',')
			}
			e.writeJSON(buf)
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range v.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			v.Object[k].writeJSON(buf)
		}
		buf.WriteByte('}')
	}
}
