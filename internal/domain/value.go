package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ReservedMarker is stripped from every mapping key when a tree is decoded.
// Producers such as fastjson-style serializers emit keys like "@type".
const ReservedMarker = "@"

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindMapping
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindMapping:
		return "mapping"
	case KindList:
		return "list"
	default:
		return "null"
	}
}

// Value is a node of a generic error tree.
type Value struct {
	kind   Kind
	str    string
	num    float64
	flag   bool
	fields map[string]Value
	items  []Value
}

func NullValue() Value { return Value{} }

func StringValue(s string) Value { return Value{kind: KindString, str: s} }

func NumberValue(n float64) Value { return Value{kind: KindNumber, num: n} }

func BoolValue(b bool) Value { return Value{kind: KindBool, flag: b} }

// MappingValue wraps fields. A nil map yields an empty mapping.
func MappingValue(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindMapping, fields: fields}
}

func ListValue(items []Value) Value { return Value{kind: KindList, items: items} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the string payload, or "" for any other kind.
func (v Value) Text() string {
	if v.kind != KindString {
		return ""
	}
	return v.str
}

func (v Value) Number() float64 { return v.num }

func (v Value) Bool() bool { return v.flag }

// Field looks up key in a mapping. Non-mappings have no fields.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	f, ok := v.fields[key]
	return f, ok
}

// Keys returns the mapping keys in sorted order.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Value) Items() []Value { return v.items }

// Interface converts the tree into plain Go values suitable for JSON encoding.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.flag
	case KindMapping:
		m := make(map[string]any, len(v.fields))
		for k, f := range v.fields {
			m[k] = f.Interface()
		}
		return m
	case KindList:
		l := make([]any, len(v.items))
		for i, item := range v.items {
			l[i] = item.Interface()
		}
		return l
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := DecodeValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// DecodeValue parses JSON into a Value, stripping ReservedMarker from keys.
// When a stripped key collides with a key that never carried the marker,
// the unmarked key keeps its value.
func DecodeValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return FromInterface(raw), nil
}

// FromInterface converts decoded JSON (maps, slices, primitives) into a Value.
func FromInterface(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return NullValue()
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return NumberValue(f)
		}
		return StringValue(t.String())
	case float64:
		return NumberValue(t)
	case int:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case map[string]any:
		return MappingValue(stripKeys(t))
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromInterface(item)
		}
		return ListValue(items)
	case Value:
		return t
	default:
		return StringValue(fmt.Sprint(t))
	}
}

func stripKeys(raw map[string]any) map[string]Value {
	fields := make(map[string]Value, len(raw))
	var marked []string
	for k, item := range raw {
		if strings.Contains(k, ReservedMarker) {
			marked = append(marked, k)
			continue
		}
		fields[k] = FromInterface(item)
	}

	sort.Strings(marked)
	for _, k := range marked {
		clean := strings.ReplaceAll(k, ReservedMarker, "")
		if _, exists := fields[clean]; exists {
			continue
		}
		fields[clean] = FromInterface(raw[k])
	}
	return fields
}
