// Package nested models the JSON-like comment blob attached to mobility events
// and provides a depth-first key search over it.
//
// A Value is a tagged variant decided once at parse time: scalars (null, bool,
// number, string), opaque lists, and ordered mappings. Mappings keep entries in
// source order so that traversal order is well defined.
package nested

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMapping:
		return "mapping"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable node of a comment tree. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	text string // string payload or number literal
	list []Value
	m    Mapping
}

// Null returns the null scalar.
func Null() Value { return Value{} }

// Bool wraps a boolean scalar.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String wraps a string scalar.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Int wraps an integral number.
func Int(n int64) Value { return Value{kind: KindNumber, text: strconv.FormatInt(n, 10)} }

// Float wraps a floating point number. NaN and infinities have no JSON form
// and become null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: KindNumber, text: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Number wraps a number literal as it appeared in the source text. A literal
// that is not a JSON number becomes null so that Encode always emits JSON.
func Number(literal string) Value {
	if !isNumberLiteral(literal) {
		return Null()
	}
	return Value{kind: KindNumber, text: literal}
}

// isNumberLiteral reports whether s is exactly one JSON number token.
func isNumberLiteral(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	return json.Valid([]byte(s))
}

// List wraps a sequence of values. Lists are opaque to Find.
func List(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindList, list: cp}
}

// Map wraps a mapping.
func Map(m Mapping) Value { return Value{kind: KindMapping, m: m} }

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null scalar.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsScalar reports whether v is null, bool, number or string.
func (v Value) IsScalar() bool { return v.kind <= KindString }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.text, v.kind == KindString }

// AsFloat returns the numeric payload as float64.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Literal returns the number literal for numbers and the raw payload for strings.
func (v Value) Literal() string { return v.text }

// AsMapping returns the mapping payload.
func (v Value) AsMapping() (Mapping, bool) { return v.m, v.kind == KindMapping }

// Elements returns a copy of the list payload.
func (v Value) Elements() []Value {
	if v.kind != KindList {
		return nil
	}
	cp := make([]Value, len(v.list))
	copy(cp, v.list)
	return cp
}

// String renders v as compact JSON.
func (v Value) String() string {
	var buf []byte
	buf = appendValue(buf, v)
	return string(buf)
}

// MarshalJSON implements json.Marshaler, preserving mapping order.
func (v Value) MarshalJSON() ([]byte, error) {
	return appendValue(nil, v), nil
}

var _ json.Marshaler = Value{}

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// Mapping is an ordered, immutable set of entries. Duplicate keys are kept in
// source order; Get resolves them to the last occurrence.
type Mapping struct {
	entries []Entry
}

// NewMapping builds a mapping from entries in the given order.
func NewMapping(entries ...Entry) Mapping {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return Mapping{entries: cp}
}

// Len returns the number of entries.
func (m Mapping) Len() int { return len(m.entries) }

// At returns the i-th entry.
func (m Mapping) At(i int) Entry { return m.entries[i] }

// Entries returns a copy of the entries in order.
func (m Mapping) Entries() []Entry {
	cp := make([]Entry, len(m.entries))
	copy(cp, m.entries)
	return cp
}

// Get returns the value of the last direct entry named key.
func (m Mapping) Get(key string) (Value, bool) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Key == key {
			return m.entries[i].Value, true
		}
	}
	return Value{}, false
}

// Value wraps m as a Value.
func (m Mapping) Value() Value { return Map(m) }

// MarshalJSON implements json.Marshaler, preserving entry order.
func (m Mapping) MarshalJSON() ([]byte, error) {
	return appendMapping(nil, m), nil
}

// Equal reports whether a and b are structurally equal. Numbers compare by
// numeric value when both literals parse, otherwise by literal text.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.text == b.text
	case KindNumber:
		fa, okA := a.AsFloat()
		fb, okB := b.AsFloat()
		if okA && okB {
			return fa == fb
		}
		return a.text == b.text
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		return EqualMappings(a.m, b.m)
	}
	return false
}

// EqualMappings compares two mappings entry by entry, in order.
func EqualMappings(a, b Mapping) bool {
	if len(a.entries) != len(b.entries) {
		return false
	}
	for i := range a.entries {
		if a.entries[i].Key != b.entries[i].Key || !Equal(a.entries[i].Value, b.entries[i].Value) {
			return false
		}
	}
	return true
}
