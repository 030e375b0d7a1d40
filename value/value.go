// Package value provides the tagged union stored in variable store slots.
//
// A Value is a type tag plus a raw 64-bit payload. The payload depends on
// the tag:
//
//	int       int64 bits
//	float     float64 bits
//	string    interned string id (0 until the value is written to a store)
//	object    node id of a composite value
//	entity    entity id
//	function  function id
//
// String values also carry their text, so they can be built and compared
// without a store. Values have no ownership logic of their own: whoever
// writes an object reference into a slot is responsible for its reference
// count.
//
// For example:
//
//	switch v.Type() {
//	case value.INT:
//		n, _ := v.AsInt()
//	case value.STRING:
//		s, _ := v.AsString()
//	}
package value

import (
	"fmt"
	"math"
	"strconv"
)

// Type of a value as a string.
type Type string

// Type constants
const (
	NONE     Type = "none"
	INT      Type = "int"
	FLOAT    Type = "float"
	STRING   Type = "string"
	OBJECT   Type = "object"
	ENTITY   Type = "entity"
	FUNCTION Type = "function"
)

// Value is a dynamically typed script value.
type Value struct {
	typ Type
	raw uint64
	str string
}

// None is the empty value. The zero Value is also none.
var None = Value{typ: NONE}

func Int(i int64) Value {
	return Value{typ: INT, raw: uint64(i)}
}

func Float(f float64) Value {
	return Value{typ: FLOAT, raw: math.Float64bits(f)}
}

func String(s string) Value {
	return Value{typ: STRING, str: s}
}

// Object returns a reference to the composite node with the given id.
func Object(node uint32) Value {
	return Value{typ: OBJECT, raw: uint64(node)}
}

func Entity(id uint32) Value {
	return Value{typ: ENTITY, raw: uint64(id)}
}

func Function(id uint32) Value {
	return Value{typ: FUNCTION, raw: uint64(id)}
}

// FromRaw builds a value from a slot's tag and payload. String values built
// this way carry only their interned id; use WithText to attach the text.
func FromRaw(t Type, raw uint64) Value {
	if t == "" {
		t = NONE
	}
	return Value{typ: t, raw: raw}
}

// WithText returns a copy of a string value carrying text s and interned id
// raw.
func (v Value) WithText(raw uint64, s string) Value {
	v.raw = raw
	v.str = s
	return v
}

// FromAny converts a native Go value to a Value.
func FromAny(obj any) (Value, error) {
	switch obj := obj.(type) {
	case nil:
		return None, nil
	case Value:
		return obj, nil
	case int:
		return Int(int64(obj)), nil
	case int32:
		return Int(int64(obj)), nil
	case int64:
		return Int(obj), nil
	case uint8:
		return Int(int64(obj)), nil
	case uint16:
		return Int(int64(obj)), nil
	case uint32:
		return Int(int64(obj)), nil
	case float32:
		return Float(float64(obj)), nil
	case float64:
		return Float(obj), nil
	case string:
		return String(obj), nil
	case bool:
		if obj {
			return Int(1), nil
		}
		return Int(0), nil
	default:
		return None, fmt.Errorf("type error: unsupported go type %T", obj)
	}
}

// Type returns the value's tag. The zero Value reports NONE.
func (v Value) Type() Type {
	if v.typ == "" {
		return NONE
	}
	return v.typ
}

// Raw returns the payload bits.
func (v Value) Raw() uint64 {
	return v.raw
}

func (v Value) IsNone() bool     { return v.Type() == NONE }
func (v Value) IsInt() bool      { return v.typ == INT }
func (v Value) IsFloat() bool    { return v.typ == FLOAT }
func (v Value) IsString() bool   { return v.typ == STRING }
func (v Value) IsObject() bool   { return v.typ == OBJECT }
func (v Value) IsEntity() bool   { return v.typ == ENTITY }
func (v Value) IsFunction() bool { return v.typ == FUNCTION }

// IsRef reports whether the payload is a reference-counted node.
func (v Value) IsRef() bool {
	return IsRefType(v.typ)
}

// IsRefType reports whether payloads tagged t are reference-counted nodes.
func IsRefType(t Type) bool {
	return t == OBJECT
}

func (v Value) AsInt() (int64, bool) {
	if v.typ != INT {
		return 0, false
	}
	return int64(v.raw), true
}

// AsNumber returns int and float values as a float64.
func (v Value) AsNumber() (float64, bool) {
	switch v.typ {
	case INT:
		return float64(int64(v.raw)), true
	case FLOAT:
		return math.Float64frombits(v.raw), true
	}
	return 0, false
}

func (v Value) AsFloat() (float64, bool) {
	if v.typ != FLOAT {
		return 0, false
	}
	return math.Float64frombits(v.raw), true
}

func (v Value) AsString() (string, bool) {
	if v.typ != STRING {
		return "", false
	}
	return v.str, true
}

func (v Value) AsObject() (uint32, bool) {
	if v.typ != OBJECT {
		return 0, false
	}
	return uint32(v.raw), true
}

func (v Value) AsEntity() (uint32, bool) {
	if v.typ != ENTITY {
		return 0, false
	}
	return uint32(v.raw), true
}

func (v Value) AsFunction() (uint32, bool) {
	if v.typ != FUNCTION {
		return 0, false
	}
	return uint32(v.raw), true
}

// Interface converts the value to a native Go value.
func (v Value) Interface() any {
	switch v.typ {
	case INT:
		return int64(v.raw)
	case FLOAT:
		return math.Float64frombits(v.raw)
	case STRING:
		return v.str
	case OBJECT, ENTITY, FUNCTION:
		return uint32(v.raw)
	default:
		return nil
	}
}

// Equals compares by tag and payload. Strings compare by text, since two
// values may hold the same text before and after interning.
func (v Value) Equals(other Value) bool {
	if v.Type() != other.Type() {
		return false
	}
	switch v.Type() {
	case NONE:
		return true
	case STRING:
		return v.str == other.str
	default:
		return v.raw == other.raw
	}
}

// Inspect returns a string representation of the value.
func (v Value) Inspect() string {
	switch v.Type() {
	case NONE:
		return "none"
	case INT:
		return strconv.FormatInt(int64(v.raw), 10)
	case FLOAT:
		return strconv.FormatFloat(math.Float64frombits(v.raw), 'f', -1, 64)
	case STRING:
		return strconv.Quote(v.str)
	default:
		return fmt.Sprintf("%s#%d", v.typ, uint32(v.raw))
	}
}

func (v Value) String() string {
	if v.typ == STRING {
		return v.str
	}
	return v.Inspect()
}
