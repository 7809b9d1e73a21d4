package ddl

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

type Kind string

const (
	Any    Kind = "any"
	Bool   Kind = "bool"
	Int    Kind = "int"
	Float  Kind = "float"
	Number Kind = "number"
	String Kind = "string"
	Array  Kind = "array"
	Object Kind = "object"
	Record Kind = "record"
)

// FieldType is the declared type of a field. Table is only set for records.
type FieldType struct {
	Kind  Kind
	Table string
}

func (t FieldType) String() string {
	if t.Kind == Record && t.Table != "" {
		return "record(" + t.Table + ")"
	}
	return string(t.Kind)
}

// ParseType parses a type name such as "int" or "record(small)". Whitespace
// must already be removed.
func ParseType(s string) (FieldType, error) {
	lower := strings.ToLower(s)

	if strings.HasPrefix(lower, "record") {
		rest := s[len("record"):]
		if rest == "" {
			return FieldType{Kind: Record}, nil
		}
		if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") || len(rest) < 3 {
			return FieldType{}, errors.Wrapf(ErrUnknownType, "%q", s)
		}
		return FieldType{Kind: Record, Table: rest[1 : len(rest)-1]}, nil
	}

	switch k := Kind(lower); k {
	case Any, Bool, Int, Float, Number, String, Array, Object:
		return FieldType{Kind: k}, nil
	}
	return FieldType{}, errors.Wrapf(ErrUnknownType, "%q", s)
}

// Accepts reports whether v is a valid value for the type. Null values are
// accepted by every type.
func (t FieldType) Accepts(v gjson.Result) bool {
	if v.Type == gjson.Null {
		return true
	}

	switch t.Kind {
	case Any:
		return true
	case Bool:
		return v.Type == gjson.True || v.Type == gjson.False
	case Int:
		return v.Type == gjson.Number && isIntegral(v)
	case Float, Number:
		return v.Type == gjson.Number
	case String:
		return v.Type == gjson.String
	case Array:
		return v.IsArray()
	case Object:
		return v.IsObject()
	case Record:
		if v.Type != gjson.String {
			return false
		}
		tb, key, ok := strings.Cut(v.Str, ":")
		if !ok || tb == "" || key == "" {
			return false
		}
		return t.Table == "" || tb == t.Table
	}
	return false
}

func isIntegral(v gjson.Result) bool {
	if strings.ContainsAny(v.Raw, ".eE") {
		return false
	}
	return v.Num == math.Trunc(v.Num)
}
