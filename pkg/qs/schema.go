package qs

import (
	"strconv"
)

// FieldType declares how a query-string value is decoded.
type FieldType int

const (
	String FieldType = iota
	Int
	Bool
	Strings
)

func (t FieldType) String() string {
	switch t {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Strings:
		return "strings"
	default:
		return "string"
	}
}

// Schema maps a parameter key to its declared type. Keys missing from the
// schema decode as String.
type Schema map[string]FieldType

// IntSchema builds a schema where every given field is an Int.
func IntSchema(fields ...string) Schema {
	s := make(Schema, len(fields))
	for _, f := range fields {
		s[f] = Int
	}
	return s
}

func (s Schema) typeOf(key string) FieldType {
	if s == nil {
		return String
	}
	return s[key]
}

// With returns a copy of the schema with the given fields set to t.
func (s Schema) With(t FieldType, fields ...string) Schema {
	out := make(Schema, len(s)+len(fields))
	for k, v := range s {
		out[k] = v
	}
	for _, f := range fields {
		out[f] = t
	}
	return out
}

func (s Schema) prefixed(namespace string) Schema {
	if namespace == "" {
		return s
	}
	out := make(Schema, len(s))
	for k, v := range s {
		out[namespace+"."+k] = v
	}
	return out
}

// parse converts a raw value under t, ok is false when the value does not
// parse.
func (t FieldType) parse(raw string) (any, bool) {
	switch t {
	case Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false
		}
		return n, true
	case Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		return raw, true
	}
}
