package qs

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
)

// Params is a flat map of query parameters. Values are string, int, bool or
// []string. Operations in this package never modify a Params in place.
type Params map[string]any

// Clone returns a shallow copy, []string values are copied as well.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if ss, ok := v.([]string); ok {
			v = slices.Clone(ss)
		}
		out[k] = v
	}
	return out
}

// Merge returns a new Params with patch applied over base. A nil value in
// patch removes the key.
func Merge(base, patch Params) Params {
	out := base.Clone()
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Without returns a copy of p without the keys whose values equal the ones
// in defaults.
func (p Params) Without(defaults Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		if d, ok := defaults[k]; ok && equalValues(d, v) {
			continue
		}
		out[k] = v
	}
	return out
}

func (p Params) String(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		if len(v) == 0 {
			return ""
		}
		return v[len(v)-1]
	default:
		return formatScalar(v)
	}
}

// Int returns the integer value of key or fallback when the key is absent or
// not an integer.
func (p Params) Int(key string, fallback int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func (p Params) Bool(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case nil:
		return nil
	case []string:
		return slices.Clone(v)
	default:
		return []string{formatScalar(v)}
	}
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func equalValues(a, b any) bool {
	if formatScalarOK(a) && formatScalarOK(b) {
		return formatScalar(a) == formatScalar(b)
	}
	return reflect.DeepEqual(a, b)
}

func formatScalarOK(v any) bool {
	switch v.(type) {
	case string, int, int64, bool:
		return true
	}
	return false
}
