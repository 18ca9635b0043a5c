// Package qs encodes list state into URL query strings. Every list widget
// owns a namespace so several widgets can share one URL.
package qs

import (
	"net/url"
	"sort"
	"strings"
)

// Encode renders params as a query string with keys sorted lexicographically.
// Nil values are skipped and []string values produce one pair per element.
func Encode(params Params) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := params[k].(type) {
		case []string:
			for _, s := range v {
				parts = append(parts, encodePair(k, s))
			}
		default:
			parts = append(parts, encodePair(k, formatScalar(v)))
		}
	}
	return strings.Join(parts, "&")
}

func encodePair(key, value string) string {
	return escape(key) + "=" + escape(value)
}

// escape matches encodeURIComponent: spaces become %20 rather than '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Decode parses a query string under schema. Values that do not parse under
// their declared type are skipped; a repeated scalar key keeps its last valid
// value.
func Decode(query string, schema Schema) Params {
	out := Params{}
	query = strings.TrimPrefix(query, "?")
	if query == "" {
		return out
	}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil || key == "" {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}

		t := schema.typeOf(key)
		if t == Strings {
			prev, _ := out[key].([]string)
			out[key] = append(prev, value)
			continue
		}
		parsed, ok := t.parse(value)
		if !ok {
			continue
		}
		out[key] = parsed
	}
	return out
}
