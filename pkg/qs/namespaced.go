package qs

import (
	"net/url"
	"strings"
)

// Config declares the URL state of one list widget.
type Config struct {
	Namespace string
	Defaults  Params
	Schema    Schema
}

// GetQSConfig builds a Config whose integer fields default to page and
// page_size.
func GetQSConfig(namespace string, defaults Params, intFields ...string) Config {
	if len(intFields) == 0 {
		intFields = []string{"page", "page_size"}
	}
	return NewConfig(namespace, defaults, IntSchema(intFields...))
}

func NewConfig(namespace string, defaults Params, schema Schema) Config {
	if defaults == nil {
		defaults = Params{}
	}
	if schema == nil {
		schema = Schema{}
	}
	return Config{
		Namespace: namespace,
		Defaults:  defaults.Clone(),
		Schema:    schema,
	}
}

func (c Config) key(k string) string {
	if c.Namespace == "" {
		return k
	}
	return c.Namespace + "." + k
}

func (c Config) owns(key string) (string, bool) {
	if c.Namespace == "" {
		return key, true
	}
	return strings.CutPrefix(key, c.Namespace+".")
}

// ParseNamespaced decodes the keys of this namespace from search and merges
// them over the defaults.
func ParseNamespaced(config Config, search string) Params {
	decoded := Decode(search, config.Schema.prefixed(config.Namespace))
	own := Params{}
	for k, v := range decoded {
		if name, ok := config.owns(k); ok && name != "" {
			own[name] = v
		}
	}
	return Merge(config.Defaults, own)
}

// EncodeNonDefault encodes params under the namespace, omitting values equal
// to the defaults.
func EncodeNonDefault(config Config, params Params) string {
	return Encode(namespace(config, params.Without(config.Defaults)))
}

// UpdateNamespaced merges patch into the namespaced params of search and
// returns the new query string without the leading '?'. Keys of other
// namespaces are left untouched. A nil value in patch removes the key.
func UpdateNamespaced(config Config, search string, patch Params) string {
	current := ParseNamespaced(config, search)
	next := Merge(current, patch).Without(config.Defaults)

	all := foreign(config, search)
	for k, v := range namespace(config, next) {
		all[k] = v
	}
	return Encode(all)
}

// ReplaceParams is UpdateNamespaced applied to a URL, it returns the new
// location as path or path?query.
func ReplaceParams(config Config, location *url.URL, patch Params) string {
	if location == nil {
		location = &url.URL{}
	}
	q := UpdateNamespaced(config, location.RawQuery, patch)
	if q == "" {
		return location.Path
	}
	return location.Path + "?" + q
}

func namespace(config Config, params Params) Params {
	out := make(Params, len(params))
	for k, v := range params {
		out[config.key(k)] = v
	}
	return out
}

// foreign collects every key not owned by config, keeping repeated values.
func foreign(config Config, search string) Params {
	out := Params{}
	if config.Namespace == "" {
		return out
	}
	for k, v := range Decode(search, foreignSchema(search)) {
		if _, ok := config.owns(k); ok {
			continue
		}
		out[k] = v
	}
	return out
}

func foreignSchema(search string) Schema {
	s := Schema{}
	for _, pair := range strings.Split(strings.TrimPrefix(search, "?"), "&") {
		rawKey, _, _ := strings.Cut(pair, "=")
		if key, err := url.QueryUnescape(rawKey); err == nil && key != "" {
			s[key] = Strings
		}
	}
	return s
}
