package qs

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Run("sorts keys and escapes values", func(t *testing.T) {
		got := Encode(Params{"page_size": 5, "name": "foo bar", "or__id": []string{"1", "2"}, "active": true})
		assert.Equal(t, "active=true&name=foo%20bar&or__id=1&or__id=2&page_size=5", got)
	})

	t.Run("empty map", func(t *testing.T) {
		assert.Empty(t, Encode(nil))
		assert.Empty(t, Encode(Params{}))
	})

	t.Run("skips nil", func(t *testing.T) {
		assert.Equal(t, "a=1", Encode(Params{"a": "1", "b": nil}))
	})

	t.Run("escapes reserved characters", func(t *testing.T) {
		assert.Equal(t, "q=a%26b%3Dc", Encode(Params{"q": "a&b=c"}))
	})
}

func TestDecode(t *testing.T) {
	schema := Schema{"page": Int, "page_size": Int, "is_superuser": Bool, "or__id": Strings}

	got := Decode("?page=2&page_size=10&name=foo%20bar&is_superuser=true&or__id=1&or__id=3", schema)
	assert.Equal(t, Params{
		"page":         2,
		"page_size":    10,
		"name":         "foo bar",
		"is_superuser": true,
		"or__id":       []string{"1", "3"},
	}, got)

	assert.Equal(t, Params{}, Decode("", schema))
	assert.Equal(t, Params{"name": "x"}, Decode("page=abc&name=x", schema), "invalid ints are dropped")
	assert.Equal(t, Params{"flag": ""}, Decode("flag", nil))

	t.Run("repeated scalar keeps the last valid value", func(t *testing.T) {
		assert.Equal(t, Params{"page": 2}, Decode("page=2&page=x", schema))
		assert.Equal(t, Params{"page": 3}, Decode("page=x&page=3", schema))
		assert.Equal(t, Params{"page": 4}, Decode("page=2&page=4", schema))
	})
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	cases := []string{
		"a=1&b=2",
		"name=foo%20bar&page=3",
		"order_by=-name&page_size=20",
		"or__id=1&or__id=2&search=x%26y",
	}
	schema := Schema{"page": Int, "page_size": Int, "or__id": Strings}
	for _, s := range cases {
		assert.Equal(t, s, Encode(Decode(s, schema)), s)
	}
	assert.Equal(t, "a=1&b=2", Encode(Decode("b=2&a=1", schema)), "re-encoding sorts keys")
}

func TestGetQSConfig(t *testing.T) {
	c := GetQSConfig("team", Params{"page": 1, "page_size": 20, "order_by": "name"})
	assert.Equal(t, "team", c.Namespace)
	assert.Equal(t, Int, c.Schema["page"])
	assert.Equal(t, Int, c.Schema["page_size"])
	assert.Equal(t, String, c.Schema["order_by"])

	c = GetQSConfig("host", nil, "id")
	assert.Equal(t, Int, c.Schema["id"])
	assert.Equal(t, String, c.Schema["page"])
	assert.NotNil(t, c.Defaults)
}

func TestParseNamespaced(t *testing.T) {
	config := GetQSConfig("item", Params{"page": 1, "page_size": 5, "order_by": "name"})

	t.Run("defaults only", func(t *testing.T) {
		assert.Equal(t, Params{"page": 1, "page_size": 5, "order_by": "name"}, ParseNamespaced(config, ""))
	})

	t.Run("namespaced values win", func(t *testing.T) {
		got := ParseNamespaced(config, "?item.page=3&item.order_by=-id&other.page=9&unrelated=1")
		assert.Equal(t, Params{"page": 3, "page_size": 5, "order_by": "-id"}, got)
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		got := ParseNamespaced(config, "item.page=nope&item.page_size=10")
		assert.Equal(t, Params{"page": 1, "page_size": 10, "order_by": "name"}, got)
	})

	t.Run("always contains every default key", func(t *testing.T) {
		for _, search := range []string{"", "?", "item.", "item.=1", "x=1&item.name=a", "%zz=1"} {
			got := ParseNamespaced(config, search)
			for k := range config.Defaults {
				assert.Contains(t, got, k, search)
			}
		}
	})

	t.Run("empty namespace owns every key", func(t *testing.T) {
		c := GetQSConfig("", Params{"page": 1})
		assert.Equal(t, Params{"page": 2, "name": "a"}, ParseNamespaced(c, "page=2&name=a"))
	})
}

func TestUpdateNamespaced(t *testing.T) {
	config := GetQSConfig("item", Params{"page": 1, "page_size": 5})

	t.Run("sort from empty search", func(t *testing.T) {
		got := UpdateNamespaced(config, "", Params{"order_by": "-name", "page": nil})
		assert.Equal(t, "item.order_by=-name", got)
	})

	t.Run("defaults are omitted", func(t *testing.T) {
		got := UpdateNamespaced(config, "?item.page=4", Params{"page": 1})
		assert.Empty(t, got)
	})

	t.Run("nil deletes", func(t *testing.T) {
		got := UpdateNamespaced(config, "item.name=foo&item.page=2", Params{"name": nil})
		assert.Equal(t, "item.page=2", got)
	})

	t.Run("foreign namespaces are preserved", func(t *testing.T) {
		search := "?host.page=3&host.order_by=name&item.page=2&tag=a&tag=b"
		got := UpdateNamespaced(config, search, Params{"page": 7, "page_size": 10})
		parsed, err := url.ParseQuery(got)
		require.NoError(t, err)
		assert.Equal(t, []string{"3"}, parsed["host.page"])
		assert.Equal(t, []string{"name"}, parsed["host.order_by"])
		assert.Equal(t, []string{"a", "b"}, parsed["tag"])
		assert.Equal(t, []string{"7"}, parsed["item.page"])
		assert.Equal(t, []string{"10"}, parsed["item.page_size"])
		assert.Equal(t, "host.order_by=name&host.page=3&item.page=7&item.page_size=10&tag=a&tag=b", got)
	})

	t.Run("does not mutate inputs", func(t *testing.T) {
		patch := Params{"page": 2}
		_ = UpdateNamespaced(config, "", patch)
		assert.Equal(t, Params{"page": 2}, patch)
		assert.Equal(t, Params{"page": 1, "page_size": 5}, config.Defaults)
	})
}

func TestReplaceParams(t *testing.T) {
	config := GetQSConfig("item", Params{"page": 1, "page_size": 5})
	loc, err := url.Parse("/teams?item.page=3")
	require.NoError(t, err)

	assert.Equal(t, "/teams", ReplaceParams(config, loc, Params{"page": nil}))
	assert.Equal(t, "/teams?item.page=2&item.page_size=10", ReplaceParams(config, loc, Params{"page": 2, "page_size": 10}))
}

func TestEncodeNonDefault(t *testing.T) {
	config := GetQSConfig("job", Params{"page": 1, "page_size": 20})
	assert.Equal(t, "job.name=x", EncodeNonDefault(config, Params{"page": 1, "page_size": 20, "name": "x"}))
}

func TestParamsAccessors(t *testing.T) {
	p := Params{"page": 2, "raw": "7", "flag": true, "name": "x", "ids": []string{"1", "2"}}
	assert.Equal(t, 2, p.Int("page", 1))
	assert.Equal(t, 7, p.Int("raw", 1))
	assert.Equal(t, 1, p.Int("missing", 1))
	assert.True(t, p.Bool("flag"))
	assert.Equal(t, "2", p.String("page"))
	assert.Equal(t, "2", p.String("ids"))
	assert.Equal(t, []string{"x"}, p.Strings("name"))

	clone := p.Clone()
	clone["ids"].([]string)[0] = "9"
	assert.Equal(t, []string{"1", "2"}, p["ids"])
}
