package listing_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/pkg/listing"
	"github.com/automationhub/console/pkg/qs"
)

type item struct {
	ID   int
	Name string
}

func (i item) GetID() int      { return i.ID }
func (i item) GetURL() string  { return fmt.Sprintf("/items/%d", i.ID) }
func (i item) GetName() string { return i.Name }

var itemConfig = qs.GetQSConfig("item", qs.Params{
	"page":      1,
	"page_size": 5,
	"order_by":  "name",
})

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestDerive(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := listing.Derive(itemConfig, "")
		assert.Equal(t, "name", s.OrderBy)
		assert.Equal(t, listing.Ascending, s.SortOrder)
		assert.Equal(t, 1, s.Page)
		assert.Equal(t, 5, s.PageSize)
	})

	t.Run("descending", func(t *testing.T) {
		s := listing.Derive(itemConfig, "?item.order_by=-modified&item.page=3")
		assert.Equal(t, "modified", s.OrderBy)
		assert.Equal(t, listing.Descending, s.SortOrder)
		assert.Equal(t, 3, s.Page)
	})

	t.Run("invalid page falls back", func(t *testing.T) {
		s := listing.Derive(itemConfig, "?item.page=0&item.page_size=abc")
		assert.Equal(t, 1, s.Page)
		assert.Equal(t, 5, s.PageSize)
	})
}

func TestPageCount(t *testing.T) {
	cases := []struct {
		count, size, want int
	}{
		{0, 5, 0},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{101, 20, 6},
		{10, 0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, listing.PageCount(tc.count, tc.size), "count=%d size=%d", tc.count, tc.size)
	}
}

func TestSortLocation(t *testing.T) {
	t.Run("resets page", func(t *testing.T) {
		loc := mustURL(t, "/items?item.page=3&item.page_size=10")
		got := listing.SortLocation(loc, itemConfig, "name", listing.Descending)
		assert.Equal(t, "/items?item.order_by=-name&item.page_size=10", got)
	})

	t.Run("default order drops key", func(t *testing.T) {
		loc := mustURL(t, "/items?item.order_by=-name")
		assert.Equal(t, "/items", listing.SortLocation(loc, itemConfig, "name", listing.Ascending))
	})

	t.Run("keeps other namespaces", func(t *testing.T) {
		loc := mustURL(t, "/items?other.page=4")
		got := listing.SortLocation(loc, itemConfig, "modified", listing.Ascending)
		assert.Equal(t, "/items?item.order_by=modified&other.page=4", got)
	})
}

func TestPageLocation(t *testing.T) {
	loc := mustURL(t, "/items?item.order_by=-name")
	assert.Equal(t, "/items?item.order_by=-name&item.page=2", listing.PageLocation(loc, itemConfig, 2, 5))
	assert.Equal(t, "/items?item.order_by=-name&item.page_size=20", listing.PageLocation(loc, itemConfig, 1, 20))
}

func TestSearchLocation(t *testing.T) {
	loc := mustURL(t, "/items?item.page=2")
	got := listing.SearchLocation(loc, itemConfig, "name__icontains", " web ")
	assert.Equal(t, "/items?item.name__icontains=web", got)

	cleared := listing.SearchLocation(mustURL(t, got), itemConfig, "name__icontains", "")
	assert.Equal(t, "/items", cleared)
}

func TestNextSortOrder(t *testing.T) {
	s := listing.Derive(itemConfig, "")
	assert.Equal(t, listing.Descending, listing.NextSortOrder(s, "name"))
	assert.Equal(t, listing.Ascending, listing.NextSortOrder(s, "modified"))
}

func TestSortIcon(t *testing.T) {
	alpha := listing.Column{Key: "name"}
	numeric := listing.Column{Key: "id", Numeric: true}
	assert.Equal(t, "sort-alpha-down", listing.SortIcon(alpha, listing.Ascending))
	assert.Equal(t, "sort-alpha-down-alt", listing.SortIcon(alpha, listing.Descending))
	assert.Equal(t, "sort-numeric-down", listing.SortIcon(numeric, listing.Ascending))
	assert.Equal(t, "sort-numeric-down-alt", listing.SortIcon(numeric, listing.Descending))
}

func TestSortGlyph(t *testing.T) {
	asc := render(t, listing.SortGlyph(listing.Ascending))
	desc := render(t, listing.SortGlyph(listing.Descending))
	require.Equal(t, 1, asc.Find("svg").Length())
	require.Equal(t, 1, desc.Find("svg").Length())

	ascHTML, err := asc.Find("svg").Html()
	require.NoError(t, err)
	descHTML, err := desc.Find("svg").Html()
	require.NoError(t, err)
	assert.NotEqual(t, ascHTML, descHTML)
}

func TestArticle(t *testing.T) {
	assert.Equal(t, "an", listing.Article("Organization"))
	assert.Equal(t, "a", listing.Article("Team"))
	assert.Equal(t, "a", listing.Article(""))
}

func TestSequencer(t *testing.T) {
	var seq listing.Sequencer
	first := seq.Begin()
	assert.True(t, first.IsLatest())

	second := seq.Begin()
	assert.False(t, first.IsLatest())
	assert.True(t, second.IsLatest())

	assert.False(t, listing.Ticket{}.IsLatest())
}

func baseProps(items []item, count int) listing.Props[item] {
	return listing.Props[item]{
		Items:          items,
		ItemCount:      count,
		Config:         itemConfig,
		ItemName:       "Team",
		ItemNamePlural: "Teams",
		Columns: []listing.Column{
			{Name: "Name", Key: "name", Sortable: true},
			{Name: "ID", Key: "id", Sortable: true, Numeric: true},
			{Name: "Description", Key: "description"},
		},
	}
}

func TestList_Rows(t *testing.T) {
	props := baseProps([]item{{ID: 1, Name: "ops"}, {ID: 2, Name: "dev"}}, 12)
	props.Location = mustURL(t, "/teams?item.page=2")
	doc := render(t, listing.List(props))

	rows := doc.Find("li.list-row")
	require.Equal(t, 2, rows.Length())
	assert.Equal(t, "1", rows.First().AttrOr("data-id", ""))
	assert.Equal(t, "/items/1", rows.First().Find("a").AttrOr("href", ""))
	assert.Equal(t, "ops", rows.First().Find("a").Text())

	assert.Equal(t, "2 / 3", doc.Find(".page-position").Text())
	assert.Equal(t, "/teams", doc.Find("a.page-prev").AttrOr("href", ""))
	assert.Equal(t, "/teams?item.page=3", doc.Find("a.page-next").AttrOr("href", ""))
	assert.Equal(t, len(listing.PerPageOptions), doc.Find("a.per-page-option").Length())
	assert.Equal(t, "5", doc.Find("a.per-page-option.active").Text())
}

func TestList_SortMenu(t *testing.T) {
	props := baseProps([]item{{ID: 1, Name: "ops"}}, 1)
	props.Location = mustURL(t, "/teams?item.page=2")
	doc := render(t, listing.List(props))

	options := doc.Find("a.sort-option")
	require.Equal(t, 2, options.Length(), "only sortable columns are offered")

	name := doc.Find(`a[data-sort-key="name"]`)
	assert.True(t, name.HasClass("active"))
	assert.Equal(t, "/teams?item.order_by=-name", name.AttrOr("href", ""))
	assert.Equal(t, "sort-alpha-down", name.Find(".sort-icon").AttrOr("data-icon", ""))
	assert.Equal(t, 1, name.Find(".sort-icon svg").Length())

	id := doc.Find(`a[data-sort-key="id"]`)
	assert.Equal(t, "/teams?item.order_by=id", id.AttrOr("href", ""))
	assert.Equal(t, 0, id.Find(".sort-icon").Length())
}

func TestList_EmptyState(t *testing.T) {
	doc := render(t, listing.List(baseProps(nil, 0)))

	empty := doc.Find(".content-empty")
	require.Equal(t, 1, empty.Length())
	assert.Equal(t, "No Teams Found", empty.Find("h3").Text())
	assert.Equal(t, "Please add a team to populate this list", empty.Find("p").Text())
	assert.Equal(t, 0, doc.Find(".toolbar").Length())
	assert.Equal(t, 0, doc.Find(".pagination").Length())
}

func TestList_ErrorBeatsEmpty(t *testing.T) {
	props := baseProps(nil, 0)
	props.Error = errors.New("boom")
	doc := render(t, listing.List(props))

	assert.Equal(t, 1, doc.Find(".content-error").Length())
	assert.Equal(t, "boom", doc.Find(".error-message").Text())
	assert.Equal(t, 0, doc.Find(".content-empty").Length())
}

func TestList_SearchForm(t *testing.T) {
	props := baseProps([]item{{ID: 1, Name: "ops"}}, 1)
	props.Location = mustURL(t, "/teams?item.name__icontains=op")
	props.SearchAction = "/teams/search"
	props.SearchColumns = []listing.Column{{Name: "Name", Key: "name"}}
	doc := render(t, listing.List(props))

	form := doc.Find("form.search")
	require.Equal(t, 1, form.Length())
	assert.Equal(t, "/teams/search", form.AttrOr("action", ""))
	assert.Equal(t, "op", form.Find(`input[name="value"]`).AttrOr("value", ""))
	_, selected := form.Find(`option[value="name"]`).Attr("selected")
	assert.True(t, selected)
}

func TestList_CustomRowsAndControls(t *testing.T) {
	props := baseProps([]item{{ID: 7, Name: "ops"}}, 1)
	props.RenderItem = func(i item) templ.Component {
		return templ.Raw(`<li class="custom">` + strings.ToUpper(i.Name) + `</li>`)
	}
	props.AdditionalControls = []templ.Component{templ.Raw(`<a class="add" href="/teams/new">Add</a>`)}
	props.SelectAction = "/teams/select"
	doc := render(t, listing.List(props))

	assert.Equal(t, "OPS", doc.Find("li.custom").Text())
	assert.Equal(t, 0, doc.Find("li.list-row").Length())
	assert.Equal(t, 1, doc.Find(".additional-controls a.add").Length())
}

func TestDefaultRow_Selection(t *testing.T) {
	doc := render(t, listing.DefaultRow(item{ID: 3, Name: "ops"}, "/teams/select", true))

	form := doc.Find("form")
	assert.Equal(t, "/teams/select", form.AttrOr("action", ""))
	assert.Equal(t, "3", form.Find(`input[name="id"]`).AttrOr("value", ""))
	_, checked := form.Find(`input[type="checkbox"]`).Attr("checked")
	assert.True(t, checked)
}
