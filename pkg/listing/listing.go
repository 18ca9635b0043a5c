// Package listing implements the paginated list contract shared by every
// list screen: sort, page and filter state lives in the namespaced query
// string, the screen fetches, and the list renders toolbar, items and
// pagination from what it is given.
package listing

import (
	"net/url"
	"strings"

	"github.com/a-h/templ"
	icons "github.com/iota-uz/icons/phosphor"

	"github.com/automationhub/console/pkg/qs"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// PerPageOptions are the page sizes offered by the pagination control.
var PerPageOptions = []int{5, 10, 20, 50}

// Item is a record shown in a list.
type Item interface {
	GetID() int
	GetURL() string
	GetName() string
}

type Column struct {
	Name     string
	Key      string
	Sortable bool
	Numeric  bool
}

type SortOrder string

const (
	Ascending  SortOrder = "ascending"
	Descending SortOrder = "descending"
)

func (o SortOrder) Toggle() SortOrder {
	if o == Descending {
		return Ascending
	}
	return Descending
}

// Page is one fetched page of a list.
type Page[T any] struct {
	Items []T
	Count int
}

// State is the list state decoded from the URL.
type State struct {
	Params    qs.Params
	OrderBy   string
	SortOrder SortOrder
	Page      int
	PageSize  int
}

// Derive decodes the namespaced list state from search. A leading '-' on
// order_by means descending.
func Derive(config qs.Config, search string) State {
	return FromParams(qs.ParseNamespaced(config, search))
}

// FromParams derives the list state from already decoded params.
func FromParams(params qs.Params) State {
	orderBy := params.String("order_by")
	order := Ascending
	if strings.HasPrefix(orderBy, "-") {
		order = Descending
		orderBy = orderBy[1:]
	}
	page := params.Int("page", DefaultPage)
	if page < 1 {
		page = DefaultPage
	}
	size := params.Int("page_size", DefaultPageSize)
	if size < 1 {
		size = DefaultPageSize
	}
	return State{
		Params:    params,
		OrderBy:   orderBy,
		SortOrder: order,
		Page:      page,
		PageSize:  size,
	}
}

// PageCount is ceil(itemCount / pageSize).
func PageCount(itemCount, pageSize int) int {
	if pageSize < 1 || itemCount <= 0 {
		return 0
	}
	return (itemCount + pageSize - 1) / pageSize
}

// OrderByValue encodes a sort request as an order_by value.
func OrderByValue(key string, order SortOrder) string {
	if order == Ascending {
		return key
	}
	return "-" + key
}

// SortLocation returns the location after sorting by key, page is reset.
func SortLocation(location *url.URL, config qs.Config, key string, order SortOrder) string {
	return qs.ReplaceParams(config, location, qs.Params{
		"order_by": OrderByValue(key, order),
		"page":     nil,
	})
}

// PageLocation returns the location showing page with pageSize items.
func PageLocation(location *url.URL, config qs.Config, page, pageSize int) string {
	return qs.ReplaceParams(config, location, qs.Params{
		"page":      page,
		"page_size": pageSize,
	})
}

// SearchLocation sets filter key to value, or removes it when value is
// empty, and returns to the first page.
func SearchLocation(location *url.URL, config qs.Config, key, value string) string {
	patch := qs.Params{"page": nil}
	if strings.TrimSpace(value) == "" {
		patch[key] = nil
	} else {
		patch[key] = strings.TrimSpace(value)
	}
	return qs.ReplaceParams(config, location, patch)
}

// NextSortOrder is the order a click on column key requests: the reverse of
// the current order when key is already the sort column, ascending otherwise.
func NextSortOrder(state State, key string) SortOrder {
	if state.OrderBy == key {
		return state.SortOrder.Toggle()
	}
	return Ascending
}

// SortIcon picks the icon for a column sorted in order.
func SortIcon(c Column, order SortOrder) string {
	kind := "alpha"
	if c.Numeric {
		kind = "numeric"
	}
	if order == Descending {
		return "sort-" + kind + "-down-alt"
	}
	return "sort-" + kind + "-down"
}

// SortGlyph is the phosphor icon drawn next to a column sorted in order.
func SortGlyph(order SortOrder) templ.Component {
	if order == Descending {
		return icons.SortDescending(icons.Props{Size: "16"})
	}
	return icons.SortAscending(icons.Props{Size: "16"})
}

// Article returns the English indefinite article for noun.
func Article(noun string) string {
	n := strings.ToLower(strings.TrimSpace(noun))
	if n == "" {
		return "a"
	}
	switch n[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an"
	}
	return "a"
}
