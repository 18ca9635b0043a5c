package listing

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/qs"
)

// SearchSuffix is appended to a column key to build its search filter.
const SearchSuffix = "__icontains"

// Props feeds the list. The list owns no fetching: callers fetch with the
// params decoded from Location and hand over the result.
type Props[T Item] struct {
	Items     []T
	ItemCount int
	Config    qs.Config
	Location  *url.URL

	// ItemName and ItemNamePlural are display names, already translated.
	ItemName       string
	ItemNamePlural string

	Columns            []Column
	SearchColumns      []Column
	RenderItem         func(item T) templ.Component
	AdditionalControls []templ.Component

	// SearchAction is where the toolbar search form posts, no search form
	// is rendered when empty.
	SearchAction string

	ShowSelectAll bool
	IsAllSelected bool
	SelectAllURL  string
	// SelectAction enables per-row checkboxes posting the row id.
	SelectAction string
	IsSelected   func(item T) bool

	Error error
}

// View is Props plus the state derived from the URL.
type View[T Item] struct {
	Props[T]
	State State
}

func NewView[T Item](p Props[T]) View[T] {
	if p.Location == nil {
		p.Location = &url.URL{}
	}
	return View[T]{Props: p, State: Derive(p.Config, p.Location.RawQuery)}
}

func (v View[T]) PageCount() int {
	return PageCount(v.ItemCount, v.State.PageSize)
}

func (v View[T]) IsEmpty() bool {
	return len(v.Items) == 0
}

func (v View[T]) SortURL(key string, order SortOrder) string {
	return SortLocation(v.Location, v.Config, key, order)
}

func (v View[T]) PageURL(page, pageSize int) string {
	return PageLocation(v.Location, v.Config, page, pageSize)
}

// SearchValue returns the active search filter key (without suffix) and
// value.
func (v View[T]) SearchValue() (string, string) {
	keys := make([]string, 0, len(v.State.Params))
	for k := range v.State.Params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if name, ok := strings.CutSuffix(k, SearchSuffix); ok {
			return name, v.State.Params.String(k)
		}
	}
	return "", ""
}

// sortOption is one entry of the toolbar sort menu.
type sortOption struct {
	Column Column
	Href   string
	Order  SortOrder
	Active bool
	Icon   string
	Glyph  templ.Component
}

// page is a View with the rows rendered, so the templates need no type
// parameter.
type page struct {
	Namespace      string
	Error          error
	Empty          bool
	ItemName       string
	ItemNamePlural string

	ShowSelectAll bool
	IsAllSelected bool
	SelectAllURL  string

	SearchAction  string
	SearchColumns []Column
	SearchKey     string
	SearchValue   string

	Sort     []sortOption
	Controls []templ.Component
	Rows     []templ.Component

	Location  *url.URL
	Config    qs.Config
	ItemCount int
}

func (v View[T]) page() page {
	p := page{
		Namespace:      v.Config.Namespace,
		Error:          v.Error,
		Empty:          v.IsEmpty(),
		ItemName:       v.ItemName,
		ItemNamePlural: v.ItemNamePlural,
		ShowSelectAll:  v.ShowSelectAll,
		IsAllSelected:  v.IsAllSelected,
		SelectAllURL:   v.SelectAllURL,
		Controls:       v.AdditionalControls,
		Location:       v.Location,
		Config:         v.Config,
		ItemCount:      v.ItemCount,
	}
	if v.SearchAction != "" && len(v.SearchColumns) > 0 {
		p.SearchAction = v.SearchAction
		p.SearchColumns = v.SearchColumns
		p.SearchKey, p.SearchValue = v.SearchValue()
	}
	for _, c := range v.Columns {
		if !c.Sortable {
			continue
		}
		order := NextSortOrder(v.State, c.Key)
		o := sortOption{Column: c, Href: v.SortURL(c.Key, order), Order: order, Active: v.State.OrderBy == c.Key}
		if o.Active {
			o.Icon = SortIcon(c, v.State.SortOrder)
			o.Glyph = SortGlyph(v.State.SortOrder)
		}
		p.Sort = append(p.Sort, o)
	}
	p.Rows = make([]templ.Component, 0, len(v.Items))
	for _, item := range v.Items {
		if v.RenderItem != nil {
			p.Rows = append(p.Rows, v.RenderItem(item))
			continue
		}
		p.Rows = append(p.Rows, DefaultRow(item, v.SelectAction, v.IsSelected != nil && v.IsSelected(item)))
	}
	return p
}

// List renders toolbar, items and pagination, or the error or empty state.
func List[T Item](p Props[T]) templ.Component {
	return list(NewView(p).page())
}

func sortOptionClass(o sortOption) string {
	if o.Active {
		return "sort-option font-semibold active"
	}
	return "sort-option"
}

// errorDetail is the detail of an API error response, empty otherwise.
func errorDetail(err error) string {
	if apiErr, ok := apiclient.AsError(err); ok && apiErr.Body != nil {
		return apiErr.Detail
	}
	return ""
}

type pageSize struct {
	Size   int
	Href   string
	Active bool
}

// pager is the state of the pagination bar.
type pager struct {
	Count    int
	Position string
	PrevURL  string
	NextURL  string
	Sizes    []pageSize
}

func newPager(location *url.URL, config qs.Config, itemCount int) pager {
	if location == nil {
		location = &url.URL{}
	}
	state := Derive(config, location.RawQuery)
	pages := PageCount(itemCount, state.PageSize)
	p := pager{
		Count:    itemCount,
		Position: fmt.Sprintf("%d / %d", state.Page, max(pages, 1)),
	}
	if state.Page > 1 {
		p.PrevURL = PageLocation(location, config, state.Page-1, state.PageSize)
	}
	if state.Page < pages {
		p.NextURL = PageLocation(location, config, state.Page+1, state.PageSize)
	}
	for _, size := range PerPageOptions {
		p.Sizes = append(p.Sizes, pageSize{
			Size:   size,
			Href:   PageLocation(location, config, 1, size),
			Active: size == state.PageSize,
		})
	}
	return p
}

// Pagination renders previous/next links, the page position and the page
// size options for a list of itemCount items.
func Pagination(location *url.URL, config qs.Config, itemCount int) templ.Component {
	return pagination(newPager(location, config, itemCount))
}

func perPageClass(s pageSize) string {
	if s.Active {
		return "per-page-option font-semibold active"
	}
	return "per-page-option"
}

func itemID(item Item) string {
	return strconv.Itoa(item.GetID())
}
