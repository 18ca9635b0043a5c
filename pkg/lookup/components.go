package lookup

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"github.com/automationhub/console/pkg/listing"
)

// URLs are the endpoints the lookup forms post to.
type URLs struct {
	Open   string
	Toggle string
	Sort   string
	Search string
	Page   string
	Save   string
	Cancel string
	Remove string
}

type chip struct {
	ID   string
	Name string
}

type row struct {
	chip
	Checked bool
}

type sortOption struct {
	Key   string
	Label string
	Order listing.SortOrder
}

// view is a Snapshot flattened for the templates.
type view struct {
	ID        string
	FieldName string
	Header    string
	Open      bool
	Value     []chip
	Selected  []chip

	Err            error
	Empty          bool
	ItemName       string
	ItemNamePlural string

	SearchColumns []listing.Column
	SearchValue   string
	Sort          []sortOption
	Rows          []row

	Page     int
	Pages    int
	PageSize string

	ShowSave bool
	URLs     URLs
}

func chipsOf[T listing.Item](items []T) []chip {
	out := make([]chip, 0, len(items))
	for _, item := range items {
		out = append(out, chip{ID: strconv.Itoa(item.GetID()), Name: item.GetName()})
	}
	return out
}

func newView[T listing.Item](s Snapshot[T], urls URLs) view {
	v := view{
		ID:             s.ID,
		FieldName:      s.FieldName,
		Header:         s.Header,
		Open:           s.Open,
		Value:          chipsOf(s.Value),
		Selected:       chipsOf(s.Selected.Items()),
		Err:            s.Err,
		Empty:          s.Empty,
		ItemName:       s.ItemName,
		ItemNamePlural: s.ItemNamePlural,
		SearchColumns:  s.SearchColumns,
		Page:           s.State.Page,
		Pages:          listing.PageCount(s.Count, s.State.PageSize),
		PageSize:       strconv.Itoa(s.State.PageSize),
		ShowSave:       s.ShowSave,
		URLs:           urls,
	}
	if len(s.SearchColumns) > 0 {
		v.SearchValue = s.Params.String(s.SearchColumns[0].Key + listing.SearchSuffix)
	}
	for _, c := range s.Columns {
		if !c.Sortable {
			continue
		}
		label := c.Name
		if s.State.OrderBy == c.Key {
			label = fmt.Sprintf("%s (%s)", c.Name, s.State.SortOrder)
		}
		v.Sort = append(v.Sort, sortOption{Key: c.Key, Label: label, Order: listing.NextSortOrder(s.State, c.Key)})
	}
	for _, item := range s.Results {
		v.Rows = append(v.Rows, row{
			chip:    chip{ID: strconv.Itoa(item.GetID()), Name: item.GetName()},
			Checked: s.Selected.Contains(item.GetID()),
		})
	}
	return v
}

// Render renders the field value as chips with a search button and, while
// open, the modal.
func Render[T listing.Item](s Snapshot[T], urls URLs) templ.Component {
	return field(newView(s, urls))
}

func position(v view) string {
	return fmt.Sprintf("%d / %d", v.Page, max(v.Pages, 1))
}
