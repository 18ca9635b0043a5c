// Package resources renders the list and detail screens shared by every
// resource kind.
package resources

import (
	"sort"
	"strconv"

	"github.com/a-h/templ"

	"github.com/automationhub/console/pkg/listing"
)

type ListPageProps[T listing.Item] struct {
	Title  string
	Notice string
	// Failures maps the id of a record that could not be deleted to the
	// reason.
	Failures map[string]string
	List     listing.Props[T]
}

func ListPage[T listing.Item](p *ListPageProps[T]) templ.Component {
	return listPage(p.Title, p.Notice, p.Failures, listing.List(p.List))
}

// failureIDs returns the ids of failures in numeric order.
func failureIDs(failures map[string]string) []string {
	ids := make([]string, 0, len(failures))
	for id := range failures {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})
	return ids
}

type Field struct {
	Label string
	Value string
	Href  string
}

type DetailPageProps struct {
	Title     string
	BackURL   string
	BackLabel string
	Notice    string
	// ErrorMessage reports a failed action, e.g. a save of a lookup field.
	ErrorMessage string
	Fields       []Field
	Sections     []templ.Component
	Error        error
}
