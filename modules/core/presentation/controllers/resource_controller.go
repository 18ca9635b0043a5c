package controllers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/automationhub/console/modules/core/presentation/controllers/dtos"
	"github.com/automationhub/console/modules/core/presentation/templates/pages/resources"
	"github.com/automationhub/console/modules/core/services"
	"github.com/automationhub/console/pkg/application"
	"github.com/automationhub/console/pkg/components/base"
	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/listing"
	"github.com/automationhub/console/pkg/middleware"
	"github.com/automationhub/console/pkg/qs"
	"github.com/automationhub/console/pkg/selection"
	"github.com/automationhub/console/pkg/shared"
)

const (
	flashNotice         = "notice"
	flashError          = "error"
	flashDeleteFailures = "deleteFailures"
)

// Label is a translatable display name.
type Label struct {
	ID      string
	Default string
}

func (l Label) T(ctx context.Context) string {
	return base.T(ctx, l.ID, l.Default)
}

// ColumnDef is a list column whose name is translated per request.
type ColumnDef struct {
	Key      string
	Name     Label
	Sortable bool
	Numeric  bool
}

func translateColumns(ctx context.Context, defs []ColumnDef) []listing.Column {
	out := make([]listing.Column, 0, len(defs))
	for _, d := range defs {
		out = append(out, listing.Column{
			Name:     d.Name.T(ctx),
			Key:      d.Key,
			Sortable: d.Sortable,
			Numeric:  d.Numeric,
		})
	}
	return out
}

type ResourceControllerOptions[T listing.Item] struct {
	BasePath       string
	Service        *services.ResourceService[T]
	Title          Label
	ItemName       Label
	ItemNamePlural Label
	// Namespace keys the list state in the query string.
	Namespace     string
	Defaults      qs.Params
	Columns       []ColumnDef
	SearchColumns []ColumnDef
	// Fields lists what the detail screen shows of an item.
	Fields func(ctx context.Context, item T) []resources.Field
	Errors *APIErrors
}

// ResourceOption tweaks a ResourceController.
type ResourceOption[T listing.Item] func(*ResourceController[T])

// WithoutDelete hides row selection and the bulk delete action.
func WithoutDelete[T listing.Item]() ResourceOption[T] {
	return func(c *ResourceController[T]) {
		c.enableDelete = false
	}
}

// WithDetailSection appends a section to the detail screen, e.g. a lookup
// field.
func WithDetailSection[T listing.Item](section func(w http.ResponseWriter, r *http.Request, item T) templ.Component) ResourceOption[T] {
	return func(c *ResourceController[T]) {
		c.sections = append(c.sections, section)
	}
}

// ResourceController serves the list and detail screens of one resource
// kind.
type ResourceController[T listing.Item] struct {
	app     application.Application
	opts    ResourceControllerOptions[T]
	config  qs.Config
	service *services.ResourceService[T]
	errors  *APIErrors

	selections   *SelectionStore[T]
	enableDelete bool
	sections     []func(w http.ResponseWriter, r *http.Request, item T) templ.Component
}

func NewResourceController[T listing.Item](
	app application.Application,
	opts ResourceControllerOptions[T],
	options ...ResourceOption[T],
) *ResourceController[T] {
	defaults := qs.Params{"page": listing.DefaultPage, "page_size": listing.DefaultPageSize, "order_by": "name"}
	c := &ResourceController[T]{
		app:          app,
		opts:         opts,
		config:       qs.GetQSConfig(opts.Namespace, qs.Merge(defaults, opts.Defaults)),
		service:      opts.Service,
		errors:       opts.Errors,
		selections:   NewSelectionStore[T](),
		enableDelete: true,
	}
	if c.errors == nil {
		c.errors = &APIErrors{App: app, SidCookieKey: "sid"}
	}
	for _, o := range options {
		o(c)
	}
	app.EventPublisher().Subscribe(func(e *eventbus.SessionEndedEvent) {
		c.selections.DeleteSession(e.SessionID)
	})
	return c
}

func (c *ResourceController[T]) Key() string {
	return c.opts.BasePath
}

func (c *ResourceController[T]) Config() qs.Config {
	return c.config
}

func (c *ResourceController[T]) Register(r *mux.Router) {
	router := r.PathPrefix(c.opts.BasePath).Subrouter()
	router.Use(
		middleware.RedirectNotAuthenticated(),
		middleware.ProvideLocalizer(c.app),
		middleware.NavItems(),
		middleware.WithPageContext(),
	)

	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/sort", c.Sort).Methods(http.MethodPost)
	router.HandleFunc("/page", c.Page).Methods(http.MethodPost)
	router.HandleFunc("/search", c.Search).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9]+}", c.Details).Methods(http.MethodGet)

	if c.enableDelete {
		router.HandleFunc("/select", c.Select).Methods(http.MethodPost)
		router.HandleFunc("/select_all", c.SelectAll).Methods(http.MethodPost)
		router.HandleFunc("/delete", c.Delete).Methods(http.MethodPost)
	}
}

// location is the list screen the posting form was rendered on.
func (c *ResourceController[T]) location(r *http.Request) *url.URL {
	return &url.URL{Path: c.opts.BasePath, RawQuery: r.URL.RawQuery}
}

func (c *ResourceController[T]) action(r *http.Request, name string) string {
	if r.URL.RawQuery == "" {
		return c.opts.BasePath + "/" + name
	}
	return c.opts.BasePath + "/" + name + "?" + r.URL.RawQuery
}

func (c *ResourceController[T]) selectionKey(r *http.Request) string {
	sess, err := composables.UseSession(r.Context())
	if err != nil {
		return ""
	}
	return sess.ID + ":" + c.opts.BasePath
}

func (c *ResourceController[T]) redirectBack(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, c.location(r).String(), http.StatusSeeOther)
}

func (c *ResourceController[T]) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := qs.ParseNamespaced(c.config, r.URL.RawQuery)
	page, err := c.service.List(ctx, params)
	if c.errors.Handle(w, r, err) {
		return
	}

	failures, flashErr := composables.UseFlashMap[string, string](w, r, flashDeleteFailures)
	if flashErr != nil {
		composables.UseLogger(ctx).WithError(flashErr).Warn("failed to read delete failures")
	}
	notice, _ := composables.UseFlash(w, r, flashNotice)

	selected := c.selections.Get(c.selectionKey(r))
	props := listing.Props[T]{
		Items:          page.Items,
		ItemCount:      page.Count,
		Config:         c.config,
		Location:       r.URL,
		ItemName:       c.opts.ItemName.T(ctx),
		ItemNamePlural: c.opts.ItemNamePlural.T(ctx),
		Columns:        translateColumns(ctx, c.opts.Columns),
		SearchColumns:  translateColumns(ctx, c.opts.SearchColumns),
		SearchAction:   c.action(r, "search"),
		Error:          err,
	}
	if c.enableDelete {
		props.ShowSelectAll = true
		props.IsAllSelected = allSelected(selected, page.Items)
		props.SelectAllURL = c.action(r, "select_all")
		props.SelectAction = c.action(r, "select")
		props.IsSelected = func(item T) bool { return selected.Contains(item.GetID()) }
		props.AdditionalControls = []templ.Component{resources.DeleteControl(c.action(r, "delete"), selected.Len())}
	}

	status := http.StatusOK
	if err != nil {
		status = UpstreamStatus(err)
	}
	templ.Handler(resources.ListPage(&resources.ListPageProps[T]{
		Title:    c.opts.Title.T(ctx),
		Notice:   string(notice),
		Failures: failures,
		List:     props,
	}), templ.WithStatus(status)).ServeHTTP(w, r)
}

func allSelected[T listing.Item](s selection.Set[T], items []T) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !s.Contains(item.GetID()) {
			return false
		}
	}
	return true
}

func decodeForm[T any](w http.ResponseWriter, r *http.Request, dto *T) bool {
	if _, err := composables.UseForm(dto, r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if err := shared.Validate.Struct(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (c *ResourceController[T]) Sort(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.SortDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	loc := c.location(r)
	order := listing.SortOrder(dto.Order)
	if order == "" {
		order = listing.NextSortOrder(listing.Derive(c.config, loc.RawQuery), dto.Key)
	}
	http.Redirect(w, r, listing.SortLocation(loc, c.config, dto.Key, order), http.StatusSeeOther)
}

func (c *ResourceController[T]) Page(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.PageDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	http.Redirect(w, r, listing.PageLocation(c.location(r), c.config, dto.Page, dto.PageSize), http.StatusSeeOther)
}

func (c *ResourceController[T]) isSearchable(key string) bool {
	for _, col := range c.opts.SearchColumns {
		if col.Key == key {
			return true
		}
	}
	return false
}

// Search filters by one search column at a time, a new filter replaces the
// previous one.
func (c *ResourceController[T]) Search(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.SearchDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	if !c.isSearchable(dto.Key) {
		http.Error(w, "unknown search key", http.StatusBadRequest)
		return
	}
	patch := qs.Params{"page": nil}
	for _, col := range c.opts.SearchColumns {
		patch[col.Key+listing.SearchSuffix] = nil
	}
	if v := strings.TrimSpace(dto.Value); v != "" {
		patch[dto.Key+listing.SearchSuffix] = v
	}
	http.Redirect(w, r, qs.ReplaceParams(c.config, c.location(r), patch), http.StatusSeeOther)
}

func (c *ResourceController[T]) Select(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.IDDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	key := c.selectionKey(r)
	if item, ok := c.selections.Get(key).Get(dto.ID); ok {
		c.selections.Update(key, func(s selection.Set[T]) selection.Set[T] { return s.Toggle(item) })
		c.redirectBack(w, r)
		return
	}
	item, err := c.service.GetByID(r.Context(), dto.ID)
	if err != nil {
		if c.errors.Handle(w, r, err) {
			return
		}
		http.Error(w, err.Error(), UpstreamStatus(err))
		return
	}
	c.selections.Update(key, func(s selection.Set[T]) selection.Set[T] { return s.Toggle(*item) })
	c.redirectBack(w, r)
}

// SelectAll adds the rows of the current page, or clears the selection.
func (c *ResourceController[T]) SelectAll(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.SelectAllDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	key := c.selectionKey(r)
	if !dto.SelectAll {
		c.selections.Delete(key)
		c.redirectBack(w, r)
		return
	}
	params := qs.ParseNamespaced(c.config, r.URL.RawQuery)
	page, err := c.service.List(r.Context(), params)
	if err != nil {
		if c.errors.Handle(w, r, err) {
			return
		}
		http.Error(w, err.Error(), UpstreamStatus(err))
		return
	}
	c.selections.Update(key, func(s selection.Set[T]) selection.Set[T] {
		for _, item := range page.Items {
			if !s.Contains(item.GetID()) {
				s = s.Toggle(item)
			}
		}
		return s
	})
	c.redirectBack(w, r)
}

// Delete removes the selected rows. Rows that could not be deleted stay
// selected and are reported on the list.
func (c *ResourceController[T]) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := c.selectionKey(r)
	selected := c.selections.Get(key)
	if selected.IsEmpty() {
		c.redirectBack(w, r)
		return
	}

	err := c.service.Delete(ctx, selected.IDs())
	var bulk *services.BulkDeleteError
	switch {
	case err == nil:
		c.selections.Delete(key)
		shared.SetFlash(w, flashNotice, []byte(base.T(ctx, "Resources.Deleted", "{{.Count}} deleted", map[string]interface{}{
			"Count": selected.Len(),
		})))
	case errors.As(err, &bulk):
		for _, failed := range bulk.Failed {
			if c.errors.Handle(w, r, failed) {
				return
			}
		}
		failures := make(map[string]string, len(bulk.Failed))
		for id, failed := range bulk.Failed {
			failures[strconv.Itoa(id)] = Reason(failed)
		}
		c.selections.Update(key, func(s selection.Set[T]) selection.Set[T] {
			for _, id := range bulk.Deleted {
				if item, ok := s.Get(id); ok {
					s = s.Toggle(item)
				}
			}
			return s
		})
		shared.SetFlashMap(w, flashDeleteFailures, failures)
	default:
		if c.errors.Handle(w, r, err) {
			return
		}
		shared.SetFlash(w, flashError, []byte(Reason(err)))
	}
	c.redirectBack(w, r)
}

func (c *ResourceController[T]) Details(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	notice, _ := composables.UseFlash(w, r, flashNotice)
	errorMessage, _ := composables.UseFlash(w, r, flashError)
	props := &resources.DetailPageProps{
		BackURL:      c.opts.BasePath,
		BackLabel:    c.opts.Title.T(ctx),
		Notice:       string(notice),
		ErrorMessage: string(errorMessage),
	}

	item, err := c.service.GetByID(ctx, id)
	if err != nil {
		if c.errors.Handle(w, r, err) {
			return
		}
		props.Title = c.opts.ItemName.T(ctx)
		props.Error = err
		templ.Handler(resources.DetailPage(props), templ.WithStatus(UpstreamStatus(err))).ServeHTTP(w, r)
		return
	}

	props.Title = (*item).GetName()
	if c.opts.Fields != nil {
		props.Fields = c.opts.Fields(ctx, *item)
	}
	for _, section := range c.sections {
		props.Sections = append(props.Sections, section(w, r, *item))
	}
	templ.Handler(resources.DetailPage(props)).ServeHTTP(w, r)
}
