package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/automationhub/console/modules/access/presentation/controllers/dtos"
	"github.com/automationhub/console/modules/access/presentation/templates/pages/access"
	"github.com/automationhub/console/modules/access/services"
	"github.com/automationhub/console/modules/core/domain/entities"
	corecontrollers "github.com/automationhub/console/modules/core/presentation/controllers"
	coreservices "github.com/automationhub/console/modules/core/services"
	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/application"
	"github.com/automationhub/console/pkg/components/base"
	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/listing"
	"github.com/automationhub/console/pkg/middleware"
	"github.com/automationhub/console/pkg/qs"
	"github.com/automationhub/console/pkg/shared"
	"github.com/automationhub/console/pkg/wizard"
)

const flashNotice = "notice"

// Targets are the record kinds whose roles can be granted.
var Targets = []string{
	entities.OrganizationsPath,
	entities.TeamsPath,
	entities.JobTemplatesPath,
	entities.CredentialsPath,
}

// RoleSource reads the roles a record offers.
type RoleSource func(ctx context.Context, target string, id int) ([]entities.Role, error)

// ObjectRoles reads the object_roles sub collection of a record.
func ObjectRoles(client *apiclient.Client) RoleSource {
	return func(ctx context.Context, target string, id int) ([]entities.Role, error) {
		resp, err := apiclient.ReadList[entities.Role](ctx, client, fmt.Sprintf("%s/%d/object_roles/", target, id), qs.Params{
			"page_size": 200,
			"order_by":  "id",
		})
		if err != nil {
			return nil, errors.Wrap(err, "read object roles")
		}
		return resp.Results, nil
	}
}

type AccessControllerOptions struct {
	Users   *coreservices.ResourceService[entities.User]
	Teams   *coreservices.ResourceService[entities.Team]
	Roles   RoleSource
	Creator services.RoleCreator
	Errors  *corecontrollers.APIErrors
}

// principalList is the step 2 list of one kind.
type principalList struct {
	config        qs.Config
	itemName      corecontrollers.Label
	itemPlural    corecontrollers.Label
	columns       []corecontrollers.ColumnDef
	searchColumns []corecontrollers.ColumnDef
	list          func(ctx context.Context, params qs.Params) (listing.Page[services.Principal], error)
	get           func(ctx context.Context, id int) (services.Principal, error)
}

// AccessController serves the role wizard below the detail screen of every
// target record. Each session has its own wizard per record.
type AccessController struct {
	app   application.Application
	opts  AccessControllerOptions
	store *services.Store
	lists map[services.ResourceKind]principalList
}

func NewAccessController(app application.Application, opts AccessControllerOptions) *AccessController {
	if opts.Errors == nil {
		opts.Errors = &corecontrollers.APIErrors{App: app, SidCookieKey: "sid"}
	}
	if opts.Roles == nil {
		opts.Roles = ObjectRoles(app.API())
	}
	if opts.Creator == nil {
		opts.Creator = app.API()
	}
	c := &AccessController{
		app:   app,
		opts:  opts,
		store: services.NewStore(),
	}
	app.EventPublisher().Subscribe(func(e *eventbus.SessionEndedEvent) {
		c.store.DeleteSession(e.SessionID)
	})
	c.lists = map[services.ResourceKind]principalList{
		services.KindUsers: {
			config:     qs.GetQSConfig("user", qs.Params{"page": 1, "page_size": 5, "order_by": "username"}),
			itemName:   corecontrollers.Label{ID: "Users.Item", Default: "User"},
			itemPlural: corecontrollers.Label{ID: "Users.Plural", Default: "Users"},
			columns: []corecontrollers.ColumnDef{
				{Key: "username", Name: corecontrollers.Label{ID: "Users.Username", Default: "Username"}, Sortable: true},
				{Key: "first_name", Name: corecontrollers.Label{ID: "Users.FirstName", Default: "First name"}, Sortable: true},
				{Key: "last_name", Name: corecontrollers.Label{ID: "Users.LastName", Default: "Last name"}, Sortable: true},
			},
			searchColumns: []corecontrollers.ColumnDef{
				{Key: "username", Name: corecontrollers.Label{ID: "Users.Username", Default: "Username"}},
				{Key: "first_name", Name: corecontrollers.Label{ID: "Users.FirstName", Default: "First name"}},
				{Key: "last_name", Name: corecontrollers.Label{ID: "Users.LastName", Default: "Last name"}},
			},
			list: principals(opts.Users, services.KindUsers, func(u entities.User) string { return u.Username }),
			get:  principal(opts.Users, services.KindUsers, func(u entities.User) string { return u.Username }),
		},
		services.KindTeams: {
			config:     qs.GetQSConfig("team", qs.Params{"page": 1, "page_size": 5, "order_by": "name"}),
			itemName:   corecontrollers.Label{ID: "Teams.Item", Default: "Team"},
			itemPlural: corecontrollers.Label{ID: "Teams.Plural", Default: "Teams"},
			columns: []corecontrollers.ColumnDef{
				{Key: "name", Name: corecontrollers.Label{ID: "Columns.Name", Default: "Name"}, Sortable: true},
			},
			searchColumns: []corecontrollers.ColumnDef{
				{Key: "name", Name: corecontrollers.Label{ID: "Columns.Name", Default: "Name"}},
				{Key: "description", Name: corecontrollers.Label{ID: "Columns.Description", Default: "Description"}},
			},
			list: principals(opts.Teams, services.KindTeams, func(t entities.Team) string { return t.Name }),
			get:  principal(opts.Teams, services.KindTeams, func(t entities.Team) string { return t.Name }),
		},
	}
	return c
}

func principals[T listing.Item](s *coreservices.ResourceService[T], kind services.ResourceKind, name func(T) string) func(context.Context, qs.Params) (listing.Page[services.Principal], error) {
	return func(ctx context.Context, params qs.Params) (listing.Page[services.Principal], error) {
		page, err := s.List(ctx, params)
		if err != nil {
			return listing.Page[services.Principal]{}, err
		}
		out := listing.Page[services.Principal]{Count: page.Count, Items: make([]services.Principal, 0, len(page.Items))}
		for _, item := range page.Items {
			out.Items = append(out.Items, services.Principal{ID: item.GetID(), Name: name(item), Kind: kind})
		}
		return out, nil
	}
}

func principal[T listing.Item](s *coreservices.ResourceService[T], kind services.ResourceKind, name func(T) string) func(context.Context, int) (services.Principal, error) {
	return func(ctx context.Context, id int) (services.Principal, error) {
		item, err := s.GetByID(ctx, id)
		if err != nil {
			return services.Principal{}, err
		}
		return services.Principal{ID: id, Name: name(*item), Kind: kind}, nil
	}
}

func (c *AccessController) Key() string {
	return "/{target}/{id}/access/add"
}

func (c *AccessController) Register(r *mux.Router) {
	prefix := fmt.Sprintf("/{target:%s}/{id:[0-9]+}/access/add", strings.Join(Targets, "|"))
	router := r.PathPrefix(prefix).Subrouter()
	router.Use(
		middleware.RedirectNotAuthenticated(),
		middleware.ProvideLocalizer(c.app),
		middleware.NavItems(),
		middleware.WithPageContext(),
	)
	router.HandleFunc("", c.Show).Methods(http.MethodGet)
	router.HandleFunc("/kind", c.SelectKind).Methods(http.MethodPost)
	router.HandleFunc("/toggle_resource", c.ToggleResource).Methods(http.MethodPost)
	router.HandleFunc("/toggle_role", c.ToggleRole).Methods(http.MethodPost)
	router.HandleFunc("/search", c.Search).Methods(http.MethodPost)
	router.HandleFunc("/next", c.Next).Methods(http.MethodPost)
	router.HandleFunc("/back", c.Back).Methods(http.MethodPost)
	router.HandleFunc("/goto", c.GoTo).Methods(http.MethodPost)
	router.HandleFunc("/cancel", c.Cancel).Methods(http.MethodPost)
	router.HandleFunc("/finish", c.Finish).Methods(http.MethodPost)
}

// target is the record the wizard grants roles on.
type target struct {
	kind string
	id   int
}

func targetOf(r *http.Request) (target, bool) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		return target{}, false
	}
	return target{kind: vars["target"], id: id}, true
}

func (t target) path() string {
	return fmt.Sprintf("/%s/%d", t.kind, t.id)
}

func (t target) wizardPath() string {
	return t.path() + "/access/add"
}

// location is the wizard page the posting form was rendered on.
func (t target) location(r *http.Request) *url.URL {
	return &url.URL{Path: t.wizardPath(), RawQuery: r.URL.RawQuery}
}

func (t target) action(r *http.Request, name string) string {
	return (&url.URL{Path: t.wizardPath() + "/" + name, RawQuery: r.URL.RawQuery}).String()
}

func storeKey(ctx context.Context, t target) string {
	sess, err := composables.UseSession(ctx)
	if err != nil {
		return ""
	}
	return sess.ID + ":" + t.kind + ":" + strconv.Itoa(t.id)
}

// assignment returns the session's wizard for the record in the route,
// reading its roles the first time.
func (c *AccessController) assignment(w http.ResponseWriter, r *http.Request) (target, *services.RoleAssignment, bool) {
	t, ok := targetOf(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return target{}, nil, false
	}
	key := storeKey(r.Context(), t)
	a, err := c.store.Get(key, func() (*services.RoleAssignment, error) {
		roles, err := c.opts.Roles(r.Context(), t.kind, t.id)
		if err != nil {
			return nil, err
		}
		return services.NewRoleAssignment(services.Options{
			Creator:   c.opts.Creator,
			Publisher: c.app.EventPublisher(),
			Roles:     roles,
			OnSave:    func() { c.store.Delete(key) },
		}), nil
	})
	if err != nil {
		if !c.opts.Errors.Handle(w, r, err) {
			http.Error(w, err.Error(), corecontrollers.UpstreamStatus(err))
		}
		return target{}, nil, false
	}
	return t, a, true
}

func (c *AccessController) back(w http.ResponseWriter, r *http.Request, t target) {
	http.Redirect(w, r, t.location(r).String(), http.StatusSeeOther)
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

func (c *AccessController) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, a, ok := c.assignment(w, r)
	if !ok {
		return
	}
	snapshot := a.Snapshot()
	steps := snapshot.Steps
	bodies := map[int]templ.Component{
		services.StepResourceKind: access.KindStep(snapshot.Kind, t.action(r, "kind")),
		services.StepRoles:        access.RolesStep(snapshot.Available, snapshot.Roles, snapshot.Rows, t.action(r, "toggle_role")),
	}
	names := map[int]string{
		services.StepResourceKind: base.T(ctx, "Access.Steps.Kind", "Add resource type"),
		services.StepResources:    base.T(ctx, "Access.Steps.Resources", "Select items from list"),
		services.StepRoles:        base.T(ctx, "Access.Steps.Roles", "Select roles to apply"),
	}

	current, _ := snapshot.Nav.Current(steps)
	if current.ID == services.StepResources {
		body, handled := c.resourcesStep(w, r, t, snapshot)
		if handled {
			return
		}
		bodies[services.StepResources] = body
	} else {
		bodies[services.StepResources] = templ.NopComponent
	}
	for i := range steps {
		steps[i].Name = names[steps[i].ID]
		steps[i].Component = bodies[steps[i].ID]
	}
	steps[len(steps)-1].NextButtonText = base.T(ctx, "Access.Save", "Save")

	props := wizard.Props{
		Title: base.T(ctx, "Access.AddRoles", "Add roles"),
		Steps: steps,
		Nav:   snapshot.Nav,
		URLs: wizard.URLs{
			Next:   t.action(r, "next"),
			Back:   t.action(r, "back"),
			GoTo:   t.action(r, "goto"),
			Cancel: t.action(r, "cancel"),
			Finish: t.action(r, "finish"),
		},
	}
	var assignErr *services.AssignmentError
	switch {
	case errors.As(snapshot.Err, &assignErr):
		props.Error = access.AssignmentError(assignErr, corecontrollers.Reason)
	case snapshot.Err != nil:
		props.Error = access.Message(corecontrollers.Reason(snapshot.Err))
	}
	notice, _ := composables.UseFlash(w, r, flashNotice)
	templ.Handler(access.Page(&access.PageProps{
		Title:  props.Title,
		Notice: string(notice),
		Wizard: props,
	})).ServeHTTP(w, r)
}

// resourcesStep fetches the page of users or teams named by the query
// string. It reports true when it answered the request itself.
func (c *AccessController) resourcesStep(w http.ResponseWriter, r *http.Request, t target, s services.Snapshot) (templ.Component, bool) {
	ctx := r.Context()
	pl, ok := c.lists[s.Kind]
	if !ok {
		return templ.NopComponent, false
	}
	page, err := pl.list(ctx, qs.ParseNamespaced(pl.config, r.URL.RawQuery))
	if c.opts.Errors.Handle(w, r, err) {
		return nil, true
	}
	rows := s.Rows
	return access.ResourcesStep(rows, listing.Props[services.Principal]{
		Items:          page.Items,
		ItemCount:      page.Count,
		Config:         pl.config,
		Location:       t.location(r),
		ItemName:       pl.itemName.T(ctx),
		ItemNamePlural: pl.itemPlural.T(ctx),
		Columns:        translate(ctx, pl.columns),
		SearchColumns:  translate(ctx, pl.searchColumns),
		SearchAction:   t.action(r, "search"),
		SelectAction:   t.action(r, "toggle_resource"),
		IsSelected:     func(p services.Principal) bool { return rows.Contains(p.ID) },
		Error:          err,
	}, t.action(r, "toggle_resource")), false
}

func translate(ctx context.Context, defs []corecontrollers.ColumnDef) []listing.Column {
	out := make([]listing.Column, 0, len(defs))
	for _, d := range defs {
		out = append(out, listing.Column{Name: d.Name.T(ctx), Key: d.Key, Sortable: d.Sortable, Numeric: d.Numeric})
	}
	return out
}

func (c *AccessController) SelectKind(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.KindDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	t, a, ok := c.assignment(w, r)
	if !ok {
		return
	}
	if err := a.SelectResource(services.ResourceKind(dto.Kind)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.back(w, r, t)
}

func (c *AccessController) ToggleResource(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.IDDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	t, a, ok := c.assignment(w, r)
	if !ok {
		return
	}
	p, picked := a.SelectedRow(dto.ID)
	if !picked {
		pl, known := c.lists[a.Snapshot().Kind]
		if !known {
			http.Error(w, services.ErrNoKind.Error(), http.StatusBadRequest)
			return
		}
		var err error
		if p, err = pl.get(r.Context(), dto.ID); err != nil {
			if apiclient.IsNotFound(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if !c.opts.Errors.Handle(w, r, err) {
				http.Error(w, err.Error(), corecontrollers.UpstreamStatus(err))
			}
			return
		}
	}
	if err := a.ToggleResourceRow(p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.back(w, r, t)
}

func (c *AccessController) ToggleRole(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.IDDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	t, a, ok := c.assignment(w, r)
	if !ok {
		return
	}
	if err := a.ToggleRole(dto.ID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.back(w, r, t)
}

// Search filters the step 2 list by one search column.
func (c *AccessController) Search(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.SearchDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	t, a, ok := c.assignment(w, r)
	if !ok {
		return
	}
	pl, known := c.lists[a.Snapshot().Kind]
	if !known {
		http.Error(w, services.ErrNoKind.Error(), http.StatusBadRequest)
		return
	}
	patch := qs.Params{"page": nil}
	searchable := false
	for _, col := range pl.searchColumns {
		patch[col.Key+listing.SearchSuffix] = nil
		searchable = searchable || col.Key == dto.Key
	}
	if !searchable {
		http.Error(w, "unknown search key", http.StatusBadRequest)
		return
	}
	if v := strings.TrimSpace(dto.Value); v != "" {
		patch[dto.Key+listing.SearchSuffix] = v
	}
	http.Redirect(w, r, qs.ReplaceParams(pl.config, t.location(r), patch), http.StatusSeeOther)
}

func (c *AccessController) Next(w http.ResponseWriter, r *http.Request) {
	t, a, ok := c.assignment(w, r)
	if !ok {
		return
	}
	if err := a.Next(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	c.back(w, r, t)
}

func (c *AccessController) Back(w http.ResponseWriter, r *http.Request) {
	t, a, ok := c.assignment(w, r)
	if !ok {
		return
	}
	a.Back()
	c.back(w, r, t)
}

func (c *AccessController) GoTo(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.StepDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	t, a, ok := c.assignment(w, r)
	if !ok {
		return
	}
	if err := a.GoTo(dto.Step); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	c.back(w, r, t)
}

func (c *AccessController) Cancel(w http.ResponseWriter, r *http.Request) {
	t, ok := targetOf(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	c.store.Delete(storeKey(r.Context(), t))
	http.Redirect(w, r, t.path(), http.StatusSeeOther)
}

// Finish grants the roles. On success the wizard is dropped and the record
// screen shows a notice, otherwise the wizard shows what failed.
func (c *AccessController) Finish(w http.ResponseWriter, r *http.Request) {
	t, a, ok := c.assignment(w, r)
	if !ok {
		return
	}
	err := a.Save(r.Context())
	switch {
	case err == nil:
		shared.SetFlash(w, flashNotice, []byte(base.T(r.Context(), "Access.Saved", "Roles granted")))
		http.Redirect(w, r, t.path(), http.StatusSeeOther)
	case errors.Is(err, services.ErrIncomplete), errors.Is(err, services.ErrSaving), errors.Is(err, services.ErrNotLastStep):
		http.Error(w, err.Error(), http.StatusConflict)
	case c.opts.Errors.Handle(w, r, err):
	default:
		c.back(w, r, t)
	}
}
