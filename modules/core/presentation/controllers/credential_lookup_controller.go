package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/automationhub/console/modules/core/domain/entities"
	"github.com/automationhub/console/modules/core/presentation/controllers/dtos"
	"github.com/automationhub/console/modules/core/presentation/templates/pages/resources"
	"github.com/automationhub/console/modules/core/services"
	"github.com/automationhub/console/pkg/application"
	"github.com/automationhub/console/pkg/components/base"
	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/listing"
	"github.com/automationhub/console/pkg/lookup"
	"github.com/automationhub/console/pkg/middleware"
	"github.com/automationhub/console/pkg/qs"
	"github.com/automationhub/console/pkg/shared"
)

const credentialsField = "credentials"

type CredentialLookupControllerOptions struct {
	JobTemplates *services.ResourceService[entities.JobTemplate]
	Credentials  *services.ResourceService[entities.Credential]
	Association  *services.AssociationService[entities.Credential]
	Errors       *APIErrors
}

// CredentialLookupController backs the credentials lookup field of the job
// template detail screen. Each session has its own widget per template.
type CredentialLookupController struct {
	app   application.Application
	opts  CredentialLookupControllerOptions
	store *lookup.Store[entities.Credential]
}

func NewCredentialLookupController(app application.Application, opts CredentialLookupControllerOptions) *CredentialLookupController {
	if opts.Errors == nil {
		opts.Errors = &APIErrors{App: app, SidCookieKey: "sid"}
	}
	c := &CredentialLookupController{
		app:   app,
		opts:  opts,
		store: lookup.NewStore[entities.Credential](),
	}
	app.EventPublisher().Subscribe(func(e *eventbus.SessionEndedEvent) {
		c.store.DeleteSession(e.SessionID)
	})
	return c
}

func (c *CredentialLookupController) Key() string {
	return "/job_templates/{id}/credentials"
}

func (c *CredentialLookupController) Register(r *mux.Router) {
	router := r.PathPrefix("/job_templates/{id:[0-9]+}/credentials").Subrouter()
	router.Use(
		middleware.RedirectNotAuthenticated(),
		middleware.ProvideLocalizer(c.app),
		middleware.WithPageContext(),
	)
	router.HandleFunc("/open", c.Open).Methods(http.MethodPost)
	router.HandleFunc("/toggle", c.Toggle).Methods(http.MethodPost)
	router.HandleFunc("/sort", c.Sort).Methods(http.MethodPost)
	router.HandleFunc("/search", c.Search).Methods(http.MethodPost)
	router.HandleFunc("/page", c.Page).Methods(http.MethodPost)
	router.HandleFunc("/save", c.Save).Methods(http.MethodPost)
	router.HandleFunc("/cancel", c.Cancel).Methods(http.MethodPost)
	router.HandleFunc("/remove", c.Remove).Methods(http.MethodPost)
}

func (c *CredentialLookupController) urls(id int) lookup.URLs {
	prefix := fmt.Sprintf("/job_templates/%d/credentials/", id)
	return lookup.URLs{
		Open:   prefix + "open",
		Toggle: prefix + "toggle",
		Sort:   prefix + "sort",
		Search: prefix + "search",
		Page:   prefix + "page",
		Save:   prefix + "save",
		Cancel: prefix + "cancel",
		Remove: prefix + "remove",
	}
}

func widgetKey(ctx context.Context, id int) string {
	sess, err := composables.UseSession(ctx)
	if err != nil {
		return ""
	}
	return sess.ID + ":job_template:" + strconv.Itoa(id)
}

func credentialsOf(jt entities.JobTemplate) []entities.Credential {
	out := make([]entities.Credential, 0, len(jt.SummaryFields.Credentials))
	for _, ref := range jt.SummaryFields.Credentials {
		out = append(out, entities.CredentialFromRef(ref))
	}
	return out
}

func (c *CredentialLookupController) newWidget(ctx context.Context, jt entities.JobTemplate) *lookup.Widget[entities.Credential] {
	// applied is the value last written to the API
	var (
		mu      sync.Mutex
		applied = credentialsOf(jt)
		widget  *lookup.Widget[entities.Credential]
	)
	onSave := func(ctx context.Context, selected []entities.Credential, _ string) error {
		mu.Lock()
		defer mu.Unlock()
		err := c.opts.Association.Apply(ctx, jt.ID, applied, selected)
		if err == nil {
			applied = selected
			widget.SetValue(selected)
			return nil
		}
		// resync with what the API holds after a partial failure
		if page, listErr := c.opts.Association.List(ctx, jt.ID, qs.Params{"page_size": 200}); listErr == nil {
			applied = page.Items
		}
		widget.SetValue(applied)
		return err
	}
	widget = lookup.New(lookup.Options[entities.Credential]{
		ID:             "job-template-" + strconv.Itoa(jt.ID) + "-credentials",
		Header:         base.T(ctx, "JobTemplates.Credentials.Header", "Select credentials"),
		FieldName:      credentialsField,
		ItemName:       base.T(ctx, "Credentials.Item", "Credential"),
		ItemNamePlural: base.T(ctx, "Credentials.Plural", "Credentials"),
		Multiple:       true,
		Config: qs.GetQSConfig("credential", qs.Params{
			"page":      1,
			"page_size": 5,
			"order_by":  "name",
		}),
		Columns: []listing.Column{
			{Name: base.T(ctx, "Credentials.Columns.Name", "Name"), Key: "name", Sortable: true},
			{Name: base.T(ctx, "Credentials.Columns.Kind", "Kind"), Key: "kind", Sortable: true},
		},
		SearchColumns: []listing.Column{
			{Name: base.T(ctx, "Credentials.Columns.Name", "Name"), Key: "name"},
			{Name: base.T(ctx, "Credentials.Columns.Description", "Description"), Key: "description"},
		},
		GetItems: c.opts.Credentials.List,
		OnSave:   onSave,
		Value:    applied,
	})
	return widget
}

// widget returns the session's widget for the template in the route,
// fetching the template the first time.
func (c *CredentialLookupController) widget(w http.ResponseWriter, r *http.Request) (int, *lookup.Widget[entities.Credential], bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, nil, false
	}
	key := widgetKey(r.Context(), id)
	if wdg, ok := c.store.Load(key); ok {
		return id, wdg, true
	}
	jt, err := c.opts.JobTemplates.GetByID(r.Context(), id)
	if err != nil {
		if !c.opts.Errors.Handle(w, r, err) {
			http.Error(w, err.Error(), UpstreamStatus(err))
		}
		return 0, nil, false
	}
	return id, c.store.Get(key, func() *lookup.Widget[entities.Credential] {
		return c.newWidget(r.Context(), *jt)
	}), true
}

// Section renders the lookup field on the job template detail screen. A
// closed widget is resynced with the record just read.
func (c *CredentialLookupController) Section(_ http.ResponseWriter, r *http.Request, jt entities.JobTemplate) templ.Component {
	wdg := c.store.Get(widgetKey(r.Context(), jt.ID), func() *lookup.Widget[entities.Credential] {
		return c.newWidget(r.Context(), jt)
	})
	if !wdg.IsOpen() {
		wdg.SetValue(credentialsOf(jt))
	}
	return resources.CredentialsSection(lookup.Render(wdg.Snapshot(), c.urls(jt.ID)))
}

func (c *CredentialLookupController) back(w http.ResponseWriter, r *http.Request, id int, err error) {
	if err != nil && !errors.Is(err, lookup.ErrClosed) {
		if c.opts.Errors.Handle(w, r, err) {
			return
		}
		shared.SetFlash(w, flashError, []byte(Reason(errors.Cause(err))))
	}
	http.Redirect(w, r, fmt.Sprintf("/%s/%d", entities.JobTemplatesPath, id), http.StatusSeeOther)
}

func (c *CredentialLookupController) Open(w http.ResponseWriter, r *http.Request) {
	id, wdg, ok := c.widget(w, r)
	if !ok {
		return
	}
	c.back(w, r, id, wdg.Open(r.Context()))
}

func (c *CredentialLookupController) Toggle(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.IDDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	id, wdg, ok := c.widget(w, r)
	if !ok {
		return
	}
	if err := wdg.ToggleID(dto.ID); err != nil && !errors.Is(err, lookup.ErrClosed) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.back(w, r, id, nil)
}

func (c *CredentialLookupController) Sort(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.SortDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	id, wdg, ok := c.widget(w, r)
	if !ok {
		return
	}
	order := listing.SortOrder(dto.Order)
	if order == "" {
		order = listing.Ascending
	}
	c.back(w, r, id, wdg.OnSort(r.Context(), dto.Key, order))
}

func (c *CredentialLookupController) Search(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.SearchDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	id, wdg, ok := c.widget(w, r)
	if !ok {
		return
	}
	c.back(w, r, id, wdg.OnSearch(r.Context(), dto.Key+listing.SearchSuffix, dto.Value))
}

func (c *CredentialLookupController) Page(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.PageDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	id, wdg, ok := c.widget(w, r)
	if !ok {
		return
	}
	c.back(w, r, id, wdg.OnSetPage(r.Context(), dto.Page, dto.PageSize))
}

func (c *CredentialLookupController) Save(w http.ResponseWriter, r *http.Request) {
	id, wdg, ok := c.widget(w, r)
	if !ok {
		return
	}
	err := wdg.Save(r.Context())
	if err == nil {
		c.store.Delete(widgetKey(r.Context(), id))
		shared.SetFlash(w, flashNotice, []byte(base.T(r.Context(), "JobTemplates.Credentials.Saved", "Credentials saved")))
	}
	c.back(w, r, id, err)
}

func (c *CredentialLookupController) Cancel(w http.ResponseWriter, r *http.Request) {
	id, wdg, ok := c.widget(w, r)
	if !ok {
		return
	}
	wdg.Cancel()
	c.store.Delete(widgetKey(r.Context(), id))
	c.back(w, r, id, nil)
}

func (c *CredentialLookupController) Remove(w http.ResponseWriter, r *http.Request) {
	dto := &dtos.IDDTO{}
	if !decodeForm(w, r, dto) {
		return
	}
	id, wdg, ok := c.widget(w, r)
	if !ok {
		return
	}
	c.back(w, r, id, wdg.Remove(r.Context(), dto.ID))
}
