package lookup_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/pkg/listing"
	"github.com/automationhub/console/pkg/lookup"
	"github.com/automationhub/console/pkg/qs"
)

type cred struct {
	ID   int
	Name string
}

func (c cred) GetID() int      { return c.ID }
func (c cred) GetURL() string  { return "" }
func (c cred) GetName() string { return c.Name }

type fakeAPI struct {
	mu    sync.Mutex
	items []cred
	calls []qs.Params
	err   error
}

func (f *fakeAPI) getItems(_ context.Context, params qs.Params) (listing.Page[cred], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	if f.err != nil {
		return listing.Page[cred]{}, f.err
	}
	return listing.Page[cred]{Items: f.items, Count: len(f.items)}, nil
}

func (f *fakeAPI) last() qs.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type saveCall struct {
	selected []cred
	field    string
}

func newWidget(api *fakeAPI, value []cred, saves *[]saveCall) *lookup.Widget[cred] {
	return lookup.New(lookup.Options[cred]{
		ID:             "credentials",
		Header:         "Select Credentials",
		FieldName:      "credentials",
		ItemName:       "Credential",
		ItemNamePlural: "Credentials",
		Multiple:       true,
		Config: qs.GetQSConfig("credentials", qs.Params{
			"page":      1,
			"page_size": 5,
			"order_by":  "name",
		}),
		Columns:       []listing.Column{{Name: "Name", Key: "name", Sortable: true}},
		SearchColumns: []listing.Column{{Name: "Name", Key: "name"}},
		GetItems:      api.getItems,
		OnSave: func(_ context.Context, selected []cred, field string) error {
			*saves = append(*saves, saveCall{selected: selected, field: field})
			return nil
		},
		Value: value,
	})
}

func TestSave_UntouchedValueSavedOnce(t *testing.T) {
	api := &fakeAPI{items: []cred{{ID: 1, Name: "foo"}, {ID: 2, Name: "bar"}}}
	var saves []saveCall
	w := newWidget(api, []cred{{ID: 1, Name: "foo"}}, &saves)

	require.NoError(t, w.Open(context.Background()))
	require.NoError(t, w.Save(context.Background()))

	require.Len(t, saves, 1)
	assert.Equal(t, []cred{{ID: 1, Name: "foo"}}, saves[0].selected)
	assert.Equal(t, "credentials", saves[0].field)
	assert.False(t, w.IsOpen())

	assert.ErrorIs(t, w.Save(context.Background()), lookup.ErrClosed)
	assert.Len(t, saves, 1)
}

func TestSave_FailureKeepsModalOpen(t *testing.T) {
	api := &fakeAPI{items: []cred{{ID: 1, Name: "foo"}, {ID: 2, Name: "bar"}}}
	boom := errors.New("boom")
	attempts := 0
	w := lookup.New(lookup.Options[cred]{
		FieldName: "credentials",
		Multiple:  true,
		Config:    qs.GetQSConfig("credentials", qs.Params{"page": 1, "page_size": 5}),
		GetItems:  api.getItems,
		OnSave: func(context.Context, []cred, string) error {
			attempts++
			if attempts == 1 {
				return boom
			}
			return nil
		},
		Value: []cred{{ID: 1, Name: "foo"}},
	})

	require.NoError(t, w.Open(context.Background()))
	require.NoError(t, w.ToggleID(2))

	require.ErrorIs(t, w.Save(context.Background()), boom)
	snap := w.Snapshot()
	assert.True(t, snap.Open)
	assert.Equal(t, []int{1, 2}, snap.Selected.IDs())
	assert.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, []cred{{ID: 1, Name: "foo"}}, snap.Value)

	// the kept selection can be saved again
	require.NoError(t, w.Save(context.Background()))
	snap = w.Snapshot()
	assert.False(t, snap.Open)
	assert.NoError(t, snap.Err)
	assert.Equal(t, []int{1, 2}, selectionIDs(snap.Value))
	assert.Equal(t, 2, attempts)
}

func TestSave_ConcurrentSaveRejected(t *testing.T) {
	api := &fakeAPI{items: []cred{{ID: 1, Name: "foo"}}}
	entered := make(chan struct{})
	release := make(chan struct{})
	w := lookup.New(lookup.Options[cred]{
		Config:   qs.GetQSConfig("c", qs.Params{"page": 1, "page_size": 5}),
		GetItems: api.getItems,
		OnSave: func(context.Context, []cred, string) error {
			close(entered)
			<-release
			return nil
		},
	})
	require.NoError(t, w.Open(context.Background()))

	done := make(chan error, 1)
	go func() { done <- w.Save(context.Background()) }()
	<-entered
	assert.ErrorIs(t, w.Save(context.Background()), lookup.ErrSaving)
	close(release)
	require.NoError(t, <-done)
}

func selectionIDs(items []cred) []int {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestOpen_ReseedsFromValue(t *testing.T) {
	api := &fakeAPI{items: []cred{{ID: 1, Name: "foo"}, {ID: 2, Name: "bar"}}}
	var saves []saveCall
	w := newWidget(api, []cred{{ID: 1, Name: "foo"}}, &saves)

	require.NoError(t, w.Open(context.Background()))
	require.NoError(t, w.ToggleID(2))
	assert.Equal(t, []int{1, 2}, w.Snapshot().Selected.IDs())
	w.Cancel()

	require.NoError(t, w.Open(context.Background()))
	assert.Equal(t, []int{1}, w.Snapshot().Selected.IDs())
	assert.Empty(t, saves)
}

func TestToggle(t *testing.T) {
	api := &fakeAPI{items: []cred{{ID: 1, Name: "foo"}, {ID: 2, Name: "bar"}}}
	var saves []saveCall
	w := newWidget(api, nil, &saves)

	assert.ErrorIs(t, w.ToggleID(1), lookup.ErrClosed)

	require.NoError(t, w.Open(context.Background()))
	require.NoError(t, w.ToggleID(2))
	require.NoError(t, w.ToggleID(2))
	assert.True(t, w.Snapshot().Selected.IsEmpty())

	assert.ErrorIs(t, w.ToggleID(99), lookup.ErrUnknownItem)
}

func TestToggle_SingleReplaces(t *testing.T) {
	api := &fakeAPI{items: []cred{{ID: 1, Name: "foo"}, {ID: 2, Name: "bar"}}}
	w := lookup.New(lookup.Options[cred]{
		Config:   qs.GetQSConfig("c", qs.Params{"page": 1, "page_size": 5}),
		GetItems: api.getItems,
	})
	require.NoError(t, w.Open(context.Background()))
	w.ToggleSelected(cred{ID: 1, Name: "foo"})
	w.ToggleSelected(cred{ID: 2, Name: "bar"})
	assert.Equal(t, []int{2}, w.Snapshot().Selected.IDs())
}

func TestSortSearchPage(t *testing.T) {
	api := &fakeAPI{items: []cred{{ID: 1, Name: "foo"}}}
	var saves []saveCall
	w := newWidget(api, nil, &saves)
	ctx := context.Background()

	require.NoError(t, w.Open(ctx))
	require.NoError(t, w.OnSetPage(ctx, 3, 10))
	assert.Equal(t, 3, api.last()["page"])
	assert.Equal(t, 10, api.last()["page_size"])

	require.NoError(t, w.OnSort(ctx, "name", listing.Descending))
	assert.Equal(t, "-name", api.last()["order_by"])
	assert.Equal(t, 1, api.last()["page"], "sorting returns to the first page")
	assert.Equal(t, 10, api.last()["page_size"])

	require.NoError(t, w.OnSetPage(ctx, 2, 10))
	require.NoError(t, w.OnSearch(ctx, "name__icontains", "fo"))
	assert.Equal(t, "fo", api.last()["name__icontains"])
	assert.Equal(t, 1, api.last()["page"])
	assert.Equal(t, "-name", api.last()["order_by"], "search keeps the sort")

	require.NoError(t, w.OnSearch(ctx, "name__icontains", ""))
	_, ok := api.last()["name__icontains"]
	assert.False(t, ok)

	w.Cancel()
	assert.ErrorIs(t, w.OnSetPage(ctx, 1, 5), lookup.ErrClosed)
}

func TestSnapshot_EmptyHidesSave(t *testing.T) {
	api := &fakeAPI{}
	var saves []saveCall
	w := newWidget(api, nil, &saves)
	require.NoError(t, w.Open(context.Background()))

	snap := w.Snapshot()
	assert.True(t, snap.Empty)
	assert.False(t, snap.ShowSave)

	w.SetValue([]cred{{ID: 4, Name: "kept"}})
	w.Cancel()
	require.NoError(t, w.Open(context.Background()))
	snap = w.Snapshot()
	assert.False(t, snap.Empty)
	assert.True(t, snap.ShowSave, "an existing selection can still be saved")
}

func TestFetchError(t *testing.T) {
	api := &fakeAPI{err: errors.New("unreachable")}
	var saves []saveCall
	w := newWidget(api, nil, &saves)

	err := w.Open(context.Background())
	require.Error(t, err)
	snap := w.Snapshot()
	assert.EqualError(t, snap.Err, "unreachable")
	assert.False(t, snap.Empty)
}

func TestFetch_StaleResponseDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	w := lookup.New(lookup.Options[cred]{
		Multiple: true,
		Config:   qs.GetQSConfig("c", qs.Params{"page": 1, "page_size": 5}),
		GetItems: func(ctx context.Context, params qs.Params) (listing.Page[cred], error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				close(started)
				<-release
				return listing.Page[cred]{Items: []cred{{ID: 1, Name: "stale"}}, Count: 1}, ctx.Err()
			}
			return listing.Page[cred]{Items: []cred{{ID: 2, Name: "fresh"}}, Count: 1}, nil
		},
	})

	done := make(chan error, 1)
	go func() { done <- w.Open(context.Background()) }()
	<-started

	require.NoError(t, w.OnSetPage(context.Background(), 2, 5))
	close(release)
	require.NoError(t, <-done, "a superseded fetch is not an error")

	snap := w.Snapshot()
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "fresh", snap.Results[0].Name)
	assert.NoError(t, snap.Err)
}

func TestRemove(t *testing.T) {
	api := &fakeAPI{}
	var saves []saveCall
	w := newWidget(api, []cred{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, &saves)

	require.NoError(t, w.Remove(context.Background(), 1))
	assert.Equal(t, []cred{{ID: 2, Name: "b"}}, w.Value())
	require.Len(t, saves, 1)
	assert.Equal(t, []cred{{ID: 2, Name: "b"}}, saves[0].selected)
}

func TestStore(t *testing.T) {
	s := lookup.NewStore[cred]()
	builds := 0
	build := func() *lookup.Widget[cred] {
		builds++
		return lookup.New(lookup.Options[cred]{})
	}
	a := s.Get("sid:creds", build)
	b := s.Get("sid:creds", build)
	assert.Same(t, a, b)
	assert.Equal(t, 1, builds)

	loaded, ok := s.Load("sid:creds")
	require.True(t, ok)
	assert.Same(t, a, loaded)

	s.Delete("sid:creds")
	assert.Equal(t, 0, s.Len())

	s.Get("s1:job_template:4", build)
	s.Get("s1:job_template:5", build)
	s.Get("s10:job_template:4", build)
	assert.Equal(t, 2, s.DeleteSession("s1"))
	_, ok = s.Load("s10:job_template:4")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestRender(t *testing.T) {
	api := &fakeAPI{items: []cred{{ID: 1, Name: "foo"}, {ID: 2, Name: "bar"}}}
	var saves []saveCall
	w := newWidget(api, []cred{{ID: 1, Name: "foo"}}, &saves)
	urls := lookup.URLs{
		Open:   "/l/open",
		Toggle: "/l/toggle",
		Sort:   "/l/sort",
		Search: "/l/search",
		Page:   "/l/page",
		Save:   "/l/save",
		Cancel: "/l/cancel",
		Remove: "/l/remove",
	}

	render := func() *goquery.Document {
		var buf bytes.Buffer
		require.NoError(t, lookup.Render(w.Snapshot(), urls).Render(context.Background(), &buf))
		doc, err := goquery.NewDocumentFromReader(&buf)
		require.NoError(t, err)
		return doc
	}

	doc := render()
	assert.Equal(t, 0, doc.Find(".lookup-modal").Length())
	assert.Equal(t, 1, doc.Find(`.lookup-value [data-chip="foo"]`).Length())
	assert.Equal(t, 1, doc.Find(`form[action="/l/open"]`).Length())

	require.NoError(t, w.Open(context.Background()))
	doc = render()
	modal := doc.Find(".lookup-modal")
	require.Equal(t, 1, modal.Length())
	assert.Equal(t, 2, modal.Find("li.lookup-row").Length())
	_, checked := modal.Find(`li[data-id="1"] input[type="checkbox"]`).Attr("checked")
	assert.True(t, checked)
	assert.Equal(t, 1, modal.Find(`form[action="/l/save"]`).Length())
	assert.Equal(t, 1, modal.Find(`form[action="/l/cancel"]`).Length())
}

func TestRender_EmptyOnlyClose(t *testing.T) {
	var saves []saveCall
	w := newWidget(&fakeAPI{}, nil, &saves)
	require.NoError(t, w.Open(context.Background()))

	var buf bytes.Buffer
	urls := lookup.URLs{Save: "/l/save", Cancel: "/l/cancel"}
	require.NoError(t, lookup.Render(w.Snapshot(), urls).Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	assert.Equal(t, "No Credentials Found", doc.Find(".content-empty h3").Text())
	assert.Equal(t, 0, doc.Find(`form[action="/l/save"]`).Length())
	assert.Equal(t, "Close", doc.Find(`form[action="/l/cancel"] button`).Text())
}
