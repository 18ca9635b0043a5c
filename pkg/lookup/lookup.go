// Package lookup implements the lookup field: a value shown as chips and a
// modal running its own paginated search from which the value is picked.
package lookup

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/automationhub/console/pkg/composables"
	"github.com/automationhub/console/pkg/listing"
	"github.com/automationhub/console/pkg/qs"
	"github.com/automationhub/console/pkg/selection"
)

var (
	ErrClosed      = errors.New("lookup is closed")
	ErrSaving      = errors.New("lookup is already saving")
	ErrUnknownItem = errors.New("item is neither listed nor selected")
)

// GetItemsFunc fetches one page of candidates for params.
type GetItemsFunc[T listing.Item] func(ctx context.Context, params qs.Params) (listing.Page[T], error)

// SaveFunc receives the picked items and the name of the field they belong
// to.
type SaveFunc[T listing.Item] func(ctx context.Context, selected []T, fieldName string) error

type Options[T listing.Item] struct {
	ID             string
	Header         string
	FieldName      string
	ItemName       string
	ItemNamePlural string
	// Multiple allows picking more than one item, otherwise picking an item
	// replaces the selection.
	Multiple      bool
	Config        qs.Config
	Columns       []listing.Column
	SearchColumns []listing.Column
	GetItems      GetItemsFunc[T]
	OnSave        SaveFunc[T]
	Value         []T
}

// Widget is the state of one lookup field. All methods are safe for
// concurrent use.
type Widget[T listing.Item] struct {
	mu sync.Mutex

	opts     Options[T]
	value    []T
	open     bool
	selected selection.Set[T]
	params   qs.Params
	results  []T
	count    int
	loading  bool
	saving   bool
	err      error

	seq    listing.Sequencer
	cancel context.CancelFunc
}

func New[T listing.Item](opts Options[T]) *Widget[T] {
	return &Widget[T]{
		opts:   opts,
		value:  append([]T(nil), opts.Value...),
		params: opts.Config.Defaults.Clone(),
	}
}

func (w *Widget[T]) Options() Options[T] {
	return w.opts
}

// SetValue replaces the field value shown outside the modal. The selection of
// an open modal is left alone, it is re-seeded on the next Open.
func (w *Widget[T]) SetValue(value []T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.value = append([]T(nil), value...)
}

func (w *Widget[T]) Value() []T {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]T(nil), w.value...)
}

func (w *Widget[T]) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

// Open opens the modal with the selection seeded from the current value and
// the search reset to its defaults, then fetches the first page.
func (w *Widget[T]) Open(ctx context.Context) error {
	w.mu.Lock()
	w.open = true
	w.selected = selection.FromItems(w.value...)
	w.params = w.opts.Config.Defaults.Clone()
	w.mu.Unlock()
	return w.fetch(ctx)
}

// ToggleSelected adds or removes item from the modal selection.
func (w *Widget[T]) ToggleSelected(item T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.toggle(item)
}

func (w *Widget[T]) toggle(item T) {
	if w.opts.Multiple || w.selected.Contains(item.GetID()) {
		w.selected = w.selected.Toggle(item)
		return
	}
	w.selected = selection.FromItems(item)
}

// ToggleID toggles the listed or selected item with id.
func (w *Widget[T]) ToggleID(id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return ErrClosed
	}
	if item, ok := w.selected.Get(id); ok {
		w.toggle(item)
		return nil
	}
	for _, item := range w.results {
		if item.GetID() == id {
			w.toggle(item)
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownItem, "id %d", id)
}

// OnSort sorts the candidates by key and returns to the first page.
func (w *Widget[T]) OnSort(ctx context.Context, key string, order listing.SortOrder) error {
	return w.update(ctx, qs.Params{
		"order_by": listing.OrderByValue(key, order),
		"page":     nil,
	})
}

// OnSearch filters the candidates by key, an empty value clears the filter.
// The search returns to the first page.
func (w *Widget[T]) OnSearch(ctx context.Context, key, value string) error {
	patch := qs.Params{"page": nil}
	if value == "" {
		patch[key] = nil
	} else {
		patch[key] = value
	}
	return w.update(ctx, patch)
}

// OnSetPage moves to page with pageSize candidates, the sort is kept.
func (w *Widget[T]) OnSetPage(ctx context.Context, page, pageSize int) error {
	return w.update(ctx, qs.Params{
		"page":      page,
		"page_size": pageSize,
	})
}

func (w *Widget[T]) update(ctx context.Context, patch qs.Params) error {
	w.mu.Lock()
	if !w.open {
		w.mu.Unlock()
		return ErrClosed
	}
	// a removed key falls back to its default
	w.params = qs.Merge(w.opts.Config.Defaults, qs.Merge(w.params, patch))
	w.mu.Unlock()
	return w.fetch(ctx)
}

// fetch loads the page for the current params. A fetch started later
// cancels this one, and its result is dropped if it lands after a newer one.
func (w *Widget[T]) fetch(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	ticket := w.seq.Begin()
	params := w.params.Clone()
	w.loading = true
	w.mu.Unlock()
	defer cancel()

	page, err := w.opts.GetItems(ctx, params)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !ticket.IsLatest() {
		composables.UseLogger(ctx).WithField("lookup", w.opts.ID).Debug("dropping superseded lookup response")
		return nil
	}
	w.cancel = nil
	w.loading = false
	if err != nil {
		w.err = err
		w.results = nil
		w.count = 0
		return errors.Wrap(err, "lookup fetch")
	}
	w.err = nil
	w.results = append([]T(nil), page.Items...)
	w.count = page.Count
	return nil
}

// Save hands the selection to OnSave. On success the selection becomes the
// value and the modal closes; on failure the modal stays open with the
// selection kept and the error in the snapshot.
func (w *Widget[T]) Save(ctx context.Context) error {
	w.mu.Lock()
	if !w.open {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.saving {
		w.mu.Unlock()
		return ErrSaving
	}
	w.saving = true
	selected := w.selected.Items()
	w.mu.Unlock()

	// OnSave may call back into SetValue, so the lock is not held here
	var err error
	if w.opts.OnSave != nil {
		err = w.opts.OnSave(ctx, selected, w.opts.FieldName)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.saving = false
	if err != nil {
		w.err = err
		return errors.Wrap(err, "lookup save")
	}
	w.value = selected
	w.close()
	return nil
}

// Cancel closes the modal and discards the selection.
func (w *Widget[T]) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.close()
}

func (w *Widget[T]) close() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.seq.Begin()
	w.open = false
	w.loading = false
	w.selected = selection.Set[T]{}
	w.results = nil
	w.count = 0
	w.err = nil
}

// Remove drops the item with id from the field value and saves the rest.
// It backs the chips shown outside the modal.
func (w *Widget[T]) Remove(ctx context.Context, id int) error {
	w.mu.Lock()
	next := make([]T, 0, len(w.value))
	for _, item := range w.value {
		if item.GetID() != id {
			next = append(next, item)
		}
	}
	w.value = next
	w.mu.Unlock()

	if w.opts.OnSave == nil {
		return nil
	}
	return w.opts.OnSave(ctx, append([]T(nil), next...), w.opts.FieldName)
}

// Snapshot is a consistent copy of the widget state for rendering.
type Snapshot[T listing.Item] struct {
	Options[T]
	Open     bool
	Value    []T
	Selected selection.Set[T]
	Results  []T
	Count    int
	Params   qs.Params
	State    listing.State
	Loading  bool
	Err      error
	// Empty is set when the search found nothing and nothing is selected:
	// the modal then shows an empty state and only a close action.
	Empty    bool
	ShowSave bool
}

func (w *Widget[T]) Snapshot() Snapshot[T] {
	w.mu.Lock()
	defer w.mu.Unlock()
	empty := w.open && !w.loading && w.err == nil && len(w.results) == 0 && w.selected.IsEmpty()
	return Snapshot[T]{
		Options:  w.opts,
		Open:     w.open,
		Value:    append([]T(nil), w.value...),
		Selected: w.selected,
		Results:  append([]T(nil), w.results...),
		Count:    w.count,
		Params:   w.params.Clone(),
		State:    listing.FromParams(w.params),
		Loading:  w.loading,
		Err:      w.err,
		Empty:    empty,
		ShowSave: w.open && (len(w.results) > 0 || !w.selected.IsEmpty()),
	}
}
