package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/listing"
	"github.com/automationhub/console/pkg/qs"
)

// maxConcurrentDeletes bounds the fan-out of one bulk delete.
const maxConcurrentDeletes = 8

// BulkDeleteError reports the records a bulk delete could not remove.
type BulkDeleteError struct {
	Resource string
	Deleted  []int
	Failed   map[int]error
}

func (e *BulkDeleteError) Error() string {
	ids := e.FailedIDs()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d: %v", id, e.Failed[id]))
	}
	return fmt.Sprintf("failed to delete %d %s (%s)", len(ids), e.Resource, strings.Join(parts, "; "))
}

// Unwrap exposes the per-record errors to errors.Is and errors.As.
func (e *BulkDeleteError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, id := range e.FailedIDs() {
		out = append(out, e.Failed[id])
	}
	return out
}

func (e *BulkDeleteError) FailedIDs() []int {
	ids := make([]int, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ResourceService reads and deletes the records of one collection endpoint.
type ResourceService[T listing.Item] struct {
	kind      string
	resource  *apiclient.Resource[T]
	publisher eventbus.EventBus
}

func NewResourceService[T listing.Item](api *apiclient.Client, path string, publisher eventbus.EventBus) *ResourceService[T] {
	return &ResourceService[T]{
		kind:      strings.Trim(path, "/"),
		resource:  apiclient.NewResource[T](api, path),
		publisher: publisher,
	}
}

func (s *ResourceService[T]) Kind() string {
	return s.kind
}

func (s *ResourceService[T]) Resource() *apiclient.Resource[T] {
	return s.resource
}

func (s *ResourceService[T]) List(ctx context.Context, params qs.Params) (listing.Page[T], error) {
	resp, err := s.resource.Read(ctx, params)
	if err != nil {
		return listing.Page[T]{}, err
	}
	return listing.Page[T]{Items: resp.Results, Count: resp.Count}, nil
}

// Count reads only the total of the collection.
func (s *ResourceService[T]) Count(ctx context.Context) (int, error) {
	resp, err := s.resource.Read(ctx, qs.Params{"page_size": 1})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (s *ResourceService[T]) GetByID(ctx context.Context, id int) (*T, error) {
	return s.resource.ReadDetail(ctx, id)
}

// ListSub reads a sub collection such as job_templates/4/credentials/.
func ListSub[T any](ctx context.Context, api *apiclient.Client, path string, params qs.Params) (listing.Page[T], error) {
	resp, err := apiclient.ReadList[T](ctx, api, path, params)
	if err != nil {
		return listing.Page[T]{}, err
	}
	return listing.Page[T]{Items: resp.Results, Count: resp.Count}, nil
}

// Delete removes every record in ids concurrently and waits for all calls to
// settle. Failures are collected per record into a *BulkDeleteError, the
// records that were removed stay removed.
func (s *ResourceService[T]) Delete(ctx context.Context, ids []int) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		deleted []int
		failed  = map[int]error{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDeletes)
	for _, id := range ids {
		g.Go(func() error {
			err := s.resource.Destroy(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[id] = err
			} else {
				deleted = append(deleted, id)
			}
			// never cancel the siblings, every record gets its call
			return nil
		})
	}
	_ = g.Wait()
	sort.Ints(deleted)

	event := &eventbus.ResourcesDeletedEvent{
		Resource: s.kind,
		Deleted:  deleted,
		At:       time.Now(),
	}
	var errs error
	for _, id := range ids {
		if err, ok := failed[id]; ok {
			event.Failed = append(event.Failed, id)
			errs = multierr.Append(errs, err)
		}
	}
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
	if errs == nil {
		return nil
	}
	return &BulkDeleteError{Resource: s.kind, Deleted: deleted, Failed: failed}
}

func uniqueIDs(ids []int) []int {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
