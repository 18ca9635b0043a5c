package services

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/listing"
	"github.com/automationhub/console/pkg/qs"
)

// Associator links and unlinks records of a sub collection.
type Associator interface {
	Associate(ctx context.Context, id int, sub string, relatedID int) error
	Disassociate(ctx context.Context, id int, sub string, relatedID int) error
}

// AssociationService keeps the sub collection sub of one resource kind in
// line with a picked set of related records.
type AssociationService[T listing.Item] struct {
	api       *apiclient.Client
	kind      string
	sub       string
	assoc     Associator
	publisher eventbus.EventBus
}

func NewAssociationService[T listing.Item](
	api *apiclient.Client,
	path, sub string,
	assoc Associator,
	publisher eventbus.EventBus,
) *AssociationService[T] {
	return &AssociationService[T]{
		api:       api,
		kind:      strings.Trim(path, "/"),
		sub:       strings.Trim(sub, "/"),
		assoc:     assoc,
		publisher: publisher,
	}
}

func (s *AssociationService[T]) Sub() string {
	return s.sub
}

// List reads the related records currently linked to id.
func (s *AssociationService[T]) List(ctx context.Context, id int, params qs.Params) (listing.Page[T], error) {
	return ListSub[T](ctx, s.api, s.subPath(id), params)
}

func (s *AssociationService[T]) subPath(id int) string {
	return s.kind + "/" + strconv.Itoa(id) + "/" + s.sub + "/"
}

// Diff returns the ids to link and to unlink to turn current into next.
func Diff[T listing.Item](current, next []T) (added, removed []int) {
	have := make(map[int]bool, len(current))
	for _, item := range current {
		have[item.GetID()] = true
	}
	want := make(map[int]bool, len(next))
	for _, item := range next {
		want[item.GetID()] = true
		if !have[item.GetID()] {
			added = append(added, item.GetID())
		}
	}
	for _, item := range current {
		if !want[item.GetID()] {
			removed = append(removed, item.GetID())
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	return slices.Compact(added), slices.Compact(removed)
}

// Apply links the records of next missing from current and unlinks the
// ones no longer picked. Every call is made even when some fail.
func (s *AssociationService[T]) Apply(ctx context.Context, id int, current, next []T) error {
	added, removed := Diff(current, next)
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	var (
		mu   sync.Mutex
		errs error
		ok   = map[int]bool{}
	)
	g, gctx := errgroup.WithContext(ctx)
	run := func(relatedID int, call func(context.Context, int, string, int) error, verb string) {
		g.Go(func() error {
			err := call(gctx, id, s.sub, relatedID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, errors.Wrapf(err, "%s %s %d", verb, s.sub, relatedID))
				return nil
			}
			ok[relatedID] = true
			return nil
		})
	}
	for _, relatedID := range added {
		run(relatedID, s.assoc.Associate, "associate")
	}
	for _, relatedID := range removed {
		run(relatedID, s.assoc.Disassociate, "disassociate")
	}
	_ = g.Wait()

	if s.publisher != nil {
		s.publisher.Publish(&eventbus.AssociationsChangedEvent{
			Resource:      s.kind,
			ID:            id,
			Sub:           s.sub,
			Associated:    keep(added, ok),
			Disassociated: keep(removed, ok),
			At:            time.Now(),
		})
	}
	return errs
}

func keep(ids []int, ok map[int]bool) []int {
	var out []int
	for _, id := range ids {
		if ok[id] {
			out = append(out, id)
		}
	}
	return out
}
