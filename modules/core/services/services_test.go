package services_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/modules/core/domain/entities"
	"github.com/automationhub/console/modules/core/services"
	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/itf"
	"github.com/automationhub/console/pkg/qs"
)

func TestResourceService_List(t *testing.T) {
	api := itf.NewFakeAPI(t).List("teams/", 42, []entities.Team{{ID: 1, Name: "ops"}, {ID: 2, Name: "dev"}})
	svc := services.NewResourceService[entities.Team](api.Client(t), entities.TeamsPath, nil)

	page, err := svc.List(context.Background(), qs.Params{"page": 2, "page_size": 5, "order_by": "-name"})
	require.NoError(t, err)
	assert.Equal(t, 42, page.Count)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "ops", page.Items[0].Name)
	assert.Equal(t, "teams", svc.Kind())

	calls := api.CallsTo(http.MethodGet, "teams/")
	require.Len(t, calls, 1)
	assert.Equal(t, "order_by=-name&page=2&page_size=5", calls[0].Query)
}

func TestResourceService_Delete_PartialFailure(t *testing.T) {
	api := itf.NewFakeAPI(t).
		NoContent(http.MethodDelete, "teams/1/").
		JSON(http.MethodDelete, "teams/2/", http.StatusForbidden, map[string]any{"detail": "nope"}).
		NoContent(http.MethodDelete, "teams/3/")

	bus := eventbus.NewEventPublisher(logrus.New())
	var events []*eventbus.ResourcesDeletedEvent
	bus.Subscribe(func(e *eventbus.ResourcesDeletedEvent) {
		events = append(events, e)
	})
	svc := services.NewResourceService[entities.Team](api.Client(t), entities.TeamsPath, bus)

	err := svc.Delete(context.Background(), []int{3, 1, 2, 2})
	require.Error(t, err)

	var bulk *services.BulkDeleteError
	require.ErrorAs(t, err, &bulk)
	assert.Equal(t, []int{2}, bulk.FailedIDs())
	assert.Equal(t, []int{1, 3}, bulk.Deleted)
	assert.True(t, apiclient.IsForbidden(bulk.Failed[2]))

	// every id is called once, duplicates collapse
	assert.Len(t, api.Calls(), 3)

	require.Len(t, events, 1)
	assert.Equal(t, "teams", events[0].Resource)
	assert.Equal(t, []int{1, 3}, events[0].Deleted)
	assert.Equal(t, []int{2}, events[0].Failed)
}

func TestResourceService_Delete_Empty(t *testing.T) {
	api := itf.NewFakeAPI(t)
	svc := services.NewResourceService[entities.Team](api.Client(t), entities.TeamsPath, nil)
	require.NoError(t, svc.Delete(context.Background(), nil))
	assert.Empty(t, api.Calls())
}

func TestDiff(t *testing.T) {
	current := []entities.Credential{{ID: 1}, {ID: 2}, {ID: 3}}
	next := []entities.Credential{{ID: 2}, {ID: 4}, {ID: 5}}
	added, removed := services.Diff(current, next)
	assert.Equal(t, []int{4, 5}, added)
	assert.Equal(t, []int{1, 3}, removed)

	added, removed = services.Diff(current, current)
	assert.Empty(t, added)
	assert.Empty(t, removed)
}

type fakeAssociator struct {
	associated    atomic.Int32
	disassociated atomic.Int32
	fail          int
}

func (f *fakeAssociator) Associate(_ context.Context, _ int, _ string, relatedID int) error {
	if relatedID == f.fail {
		return &apiclient.Error{StatusCode: http.StatusBadRequest, Detail: "bad credential"}
	}
	f.associated.Add(1)
	return nil
}

func (f *fakeAssociator) Disassociate(context.Context, int, string, int) error {
	f.disassociated.Add(1)
	return nil
}

func TestAssociationService_Apply(t *testing.T) {
	bus := eventbus.NewEventPublisher(logrus.New())
	var got *eventbus.AssociationsChangedEvent
	bus.Subscribe(func(e *eventbus.AssociationsChangedEvent) { got = e })

	assoc := &fakeAssociator{fail: 5}
	svc := services.NewAssociationService[entities.Credential](nil, entities.JobTemplatesPath, "credentials", assoc, bus)

	err := svc.Apply(context.Background(), 7,
		[]entities.Credential{{ID: 1}, {ID: 2}},
		[]entities.Credential{{ID: 2}, {ID: 4}, {ID: 5}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "associate credentials 5")
	assert.EqualValues(t, 1, assoc.associated.Load())
	assert.EqualValues(t, 1, assoc.disassociated.Load())

	require.NotNil(t, got)
	assert.Equal(t, 7, got.ID)
	assert.Equal(t, []int{4}, got.Associated)
	assert.Equal(t, []int{1}, got.Disassociated)
}

func TestAssociationService_ApplyNoChange(t *testing.T) {
	assoc := &fakeAssociator{}
	svc := services.NewAssociationService[entities.Credential](nil, entities.JobTemplatesPath, "credentials", assoc, nil)
	value := []entities.Credential{{ID: 1}}
	require.NoError(t, svc.Apply(context.Background(), 7, value, value))
	assert.Zero(t, assoc.associated.Load())
}

func TestAssociationService_List(t *testing.T) {
	api := itf.NewFakeAPI(t).List("job_templates/7/credentials/", 1, []entities.Credential{{ID: 3, Name: "ssh"}})
	svc := services.NewAssociationService[entities.Credential](api.Client(t), entities.JobTemplatesPath, "credentials", nil, nil)
	page, err := svc.List(context.Background(), 7, qs.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "ssh", page.Items[0].Name)
}
