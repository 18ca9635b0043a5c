package services_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/modules/access/services"
	"github.com/automationhub/console/modules/core/domain/entities"
	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/wizard"
)

type call struct {
	kind     string
	resource int
	role     int
}

type fakeCreator struct {
	mu    sync.Mutex
	calls []call
	// fail maps "kind:resource:role" to the error returned for it
	fail map[string]error
}

func (f *fakeCreator) record(kind string, resource, role int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind, resource, role})
	return f.fail[fmt.Sprintf("%s:%d:%d", kind, resource, role)]
}

func (f *fakeCreator) CreateUserRole(_ context.Context, userID, roleID int) error {
	return f.record("users", userID, roleID)
}

func (f *fakeCreator) CreateTeamRole(_ context.Context, teamID, roleID int) error {
	return f.record("teams", teamID, roleID)
}

var roles = []entities.Role{
	{ID: 10, Name: "Admin"},
	{ID: 11, Name: "Execute"},
	{ID: 12, Name: "Read"},
}

func newAssignment(creator *fakeCreator, onSave func()) *services.RoleAssignment {
	return services.NewRoleAssignment(services.Options{
		Creator: creator,
		Roles:   roles,
		OnSave:  onSave,
	})
}

func current(a *services.RoleAssignment) int {
	s := a.Snapshot()
	step, _ := s.Nav.Current(s.Steps)
	return step.ID
}

// pick walks the wizard to the roles step with rows and roles picked.
func pick(t *testing.T, a *services.RoleAssignment, kind services.ResourceKind, rows []int, roleIDs ...int) {
	t.Helper()
	require.NoError(t, a.SelectResource(kind))
	require.NoError(t, a.Next())
	for _, id := range rows {
		require.NoError(t, a.ToggleResourceRow(services.Principal{ID: id, Kind: kind}))
	}
	require.NoError(t, a.Next())
	for _, id := range roleIDs {
		require.NoError(t, a.ToggleRole(id))
	}
}

func TestRoleAssignment_Gating(t *testing.T) {
	a := newAssignment(&fakeCreator{}, nil)
	assert.Equal(t, services.StepResourceKind, current(a))

	require.ErrorIs(t, a.Next(), wizard.ErrStepLocked)
	require.ErrorIs(t, a.GoTo(services.StepRoles), wizard.ErrStepLocked)

	require.NoError(t, a.SelectResource(services.KindUsers))
	require.NoError(t, a.Next())
	assert.Equal(t, services.StepResources, current(a))
	require.ErrorIs(t, a.Next(), wizard.ErrStepLocked)

	require.NoError(t, a.ToggleResourceRow(services.Principal{ID: 1, Name: "admin", Kind: services.KindUsers}))
	require.NoError(t, a.Next())
	assert.Equal(t, services.StepRoles, current(a))
	assert.False(t, a.Snapshot().Steps[2].EnableNext)

	require.NoError(t, a.ToggleRole(11))
	assert.True(t, a.Snapshot().Steps[2].EnableNext)

	a.Back()
	a.Back()
	a.Back()
	assert.Equal(t, services.StepResourceKind, current(a))
	require.NoError(t, a.GoTo(services.StepRoles))
}

func TestRoleAssignment_SwitchingKindClearsPicks(t *testing.T) {
	a := newAssignment(&fakeCreator{}, nil)
	require.NoError(t, a.SelectResource(services.KindUsers))
	require.NoError(t, a.ToggleResourceRow(services.Principal{ID: 1, Kind: services.KindUsers}))
	require.NoError(t, a.ToggleRole(10))

	// the same kind again keeps everything
	require.NoError(t, a.SelectResource(services.KindUsers))
	assert.Equal(t, 1, a.Snapshot().Rows.Len())

	require.NoError(t, a.SelectResource(services.KindTeams))
	s := a.Snapshot()
	assert.Equal(t, services.KindTeams, s.Kind)
	assert.True(t, s.Rows.IsEmpty())
	assert.True(t, s.Roles.IsEmpty())
	assert.False(t, s.Steps[1].EnableNext)
}

func TestRoleAssignment_Validation(t *testing.T) {
	a := newAssignment(&fakeCreator{}, nil)
	require.ErrorIs(t, a.SelectResource("groups"), services.ErrUnknownKind)
	require.ErrorIs(t, a.ToggleResourceRow(services.Principal{ID: 1, Kind: services.KindUsers}), services.ErrNoKind)

	require.NoError(t, a.SelectResource(services.KindTeams))
	require.ErrorIs(t, a.ToggleResourceRow(services.Principal{ID: 1, Kind: services.KindUsers}), services.ErrUnknownKind)
	require.ErrorIs(t, a.ToggleRole(99), services.ErrUnknownRole)
	require.ErrorIs(t, a.Save(context.Background()), services.ErrIncomplete)
}

func TestRoleAssignment_ToggleTwiceRestores(t *testing.T) {
	a := newAssignment(&fakeCreator{}, nil)
	require.NoError(t, a.SelectResource(services.KindUsers))
	p := services.Principal{ID: 4, Name: "ops", Kind: services.KindUsers}
	require.NoError(t, a.ToggleResourceRow(p))
	got, ok := a.SelectedRow(4)
	require.True(t, ok)
	assert.Equal(t, p, got)
	require.NoError(t, a.ToggleResourceRow(p))
	assert.True(t, a.Snapshot().Rows.IsEmpty())
}

func TestRoleAssignment_SaveOneUserTwoRoles(t *testing.T) {
	creator := &fakeCreator{}
	saved := 0
	a := newAssignment(creator, func() { saved++ })

	pick(t, a, services.KindUsers, []int{3}, 10, 12)

	require.NoError(t, a.Save(context.Background()))
	assert.ElementsMatch(t, []call{{"users", 3, 10}, {"users", 3, 12}}, creator.calls)
	assert.Equal(t, 1, saved)

	require.ErrorIs(t, a.Save(context.Background()), services.ErrSaved)
	assert.Len(t, creator.calls, 2)
	assert.Equal(t, 1, saved)
}

func TestRoleAssignment_SaveCartesianProduct(t *testing.T) {
	creator := &fakeCreator{}
	a := newAssignment(creator, nil)

	pick(t, a, services.KindTeams, []int{1, 2, 3}, 10, 11)
	assert.Len(t, a.Grants(), 6)

	require.NoError(t, a.Save(context.Background()))
	require.Len(t, creator.calls, 6)
	for _, c := range creator.calls {
		assert.Equal(t, "teams", c.kind)
	}
}

func TestRoleAssignment_PartialFailure(t *testing.T) {
	forbidden := &apiclient.Error{StatusCode: http.StatusForbidden, Detail: "You do not have permission to perform this action."}
	creator := &fakeCreator{fail: map[string]error{"users:2:11": forbidden}}
	saved := 0
	bus := eventbus.NewEventPublisher(logrus.New())
	var events []*eventbus.RolesAssignedEvent
	bus.Subscribe(func(e *eventbus.RolesAssignedEvent) { events = append(events, e) })
	a := services.NewRoleAssignment(services.Options{
		Creator:   creator,
		Publisher: bus,
		Roles:     roles,
		OnSave:    func() { saved++ },
	})

	pick(t, a, services.KindUsers, []int{1, 2}, 11)

	err := a.Save(context.Background())
	var assignErr *services.AssignmentError
	require.ErrorAs(t, err, &assignErr)
	assert.Equal(t, []services.Grant{{Kind: services.KindUsers, ResourceID: 2, RoleID: 11}}, assignErr.Failed)
	assert.Equal(t, []services.Grant{{Kind: services.KindUsers, ResourceID: 1, RoleID: 11}}, assignErr.Granted)
	require.Len(t, assignErr.Errors(), 1)
	assert.Equal(t, 2, assignErr.Errors()[0].ResourceID)

	apiErr, ok := apiclient.AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	// every pair settled, none of them triggered the save callback
	assert.Len(t, creator.calls, 2)
	assert.Zero(t, saved)
	assert.Equal(t, err, a.Snapshot().Err)
	assert.Equal(t, 2, a.Snapshot().Rows.Len())

	require.Len(t, events, 1)
	assert.Equal(t, []eventbus.RoleGrant{{ResourceKind: "users", ResourceID: 1, RoleID: 11}}, events[0].Granted)
	assert.Equal(t, []eventbus.RoleGrant{{ResourceKind: "users", ResourceID: 2, RoleID: 11}}, events[0].Failed)

	// a retry after the failure was fixed succeeds
	creator.fail = nil
	require.NoError(t, a.Save(context.Background()))
	assert.Equal(t, 1, saved)
	assert.Nil(t, a.Snapshot().Err)
}

func TestRoleAssignment_SwitchingKindReturnsToFirstStep(t *testing.T) {
	a := newAssignment(&fakeCreator{}, nil)
	pick(t, a, services.KindUsers, []int{1}, 10)
	require.Equal(t, services.StepRoles, current(a))

	require.NoError(t, a.SelectResource(services.KindTeams))
	assert.Equal(t, services.StepResourceKind, current(a))
	require.ErrorIs(t, a.GoTo(services.StepRoles), wizard.ErrStepLocked)
	require.NoError(t, a.Next())
	require.ErrorIs(t, a.Next(), wizard.ErrStepLocked)
	require.ErrorIs(t, a.Save(context.Background()), services.ErrIncomplete)
}

func TestRoleAssignment_SaveOnlyFromLastStep(t *testing.T) {
	creator := &fakeCreator{}
	a := newAssignment(creator, nil)
	pick(t, a, services.KindUsers, []int{1}, 10)

	a.Back()
	require.Equal(t, services.StepResources, current(a))
	require.ErrorIs(t, a.Save(context.Background()), services.ErrNotLastStep)
	assert.Empty(t, creator.calls)

	require.NoError(t, a.Next())
	require.NoError(t, a.Save(context.Background()))
	assert.Len(t, creator.calls, 1)
}

type blockingCreator struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingCreator) CreateUserRole(context.Context, int, int) error {
	close(b.entered)
	<-b.release
	return nil
}

func (b *blockingCreator) CreateTeamRole(context.Context, int, int) error {
	return nil
}

func TestRoleAssignment_SaveGuards(t *testing.T) {
	creator := &blockingCreator{entered: make(chan struct{}), release: make(chan struct{})}
	saved := 0
	a := services.NewRoleAssignment(services.Options{
		Creator: creator,
		Roles:   roles,
		OnSave:  func() { saved++ },
	})
	pick(t, a, services.KindUsers, []int{1}, 10)

	done := make(chan error, 1)
	go func() { done <- a.Save(context.Background()) }()
	<-creator.entered
	assert.True(t, a.Snapshot().Saving)
	require.ErrorIs(t, a.Save(context.Background()), services.ErrSaving)

	close(creator.release)
	require.NoError(t, <-done)
	require.ErrorIs(t, a.Save(context.Background()), services.ErrSaved)
	assert.Equal(t, 1, saved)
}

func TestStore(t *testing.T) {
	store := services.NewStore()
	builds := 0
	build := func() (*services.RoleAssignment, error) {
		builds++
		return newAssignment(&fakeCreator{}, nil), nil
	}
	a, err := store.Get("s1:teams:1", build)
	require.NoError(t, err)
	b, err := store.Get("s1:teams:1", build)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, builds)

	_, err = store.Get("s2:teams:1", func() (*services.RoleAssignment, error) {
		return nil, assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, store.Len())

	store.Delete("s1:teams:1")
	_, ok := store.Load("s1:teams:1")
	assert.False(t, ok)

	for _, key := range []string{"s1:job_templates:4", "s1:teams:2", "s2:teams:2"} {
		_, err := store.Get(key, build)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, store.DeleteSession("s1"))
	_, ok = store.Load("s2:teams:2")
	assert.True(t, ok)
}
