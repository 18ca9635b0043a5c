package eventbus

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus() (EventBus, *bytes.Buffer) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.WarnLevel)
	return NewEventPublisher(log), &buf
}

func TestPublish_NoSubscribersLogged(t *testing.T) {
	bus, buf := newTestBus()
	bus.Subscribe(func(e *ResourcesDeletedEvent) {
		t.Error("should not be called")
	})
	bus.Publish(&RolesAssignedEvent{})

	assert.Contains(t, buf.String(), "no matching subscribers")
}

func TestPublish_MatchingHandler(t *testing.T) {
	bus, _ := newTestBus()
	var got *RolesAssignedEvent
	bus.Subscribe(func(e *RolesAssignedEvent) {
		got = e
	})
	ev := &RolesAssignedEvent{Granted: []RoleGrant{{ResourceKind: "users", ResourceID: 1, RoleID: 2}}}
	bus.Publish(ev)

	require.NotNil(t, got)
	assert.Same(t, ev, got)
}

func TestPublishE_CollectsErrorsAndPanics(t *testing.T) {
	bus, _ := newTestBus()
	boom := errors.New("boom")
	bus.Subscribe(func(context.Context, *ResourcesDeletedEvent) error { return boom })
	bus.Subscribe(func(context.Context, *ResourcesDeletedEvent) { panic("kaput") })
	bus.Subscribe(func(context.Context, *ResourcesDeletedEvent) error { return nil })

	err := bus.PublishE(context.Background(), &ResourcesDeletedEvent{Resource: "teams"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "panicked: kaput")
}

func TestPublishE_InvalidReturn(t *testing.T) {
	bus, _ := newTestBus()
	bus.Subscribe(func(*ResourcesDeletedEvent) int { return 1 })

	err := bus.PublishE(&ResourcesDeletedEvent{})
	assert.ErrorIs(t, err, ErrInvalidHandlerReturn)
}

func TestPublishE_NoSubscribers(t *testing.T) {
	bus, _ := newTestBus()
	assert.ErrorIs(t, bus.PublishE(&RolesAssignedEvent{}), ErrNoSubscribers)
}

func TestPublish_NilArgument(t *testing.T) {
	bus, _ := newTestBus()
	called := false
	bus.Subscribe(func(e *RolesAssignedEvent) {
		called = true
		assert.Nil(t, e)
	})
	bus.Publish(nil)
	assert.True(t, called)
}

func TestMatchSignature(t *testing.T) {
	assert.True(t, MatchSignature(func(*RolesAssignedEvent) {}, []interface{}{&RolesAssignedEvent{}}))
	assert.False(t, MatchSignature(func(*RolesAssignedEvent) {}, []interface{}{&ResourcesDeletedEvent{}}))
	assert.False(t, MatchSignature(func(*RolesAssignedEvent) {}, []interface{}{}))
	assert.True(t, MatchSignature(func(context.Context) {}, []interface{}{context.Background()}))
	assert.False(t, MatchSignature("not a func", nil))
}

func handlerA(*RolesAssignedEvent) {}
func handlerB(*RolesAssignedEvent) {}

func TestUnsubscribeAndClear(t *testing.T) {
	bus, _ := newTestBus()
	bus.Subscribe(handlerA)
	bus.Subscribe(handlerB)
	require.Equal(t, 2, bus.SubscribersCount())

	bus.Unsubscribe(handlerA)
	assert.Equal(t, 1, bus.SubscribersCount())

	bus.Clear()
	assert.Equal(t, 0, bus.SubscribersCount())
}

func TestSubscribe_PanicsOnNonFunc(t *testing.T) {
	bus, _ := newTestBus()
	assert.Panics(t, func() { bus.Subscribe(42) })
}
