package handlers

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/pkg/eventbus"
)

func TestAuditHandler(t *testing.T) {
	logger, hook := test.NewNullLogger()
	bus := eventbus.NewEventPublisher(logger)
	RegisterAuditHandler(bus, logger)
	assert.Equal(t, 3, bus.SubscribersCount())

	bus.Publish(&eventbus.ResourcesDeletedEvent{Resource: "teams", Deleted: []int{1}, Failed: []int{2}, At: time.Now()})
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "teams", entry.Data["resource"])
	assert.Equal(t, "audit", entry.Data["component"])

	hook.Reset()
	bus.Publish(&eventbus.RolesAssignedEvent{
		Granted: []eventbus.RoleGrant{{ResourceKind: "users", ResourceID: 1, RoleID: 7}},
		Failed:  []eventbus.RoleGrant{{ResourceKind: "users", ResourceID: 1, RoleID: 8}},
	})
	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, "role grant failed", hook.AllEntries()[0].Message)
	assert.Equal(t, 8, hook.AllEntries()[0].Data["role-id"])
	assert.Equal(t, "roles assigned", hook.LastEntry().Message)
}
