package eventbus

import (
	"time"
)

// RoleGrant is one granted (resource, role) pair.
type RoleGrant struct {
	ResourceKind string
	ResourceID   int
	RoleID       int
}

// RolesAssignedEvent is published after a role wizard batch settled.
type RolesAssignedEvent struct {
	Granted []RoleGrant
	Failed  []RoleGrant
	At      time.Time
}

// ResourcesDeletedEvent is published after a bulk delete.
type ResourcesDeletedEvent struct {
	Resource string
	Deleted  []int
	Failed   []int
	At       time.Time
}

// AssociationsChangedEvent is published after a lookup selection was
// applied to a sub collection.
type AssociationsChangedEvent struct {
	Resource      string
	ID            int
	Sub           string
	Associated    []int
	Disassociated []int
	At            time.Time
}

// SessionEndedEvent is published when a console session is logged out,
// rejected by the API or found expired. Per-session state keyed by the id
// is dropped on it.
type SessionEndedEvent struct {
	SessionID string
	At        time.Time
}
