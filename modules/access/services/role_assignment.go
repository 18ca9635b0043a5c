// Package services holds the state of the role assignment wizard: the kind
// of principal, the picked users or teams, the picked roles and the batch
// that grants every (principal, role) pair.
package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/automationhub/console/modules/core/domain/entities"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/selection"
	"github.com/automationhub/console/pkg/wizard"
)

type ResourceKind string

const (
	KindUsers ResourceKind = "users"
	KindTeams ResourceKind = "teams"
)

func (k ResourceKind) Valid() bool {
	return k == KindUsers || k == KindTeams
}

const (
	StepResourceKind = 1
	StepResources    = 2
	StepRoles        = 3
)

var (
	ErrUnknownKind = errors.New("unknown resource kind")
	ErrNoKind      = errors.New("no resource kind selected")
	ErrUnknownRole = errors.New("role is not offered")
	ErrIncomplete  = errors.New("pick at least one resource and one role")
	ErrSaving      = errors.New("roles are being granted")
	ErrSaved       = errors.New("roles were already granted")
	ErrNotLastStep = errors.New("roles are granted from the last step")
)

// Principal is a user or team roles are granted to.
type Principal struct {
	ID   int
	Name string
	Kind ResourceKind
}

func (p Principal) GetID() int      { return p.ID }
func (p Principal) GetName() string { return p.Name }
func (p Principal) GetURL() string  { return fmt.Sprintf("/%s/%d", p.Kind, p.ID) }

// RoleCreator is implemented by apiclient.Client.
type RoleCreator interface {
	CreateUserRole(ctx context.Context, userID, roleID int) error
	CreateTeamRole(ctx context.Context, teamID, roleID int) error
}

// Grant is one (principal, role) pair of a batch.
type Grant struct {
	Kind       ResourceKind
	ResourceID int
	RoleID     int
}

func (g Grant) event() eventbus.RoleGrant {
	return eventbus.RoleGrant{ResourceKind: string(g.Kind), ResourceID: g.ResourceID, RoleID: g.RoleID}
}

// GrantError is the failure of one pair.
type GrantError struct {
	Grant
	Err error
}

func (e *GrantError) Error() string {
	return fmt.Sprintf("grant role %d to %s %d: %v", e.RoleID, e.Kind, e.ResourceID, e.Err)
}

func (e *GrantError) Unwrap() error {
	return e.Err
}

// AssignmentError reports the pairs of a batch that failed. Err combines
// one GrantError per failed pair.
type AssignmentError struct {
	Failed  []Grant
	Granted []Grant
	Err     error
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("%d of %d role grants failed: %v", len(e.Failed), len(e.Failed)+len(e.Granted), e.Err)
}

func (e *AssignmentError) Unwrap() error {
	return e.Err
}

// Errors returns the failure of every pair.
func (e *AssignmentError) Errors() []*GrantError {
	var out []*GrantError
	for _, err := range multierr.Errors(e.Err) {
		var grantErr *GrantError
		if errors.As(err, &grantErr) {
			out = append(out, grantErr)
		}
	}
	return out
}

type Options struct {
	Creator   RoleCreator
	Publisher eventbus.EventBus
	// Roles are the roles offered on the last step.
	Roles []entities.Role
	// OnSave runs once, after every grant of a batch succeeded.
	OnSave func()
}

// RoleAssignment is one run of the wizard. It is safe for concurrent use.
type RoleAssignment struct {
	opts Options

	mu     sync.Mutex
	kind   ResourceKind
	rows   selection.Set[Principal]
	roles  selection.Set[entities.Role]
	nav    wizard.Navigator
	saving bool
	saved  bool
	err    error
}

func NewRoleAssignment(opts Options) *RoleAssignment {
	a := &RoleAssignment{opts: opts}
	a.nav.Reset(a.steps())
	return a
}

// steps carries the gating of each step, callers add names and bodies.
func (a *RoleAssignment) steps() []wizard.Step {
	return []wizard.Step{
		{ID: StepResourceKind, EnableNext: a.kind != ""},
		{ID: StepResources, EnableNext: a.rows.Len() > 0},
		{ID: StepRoles, EnableNext: a.roles.Len() > 0},
	}
}

// Steps returns the steps with their current gating.
func (a *RoleAssignment) Steps() []wizard.Step {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.steps()
}

// SelectResource picks the kind of principal. Switching to another kind
// drops the picked rows and roles and returns to the first step, whose gate
// is the only one still open.
func (a *RoleAssignment) SelectResource(kind ResourceKind) error {
	if !kind.Valid() {
		return errors.Wrapf(ErrUnknownKind, "%q", kind)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if kind != a.kind {
		a.rows = selection.Set[Principal]{}
		a.roles = selection.Set[entities.Role]{}
		a.kind = kind
		a.nav.Reset(a.steps())
	}
	a.err = nil
	return nil
}

// ToggleResourceRow adds or removes a principal of the selected kind.
func (a *RoleAssignment) ToggleResourceRow(p Principal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.kind == "" {
		return ErrNoKind
	}
	if p.Kind != a.kind {
		return errors.Wrapf(ErrUnknownKind, "%s while picking %s", p.Kind, a.kind)
	}
	a.rows = a.rows.Toggle(p)
	return nil
}

// SelectedRow returns the picked principal with id.
func (a *RoleAssignment) SelectedRow(id int) (Principal, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rows.Get(id)
}

// ToggleRole adds or removes one of the offered roles.
func (a *RoleAssignment) ToggleRole(id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, role := range a.opts.Roles {
		if role.ID == id {
			a.roles = a.roles.Toggle(role)
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownRole, "id %d", id)
}

func (a *RoleAssignment) Next() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav.Next(a.steps())
}

func (a *RoleAssignment) Back() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nav.Back(a.steps())
}

func (a *RoleAssignment) GoTo(id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav.GoTo(a.steps(), id)
}

// Snapshot is a consistent copy of the wizard state for rendering.
type Snapshot struct {
	Kind      ResourceKind
	Rows      selection.Set[Principal]
	Roles     selection.Set[entities.Role]
	Available []entities.Role
	Nav       wizard.Navigator
	Steps     []wizard.Step
	Saving    bool
	// Err is the failure of the last batch.
	Err error
}

func (a *RoleAssignment) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Kind:      a.kind,
		Rows:      a.rows,
		Roles:     a.roles,
		Available: a.opts.Roles,
		Nav:       a.nav,
		Steps:     a.steps(),
		Saving:    a.saving,
		Err:       a.err,
	}
}

// Grants is the Cartesian product of the picked rows and roles.
func (a *RoleAssignment) Grants() []Grant {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.grants()
}

func (a *RoleAssignment) grants() []Grant {
	out := make([]Grant, 0, a.rows.Len()*a.roles.Len())
	for _, row := range a.rows.Items() {
		for _, role := range a.roles.Items() {
			out = append(out, Grant{Kind: a.kind, ResourceID: row.ID, RoleID: role.ID})
		}
	}
	return out
}

func (a *RoleAssignment) grant(ctx context.Context, g Grant) error {
	if g.Kind == KindTeams {
		return a.opts.Creator.CreateTeamRole(ctx, g.ResourceID, g.RoleID)
	}
	return a.opts.Creator.CreateUserRole(ctx, g.ResourceID, g.RoleID)
}

// Save grants every pair at once and waits for all of them to settle. A
// failed pair does not stop the others; the failures come back as an
// *AssignmentError and the picks are kept so the batch can be retried.
func (a *RoleAssignment) Save(ctx context.Context) error {
	a.mu.Lock()
	switch {
	case a.saved:
		a.mu.Unlock()
		return ErrSaved
	case a.saving:
		a.mu.Unlock()
		return ErrSaving
	case a.kind == "" || a.rows.IsEmpty() || a.roles.IsEmpty():
		a.mu.Unlock()
		return ErrIncomplete
	case !a.nav.IsLast(a.steps()):
		a.mu.Unlock()
		return ErrNotLastStep
	}
	a.saving = true
	a.err = nil
	grants := a.grants()
	a.mu.Unlock()

	var (
		mu      sync.Mutex
		errs    error
		granted []Grant
		failed  []Grant
		g       errgroup.Group
	)
	for _, gr := range grants {
		g.Go(func() error {
			err := a.grant(ctx, gr)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, &GrantError{Grant: gr, Err: err})
				failed = append(failed, gr)
				return nil
			}
			granted = append(granted, gr)
			return nil
		})
	}
	_ = g.Wait()
	sortGrants(granted)
	sortGrants(failed)

	if a.opts.Publisher != nil {
		a.opts.Publisher.Publish(&eventbus.RolesAssignedEvent{
			Granted: events(granted),
			Failed:  events(failed),
			At:      time.Now(),
		})
	}

	a.mu.Lock()
	a.saving = false
	if errs != nil {
		a.err = &AssignmentError{Failed: failed, Granted: granted, Err: errs}
		err := a.err
		a.mu.Unlock()
		return err
	}
	a.saved = true
	a.mu.Unlock()

	if a.opts.OnSave != nil {
		a.opts.OnSave()
	}
	return nil
}

func sortGrants(grants []Grant) {
	slices.SortFunc(grants, func(x, y Grant) int {
		if c := cmp.Compare(x.ResourceID, y.ResourceID); c != 0 {
			return c
		}
		return cmp.Compare(x.RoleID, y.RoleID)
	})
}

func events(grants []Grant) []eventbus.RoleGrant {
	out := make([]eventbus.RoleGrant, 0, len(grants))
	for _, g := range grants {
		out = append(out, g.event())
	}
	return out
}
