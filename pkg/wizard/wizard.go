// Package wizard provides step navigation for multi-step forms. Steps are
// rebuilt from the owning model on every render so their gating always
// reflects the current state; the navigator only remembers where the user
// is.
package wizard

import (
	"github.com/a-h/templ"
	"github.com/pkg/errors"
)

var ErrStepLocked = errors.New("step is not reachable yet")

type Step struct {
	ID   int
	Name string
	// EnableNext gates moving past this step.
	EnableNext     bool
	NextButtonText string
	Component      templ.Component
}

// Navigator tracks the current step. The zero value starts at the first step.
type Navigator struct {
	CurrentStepID int
}

func indexOf(steps []Step, id int) int {
	for i, s := range steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (n *Navigator) index(steps []Step) int {
	if i := indexOf(steps, n.CurrentStepID); i >= 0 {
		return i
	}
	return 0
}

// Current returns the current step, the first one when the current id is
// unknown.
func (n *Navigator) Current(steps []Step) (Step, bool) {
	if len(steps) == 0 {
		return Step{}, false
	}
	return steps[n.index(steps)], true
}

func (n *Navigator) IsLast(steps []Step) bool {
	return len(steps) > 0 && n.index(steps) == len(steps)-1
}

// Next moves forward when the current step allows it.
func (n *Navigator) Next(steps []Step) error {
	if len(steps) == 0 {
		return ErrStepLocked
	}
	i := n.index(steps)
	if !steps[i].EnableNext {
		return errors.Wrapf(ErrStepLocked, "step %d", steps[i].ID)
	}
	if i == len(steps)-1 {
		return errors.Wrap(ErrStepLocked, "already on the last step")
	}
	n.CurrentStepID = steps[i+1].ID
	return nil
}

// Back moves to the previous step, staying on the first one.
func (n *Navigator) Back(steps []Step) {
	if len(steps) == 0 {
		return
	}
	if i := n.index(steps); i > 0 {
		n.CurrentStepID = steps[i-1].ID
	} else {
		n.CurrentStepID = steps[0].ID
	}
}

// CanJumpTo reports whether every step before id lets the user move on.
func CanJumpTo(steps []Step, id int) bool {
	target := indexOf(steps, id)
	if target < 0 {
		return false
	}
	for _, s := range steps[:target] {
		if !s.EnableNext {
			return false
		}
	}
	return true
}

func (n *Navigator) GoTo(steps []Step, id int) error {
	if !CanJumpTo(steps, id) {
		return errors.Wrapf(ErrStepLocked, "step %d", id)
	}
	n.CurrentStepID = id
	return nil
}

// Reset returns to the first step.
func (n *Navigator) Reset(steps []Step) {
	n.CurrentStepID = 0
	if len(steps) > 0 {
		n.CurrentStepID = steps[0].ID
	}
}
