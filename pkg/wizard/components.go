package wizard

import (
	"context"

	"github.com/a-h/templ"

	"github.com/automationhub/console/pkg/components/base"
)

// URLs are the endpoints of the wizard footer and step nav.
type URLs struct {
	Next   string
	Back   string
	GoTo   string
	Cancel string
	Finish string
}

type Props struct {
	Title string
	Steps []Step
	Nav   Navigator
	URLs  URLs
	// Error is shown above the step body, e.g. a failed finish.
	Error templ.Component
}

// next returns the action and label of the primary footer button: Finish on
// the last step, Next before it.
func next(ctx context.Context, p Props, current Step) (string, string) {
	label := current.NextButtonText
	if p.Nav.IsLast(p.Steps) {
		if label == "" {
			label = base.T(ctx, "Wizard.Finish", "Finish")
		}
		return p.URLs.Finish, label
	}
	if label == "" {
		label = base.T(ctx, "Wizard.Next", "Next")
	}
	return p.URLs.Next, label
}

func navItemClass(s, current Step) string {
	if s.ID == current.ID {
		return "wizard-nav-item font-semibold current"
	}
	return "wizard-nav-item"
}
