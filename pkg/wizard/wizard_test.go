package wizard_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automationhub/console/pkg/wizard"
)

func steps(enable ...bool) []wizard.Step {
	out := make([]wizard.Step, len(enable))
	for i, e := range enable {
		out[i] = wizard.Step{
			ID:         i + 1,
			Name:       []string{"Add resource type", "Select items", "Select roles"}[i],
			EnableNext: e,
			Component:  templ.Raw(`<p class="body">step</p>`),
		}
	}
	return out
}

func TestNavigator_Next(t *testing.T) {
	var nav wizard.Navigator

	cur, ok := nav.Current(steps(false, false, false))
	require.True(t, ok)
	assert.Equal(t, 1, cur.ID)

	require.ErrorIs(t, nav.Next(steps(false, false, false)), wizard.ErrStepLocked)

	require.NoError(t, nav.Next(steps(true, false, false)))
	assert.Equal(t, 2, nav.CurrentStepID)
	require.ErrorIs(t, nav.Next(steps(true, false, false)), wizard.ErrStepLocked)

	require.NoError(t, nav.Next(steps(true, true, false)))
	assert.True(t, nav.IsLast(steps(true, true, false)))
	require.ErrorIs(t, nav.Next(steps(true, true, true)), wizard.ErrStepLocked)
}

func TestNavigator_Back(t *testing.T) {
	nav := wizard.Navigator{CurrentStepID: 3}
	s := steps(true, true, true)
	nav.Back(s)
	assert.Equal(t, 2, nav.CurrentStepID)
	nav.Back(s)
	nav.Back(s)
	assert.Equal(t, 1, nav.CurrentStepID)
}

func TestNavigator_GoTo(t *testing.T) {
	var nav wizard.Navigator
	s := steps(true, false, false)

	require.NoError(t, nav.GoTo(s, 2))
	require.ErrorIs(t, nav.GoTo(s, 3), wizard.ErrStepLocked)
	require.ErrorIs(t, nav.GoTo(s, 9), wizard.ErrStepLocked)
	require.NoError(t, nav.GoTo(s, 1))
	assert.Equal(t, 1, nav.CurrentStepID)
}

func TestNavigator_Reset(t *testing.T) {
	nav := wizard.Navigator{CurrentStepID: 3}
	nav.Reset(steps(true, true, true))
	assert.Equal(t, 1, nav.CurrentStepID)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	props := wizard.Props{
		Title: "Add roles",
		Steps: steps(true, false, false),
		Nav:   wizard.Navigator{CurrentStepID: 2},
		URLs: wizard.URLs{
			Next: "/w/next", Back: "/w/back", GoTo: "/w/goto", Cancel: "/w/cancel", Finish: "/w/finish",
		},
	}
	require.NoError(t, wizard.Render(props).Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	assert.Equal(t, "2", doc.Find(".wizard").AttrOr("data-step", ""))
	assert.Equal(t, 1, doc.Find(".wizard-body p.body").Length())

	_, disabled := doc.Find(`form[action="/w/next"] button`).Attr("disabled")
	assert.True(t, disabled, "next is disabled until the step is complete")
	assert.Equal(t, 1, doc.Find(`form[action="/w/back"]`).Length())
	assert.Equal(t, 0, doc.Find(`form[action="/w/finish"]`).Length())

	assert.Equal(t, 1, doc.Find(`li[data-step-id="1"] form[action="/w/goto"]`).Length())
	assert.Equal(t, 0, doc.Find(`li[data-step-id="3"] form`).Length(), "locked steps are not links")
}
