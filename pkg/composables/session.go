package composables

import (
	"context"

	"github.com/pkg/errors"

	"github.com/automationhub/console/pkg/constants"
	"github.com/automationhub/console/pkg/session"
	"github.com/automationhub/console/pkg/types"
)

var ErrNoSessionFound = errors.New("no session found")

// UseSession returns the console session bound to the request.
func UseSession(ctx context.Context) (*session.Session, error) {
	sess, ok := ctx.Value(constants.SessionKey).(*session.Session)
	if !ok || sess == nil {
		return nil, ErrNoSessionFound
	}
	return sess, nil
}

func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, constants.SessionKey, sess)
}

func UseNavItems(ctx context.Context) []types.NavigationItem {
	items, _ := ctx.Value(constants.NavItemsKey).([]types.NavigationItem)
	return items
}
