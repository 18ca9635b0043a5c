package application

import (
	"context"
	"embed"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/pkg/errors"

	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/constants"
	"github.com/automationhub/console/pkg/eventbus"
	"github.com/automationhub/console/pkg/session"
	"github.com/automationhub/console/pkg/types"
)

var ErrAppNotFound = errors.New("application not found in context")

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

type Module interface {
	Name() string
	Register(app Application) error
}

// Application is the registry modules plug their controllers, services and
// translations into.
type Application interface {
	API() *apiclient.Client
	EventPublisher() eventbus.EventBus
	Sessions() session.Store
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	NavItems(localizer *i18n.Localizer) []types.NavigationItem
	RegisterNavItems(items ...types.NavigationItem)
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterLocaleFiles(fs ...*embed.FS)
	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
	Bundle() *i18n.Bundle
	GetSupportedLanguages() []string
}

func UseApp(ctx context.Context) (Application, error) {
	app, ok := ctx.Value(constants.AppKey).(Application)
	if !ok {
		return nil, ErrAppNotFound
	}
	return app, nil
}

func WithApp(ctx context.Context, app Application) context.Context {
	return context.WithValue(ctx, constants.AppKey, app)
}
