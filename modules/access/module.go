package access

import (
	"embed"

	"github.com/automationhub/console/modules/access/presentation/controllers"
	"github.com/automationhub/console/modules/core/domain/entities"
	corecontrollers "github.com/automationhub/console/modules/core/presentation/controllers"
	coreservices "github.com/automationhub/console/modules/core/services"
	"github.com/automationhub/console/pkg/application"
)

//go:embed presentation/locales/*.toml
var LocaleFiles embed.FS

type ModuleOptions struct {
	SidCookieKey string
	// Roles overrides where the offered roles are read from.
	Roles controllers.RoleSource
}

// NewModule returns the role assignment module. It reads the user and team
// services of the core module, which must be registered first.
func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	if opts.SidCookieKey == "" {
		opts.SidCookieKey = "sid"
	}
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	app.RegisterLocaleFiles(&LocaleFiles)

	users := app.Service(coreservices.ResourceService[entities.User]{}).(*coreservices.ResourceService[entities.User])
	teams := app.Service(coreservices.ResourceService[entities.Team]{}).(*coreservices.ResourceService[entities.Team])

	app.RegisterControllers(
		controllers.NewAccessController(app, controllers.AccessControllerOptions{
			Users:   users,
			Teams:   teams,
			Roles:   m.options.Roles,
			Creator: app.API(),
			Errors:  &corecontrollers.APIErrors{App: app, SidCookieKey: m.options.SidCookieKey},
		}),
	)
	return nil
}

func (m *Module) Name() string {
	return "access"
}
