package modules

import (
	"slices"

	"github.com/automationhub/console/modules/access"
	"github.com/automationhub/console/modules/core"
	"github.com/automationhub/console/pkg/application"
)

// BuiltInModules are registered in order, access reads services of core.
var (
	BuiltInModules = []application.Module{
		core.NewModule(nil),
		access.NewModule(nil),
	}

	NavLinks = slices.Concat(
		core.NavItems,
	)
)

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
