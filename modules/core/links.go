package core

import (
	icons "github.com/iota-uz/icons/phosphor"

	"github.com/automationhub/console/pkg/types"
)

var DashboardLink = types.NavigationItem{
	Name: "NavigationLinks.Dashboard",
	Icon: icons.Gauge(icons.Props{Size: "20"}),
	Href: "/",
}

var ResourcesLink = types.NavigationItem{
	Name: "NavigationLinks.Resources",
	Icon: icons.PuzzlePiece(icons.Props{Size: "20"}),
	Children: []types.NavigationItem{
		{Name: "NavigationLinks.JobTemplates", Href: "/job_templates"},
		{Name: "NavigationLinks.Schedules", Href: "/schedules"},
		{Name: "NavigationLinks.Credentials", Href: "/credentials"},
	},
}

var AccessLink = types.NavigationItem{
	Name: "NavigationLinks.Access",
	Icon: icons.UsersThree(icons.Props{Size: "20"}),
	Children: []types.NavigationItem{
		{Name: "NavigationLinks.Organizations", Href: "/organizations"},
		{Name: "NavigationLinks.Teams", Href: "/teams"},
		{Name: "NavigationLinks.Users", Href: "/users"},
	},
}

var AdministrationLink = types.NavigationItem{
	Name: "NavigationLinks.Administration",
	Icon: icons.TreeStructure(icons.Props{Size: "20"}),
	Children: []types.NavigationItem{
		{Name: "NavigationLinks.NotificationTemplates", Href: "/notification_templates"},
	},
}

var NavItems = []types.NavigationItem{
	DashboardLink,
	ResourcesLink,
	AccessLink,
	AdministrationLink,
}
