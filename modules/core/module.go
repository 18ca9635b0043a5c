package core

import (
	"embed"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/automationhub/console/modules/core/domain/entities"
	"github.com/automationhub/console/modules/core/handlers"
	"github.com/automationhub/console/modules/core/presentation/controllers"
	"github.com/automationhub/console/modules/core/services"
	"github.com/automationhub/console/pkg/application"
	"github.com/automationhub/console/pkg/qs"
)

//go:embed presentation/locales/*.toml
var LocaleFiles embed.FS

type ModuleOptions struct {
	SidCookieKey    string
	SessionDuration time.Duration
	// LoginAttempts per minute and client IP, 10 when zero
	LoginAttempts int
	Logger        *logrus.Logger
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	if opts.SidCookieKey == "" {
		opts.SidCookieKey = "sid"
	}
	if opts.SessionDuration == 0 {
		opts.SessionDuration = 720 * time.Hour
	}
	return &Module{
		options: opts,
	}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	app.RegisterLocaleFiles(&LocaleFiles)

	api := app.API()
	bus := app.EventPublisher()

	organizationService := services.NewResourceService[entities.Organization](api, entities.OrganizationsPath, bus)
	teamService := services.NewResourceService[entities.Team](api, entities.TeamsPath, bus)
	userService := services.NewResourceService[entities.User](api, entities.UsersPath, bus)
	jobTemplateService := services.NewResourceService[entities.JobTemplate](api, entities.JobTemplatesPath, bus)
	scheduleService := services.NewResourceService[entities.Schedule](api, entities.SchedulesPath, bus)
	credentialService := services.NewResourceService[entities.Credential](api, entities.CredentialsPath, bus)
	notificationTemplateService := services.NewResourceService[entities.NotificationTemplate](api, entities.NotificationTemplatesPath, bus)
	jobTemplateCredentials := services.NewAssociationService[entities.Credential](
		api,
		entities.JobTemplatesPath,
		entities.CredentialsPath,
		jobTemplateService.Resource(),
		bus,
	)
	app.RegisterServices(
		organizationService,
		teamService,
		userService,
		jobTemplateService,
		scheduleService,
		credentialService,
		notificationTemplateService,
		jobTemplateCredentials,
	)

	handlers.RegisterAuditHandler(bus, m.options.Logger)

	apiErrors := &controllers.APIErrors{App: app, SidCookieKey: m.options.SidCookieKey}
	credentialLookup := controllers.NewCredentialLookupController(app, controllers.CredentialLookupControllerOptions{
		JobTemplates: jobTemplateService,
		Credentials:  credentialService,
		Association:  jobTemplateCredentials,
		Errors:       apiErrors,
	})

	app.RegisterControllers(
		controllers.NewLoginController(app, controllers.LoginControllerOptions{
			SidCookieKey:    m.options.SidCookieKey,
			SessionDuration: m.options.SessionDuration,
			LoginAttempts:   m.options.LoginAttempts,
		}),
		controllers.NewHomeController(app, apiErrors,
			controllers.DashboardCard{Name: controllers.Label{ID: "NavigationLinks.Organizations", Default: "Organizations"}, Href: "/" + entities.OrganizationsPath, Counter: organizationService},
			controllers.DashboardCard{Name: controllers.Label{ID: "NavigationLinks.Teams", Default: "Teams"}, Href: "/" + entities.TeamsPath, Counter: teamService},
			controllers.DashboardCard{Name: controllers.Label{ID: "NavigationLinks.Users", Default: "Users"}, Href: "/" + entities.UsersPath, Counter: userService},
			controllers.DashboardCard{Name: controllers.Label{ID: "NavigationLinks.JobTemplates", Default: "Templates"}, Href: "/" + entities.JobTemplatesPath, Counter: jobTemplateService},
			controllers.DashboardCard{Name: controllers.Label{ID: "NavigationLinks.Schedules", Default: "Schedules"}, Href: "/" + entities.SchedulesPath, Counter: scheduleService},
			controllers.DashboardCard{Name: controllers.Label{ID: "NavigationLinks.Credentials", Default: "Credentials"}, Href: "/" + entities.CredentialsPath, Counter: credentialService},
			controllers.DashboardCard{Name: controllers.Label{ID: "NavigationLinks.NotificationTemplates", Default: "Notifications"}, Href: "/" + entities.NotificationTemplatesPath, Counter: notificationTemplateService},
		),
		controllers.NewResourceController(app, controllers.ResourceControllerOptions[entities.Organization]{
			BasePath:       "/" + entities.OrganizationsPath,
			Service:        organizationService,
			Title:          controllers.Label{ID: "NavigationLinks.Organizations", Default: "Organizations"},
			ItemName:       controllers.Label{ID: "Organizations.Item", Default: "Organization"},
			ItemNamePlural: controllers.Label{ID: "Organizations.Plural", Default: "Organizations"},
			Namespace:      "organization",
			Columns:        []controllers.ColumnDef{nameColumn, createdColumn, modifiedColumn},
			SearchColumns:  []controllers.ColumnDef{nameColumn, descriptionColumn},
			Fields:         organizationFields,
			Errors:         apiErrors,
		}, controllers.WithDetailSection(accessSection[entities.Organization](entities.OrganizationsPath))),
		controllers.NewResourceController(app, controllers.ResourceControllerOptions[entities.Team]{
			BasePath:       "/" + entities.TeamsPath,
			Service:        teamService,
			Title:          controllers.Label{ID: "NavigationLinks.Teams", Default: "Teams"},
			ItemName:       controllers.Label{ID: "Teams.Item", Default: "Team"},
			ItemNamePlural: controllers.Label{ID: "Teams.Plural", Default: "Teams"},
			Namespace:      "team",
			Columns: []controllers.ColumnDef{
				nameColumn,
				{Key: "organization__name", Name: controllers.Label{ID: "Columns.Organization", Default: "Organization"}, Sortable: true},
			},
			SearchColumns: []controllers.ColumnDef{
				nameColumn,
				descriptionColumn,
				{Key: "organization__name", Name: controllers.Label{ID: "Columns.Organization", Default: "Organization"}},
			},
			Fields: teamFields,
			Errors: apiErrors,
		}, controllers.WithDetailSection(accessSection[entities.Team](entities.TeamsPath))),
		controllers.NewResourceController(app, controllers.ResourceControllerOptions[entities.User]{
			BasePath:       "/" + entities.UsersPath,
			Service:        userService,
			Title:          controllers.Label{ID: "NavigationLinks.Users", Default: "Users"},
			ItemName:       controllers.Label{ID: "Users.Item", Default: "User"},
			ItemNamePlural: controllers.Label{ID: "Users.Plural", Default: "Users"},
			Namespace:      "user",
			Defaults:       qs.Params{"order_by": "username"},
			Columns: []controllers.ColumnDef{
				{Key: "username", Name: controllers.Label{ID: "Users.Username", Default: "Username"}, Sortable: true},
				{Key: "first_name", Name: controllers.Label{ID: "Users.FirstName", Default: "First name"}, Sortable: true},
				{Key: "last_name", Name: controllers.Label{ID: "Users.LastName", Default: "Last name"}, Sortable: true},
			},
			SearchColumns: []controllers.ColumnDef{
				{Key: "username", Name: controllers.Label{ID: "Users.Username", Default: "Username"}},
				{Key: "first_name", Name: controllers.Label{ID: "Users.FirstName", Default: "First name"}},
				{Key: "last_name", Name: controllers.Label{ID: "Users.LastName", Default: "Last name"}},
				{Key: "email", Name: controllers.Label{ID: "Users.Email", Default: "Email"}},
			},
			Fields: userFields,
			Errors: apiErrors,
		}),
		controllers.NewResourceController(app, controllers.ResourceControllerOptions[entities.JobTemplate]{
			BasePath:       "/" + entities.JobTemplatesPath,
			Service:        jobTemplateService,
			Title:          controllers.Label{ID: "NavigationLinks.JobTemplates", Default: "Templates"},
			ItemName:       controllers.Label{ID: "JobTemplates.Item", Default: "Template"},
			ItemNamePlural: controllers.Label{ID: "JobTemplates.Plural", Default: "Templates"},
			Namespace:      "template",
			Columns: []controllers.ColumnDef{
				nameColumn,
				{Key: "job_type", Name: controllers.Label{ID: "JobTemplates.JobType", Default: "Job type"}, Sortable: true},
				{Key: "last_job_run", Name: controllers.Label{ID: "JobTemplates.LastRun", Default: "Last ran"}, Sortable: true},
				modifiedColumn,
			},
			SearchColumns: []controllers.ColumnDef{
				nameColumn,
				descriptionColumn,
				{Key: "playbook", Name: controllers.Label{ID: "JobTemplates.Playbook", Default: "Playbook"}},
			},
			Fields: jobTemplateFields,
			Errors: apiErrors,
		},
			controllers.WithDetailSection(credentialLookup.Section),
			controllers.WithDetailSection(accessSection[entities.JobTemplate](entities.JobTemplatesPath)),
		),
		credentialLookup,
		controllers.NewResourceController(app, controllers.ResourceControllerOptions[entities.Schedule]{
			BasePath:       "/" + entities.SchedulesPath,
			Service:        scheduleService,
			Title:          controllers.Label{ID: "NavigationLinks.Schedules", Default: "Schedules"},
			ItemName:       controllers.Label{ID: "Schedules.Item", Default: "Schedule"},
			ItemNamePlural: controllers.Label{ID: "Schedules.Plural", Default: "Schedules"},
			Namespace:      "schedule",
			Columns: []controllers.ColumnDef{
				nameColumn,
				{Key: "next_run", Name: controllers.Label{ID: "Schedules.NextRun", Default: "Next run"}, Sortable: true},
				createdColumn,
			},
			SearchColumns: []controllers.ColumnDef{nameColumn, descriptionColumn},
			Fields:        scheduleFields,
			Errors:        apiErrors,
		}),
		controllers.NewResourceController(app, controllers.ResourceControllerOptions[entities.Credential]{
			BasePath:       "/" + entities.CredentialsPath,
			Service:        credentialService,
			Title:          controllers.Label{ID: "NavigationLinks.Credentials", Default: "Credentials"},
			ItemName:       controllers.Label{ID: "Credentials.Item", Default: "Credential"},
			ItemNamePlural: controllers.Label{ID: "Credentials.Plural", Default: "Credentials"},
			Namespace:      "credential",
			Columns: []controllers.ColumnDef{
				nameColumn,
				{Key: "kind", Name: controllers.Label{ID: "Credentials.Columns.Kind", Default: "Kind"}, Sortable: true},
				createdColumn,
			},
			SearchColumns: []controllers.ColumnDef{nameColumn, descriptionColumn},
			Fields:        credentialFields,
			Errors:        apiErrors,
		}, controllers.WithDetailSection(accessSection[entities.Credential](entities.CredentialsPath))),
		controllers.NewResourceController(app, controllers.ResourceControllerOptions[entities.NotificationTemplate]{
			BasePath:       "/" + entities.NotificationTemplatesPath,
			Service:        notificationTemplateService,
			Title:          controllers.Label{ID: "NavigationLinks.NotificationTemplates", Default: "Notifications"},
			ItemName:       controllers.Label{ID: "NotificationTemplates.Item", Default: "Notification template"},
			ItemNamePlural: controllers.Label{ID: "NotificationTemplates.Plural", Default: "Notification templates"},
			Namespace:      "notification_template",
			Columns: []controllers.ColumnDef{
				nameColumn,
				{Key: "notification_type", Name: controllers.Label{ID: "NotificationTemplates.Type", Default: "Notification type"}, Sortable: true},
			},
			SearchColumns: []controllers.ColumnDef{nameColumn, descriptionColumn},
			Fields:        notificationTemplateFields,
			Errors:        apiErrors,
		}),
	)
	return nil
}

func (m *Module) Name() string {
	return "core"
}
