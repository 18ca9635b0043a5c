package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/automationhub/console/modules/access/services"
	"github.com/automationhub/console/modules/core/domain/entities"
	"github.com/automationhub/console/pkg/apiclient"
	"github.com/automationhub/console/pkg/configuration"
	"github.com/automationhub/console/pkg/eventbus"
)

type grantOptions struct {
	Kind      string
	Resources []int
	Roles     []int
	Username  string
	Timeout   time.Duration
}

func newRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage role assignments on the automation platform",
	}
	cmd.AddCommand(newRolesGrantCmd())
	return cmd
}

func newRolesGrantCmd() *cobra.Command {
	var opts grantOptions
	cmd := &cobra.Command{
		Use:   "grant --kind users|teams --resource <id>... --role <id>...",
		Short: "Grant every role to every resource",
		Long:  `Logs in as --username (password from CONSOLE_PASSWORD) and grants each role to each resource. Failed pairs are listed and do not stop the others.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()
			return GrantRoles(ctx, configuration.Use(), opts, os.Getenv("CONSOLE_PASSWORD"))
		},
	}
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "users or teams")
	cmd.Flags().IntSliceVar(&opts.Resources, "resource", nil, "user or team ids")
	cmd.Flags().IntSliceVar(&opts.Roles, "role", nil, "role ids")
	cmd.Flags().StringVar(&opts.Username, "username", "admin", "API user")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", time.Minute, "overall deadline")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("resource")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

// GrantRoles runs one role assignment outside the browser, through the same
// service the wizard saves with.
func GrantRoles(ctx context.Context, conf *configuration.Configuration, opts grantOptions, password string) error {
	kind := services.ResourceKind(opts.Kind)
	if !kind.Valid() {
		return errors.Wrapf(services.ErrUnknownKind, "--kind %q", opts.Kind)
	}
	client, err := apiclient.New(apiclient.Options{
		BaseURL:       conf.API.BaseURL,
		LoginPath:     conf.API.LoginPath,
		LogoutPath:    conf.API.LogoutPath,
		SessionCookie: conf.API.SessionCookie,
		CSRFCookie:    conf.API.CSRFCookie,
		CSRFHeader:    conf.API.CSRFHeader,
		Timeout:       conf.API.Timeout,
		Logger:        conf.Logger(),
	})
	if err != nil {
		return err
	}
	creds, err := client.Login(ctx, opts.Username, password)
	if err != nil {
		return errors.Wrap(err, "login")
	}
	ctx = apiclient.WithCredentials(ctx, creds)

	logger := conf.Logger()
	bus := eventbus.NewEventPublisher(logger)
	bus.Subscribe(func(e *eventbus.RolesAssignedEvent) {
		logger.WithFields(logrus.Fields{
			"granted": len(e.Granted),
			"failed":  len(e.Failed),
		}).Info("roles assigned")
	})

	roles := make([]entities.Role, 0, len(opts.Roles))
	for _, id := range opts.Roles {
		roles = append(roles, entities.Role{ID: id, Name: fmt.Sprintf("#%d", id)})
	}
	a := services.NewRoleAssignment(services.Options{
		Creator:   client,
		Publisher: bus,
		Roles:     roles,
	})
	if err := a.SelectResource(kind); err != nil {
		return err
	}
	if err := a.Next(); err != nil {
		return err
	}
	for _, id := range opts.Resources {
		if err := a.ToggleResourceRow(services.Principal{ID: id, Kind: kind}); err != nil {
			return err
		}
	}
	if err := a.Next(); err != nil {
		return errors.Wrap(err, "no resources given")
	}
	for _, id := range opts.Roles {
		if err := a.ToggleRole(id); err != nil {
			return err
		}
	}

	err = a.Save(ctx)
	var assignErr *services.AssignmentError
	if errors.As(err, &assignErr) {
		for _, grantErr := range assignErr.Errors() {
			logger.WithError(grantErr.Err).WithFields(logrus.Fields{
				"kind":     grantErr.Kind,
				"resource": grantErr.ResourceID,
				"role":     grantErr.RoleID,
			}).Error("grant failed")
		}
		return errors.Errorf("%d of %d grants failed", len(assignErr.Failed), len(assignErr.Failed)+len(assignErr.Granted))
	}
	return err
}
