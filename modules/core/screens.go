package core

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/automationhub/console/modules/core/domain/entities"
	"github.com/automationhub/console/modules/core/presentation/controllers"
	"github.com/automationhub/console/modules/core/presentation/templates/pages/resources"
	"github.com/automationhub/console/pkg/components/base"
)

var (
	nameColumn        = controllers.ColumnDef{Key: "name", Name: controllers.Label{ID: "Columns.Name", Default: "Name"}, Sortable: true}
	descriptionColumn = controllers.ColumnDef{Key: "description", Name: controllers.Label{ID: "Columns.Description", Default: "Description"}}
	createdColumn     = controllers.ColumnDef{Key: "created", Name: controllers.Label{ID: "Columns.Created", Default: "Created"}, Sortable: true}
	modifiedColumn    = controllers.ColumnDef{Key: "modified", Name: controllers.Label{ID: "Columns.Modified", Default: "Last modified"}, Sortable: true}
)

func label(ctx context.Context, id, def string) string {
	return base.T(ctx, id, def)
}

func optionalID(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func refHref(collection string, ref *entities.NamedRef) (string, string) {
	if ref == nil {
		return "", ""
	}
	return ref.Name, fmt.Sprintf("/%s/%d", collection, ref.ID)
}

func organizationFields(ctx context.Context, o entities.Organization) []resources.Field {
	counts := o.SummaryFields.RelatedFieldCounts
	return []resources.Field{
		{Label: label(ctx, "Columns.Name", "Name"), Value: o.Name},
		{Label: label(ctx, "Columns.Description", "Description"), Value: o.Description},
		{Label: label(ctx, "Organizations.MaxHosts", "Max hosts"), Value: strconv.Itoa(o.MaxHosts)},
		{Label: label(ctx, "NavigationLinks.Users", "Users"), Value: strconv.Itoa(counts.Users)},
		{Label: label(ctx, "NavigationLinks.Teams", "Teams"), Value: strconv.Itoa(counts.Teams)},
		{Label: label(ctx, "NavigationLinks.JobTemplates", "Templates"), Value: strconv.Itoa(counts.JobTemplates)},
	}
}

func teamFields(ctx context.Context, t entities.Team) []resources.Field {
	org, href := refHref(entities.OrganizationsPath, t.SummaryFields.Organization)
	return []resources.Field{
		{Label: label(ctx, "Columns.Name", "Name"), Value: t.Name},
		{Label: label(ctx, "Columns.Description", "Description"), Value: t.Description},
		{Label: label(ctx, "Columns.Organization", "Organization"), Value: org, Href: href},
	}
}

func userFields(ctx context.Context, u entities.User) []resources.Field {
	kind := label(ctx, "Users.Kinds.Normal", "Normal user")
	if u.IsSuperuser {
		kind = label(ctx, "Users.Kinds.Superuser", "System administrator")
	}
	return []resources.Field{
		{Label: label(ctx, "Users.Username", "Username"), Value: u.Username},
		{Label: label(ctx, "Users.FullName", "Name"), Value: u.FullName()},
		{Label: label(ctx, "Users.Email", "Email"), Value: u.Email},
		{Label: label(ctx, "Users.Kind", "User type"), Value: kind},
		{Label: label(ctx, "Users.LastLogin", "Last login"), Value: u.LastLogin},
	}
}

func jobTemplateFields(ctx context.Context, j entities.JobTemplate) []resources.Field {
	project, projectHref := refHref("projects", j.SummaryFields.Project)
	inventory, inventoryHref := refHref("inventories", j.SummaryFields.Inventory)
	if inventory == "" {
		inventory = optionalID(j.Inventory)
	}
	lastJob := ""
	if last := j.SummaryFields.LastJob; last != nil {
		lastJob = fmt.Sprintf("#%d %s", last.ID, last.Status)
	}
	return []resources.Field{
		{Label: label(ctx, "Columns.Name", "Name"), Value: j.Name},
		{Label: label(ctx, "Columns.Description", "Description"), Value: j.Description},
		{Label: label(ctx, "JobTemplates.JobType", "Job type"), Value: j.JobType},
		{Label: label(ctx, "JobTemplates.Inventory", "Inventory"), Value: inventory, Href: inventoryHref},
		{Label: label(ctx, "JobTemplates.Project", "Project"), Value: project, Href: projectHref},
		{Label: label(ctx, "JobTemplates.Playbook", "Playbook"), Value: j.Playbook},
		{Label: label(ctx, "JobTemplates.LastJob", "Last job"), Value: lastJob},
	}
}

func scheduleFields(ctx context.Context, s entities.Schedule) []resources.Field {
	enabled := label(ctx, "Schedules.Off", "Off")
	if s.Enabled {
		enabled = label(ctx, "Schedules.On", "On")
	}
	nextRun := ""
	if s.NextRun != nil {
		nextRun = s.NextRun.Format("2006-01-02 15:04 MST")
	}
	fields := []resources.Field{
		{Label: label(ctx, "Columns.Name", "Name"), Value: s.Name},
		{Label: label(ctx, "Columns.Description", "Description"), Value: s.Description},
		{Label: label(ctx, "Schedules.Enabled", "Enabled"), Value: enabled},
		{Label: label(ctx, "Schedules.RRule", "Rule"), Value: s.RRule},
		{Label: label(ctx, "Schedules.NextRun", "Next run"), Value: nextRun},
	}
	if ujt := s.SummaryFields.UnifiedJobTemplate; ujt != nil {
		fields = append(fields, resources.Field{
			Label: label(ctx, "Schedules.Template", "Template"),
			Value: ujt.Name,
			Href:  fmt.Sprintf("/%s/%d", entities.JobTemplatesPath, ujt.ID),
		})
	}
	return fields
}

func credentialFields(ctx context.Context, c entities.Credential) []resources.Field {
	kind := c.Kind
	if ct := c.SummaryFields.CredentialType; ct != nil {
		kind = ct.Name
	}
	org, href := refHref(entities.OrganizationsPath, c.SummaryFields.Organization)
	return []resources.Field{
		{Label: label(ctx, "Columns.Name", "Name"), Value: c.Name},
		{Label: label(ctx, "Columns.Description", "Description"), Value: c.Description},
		{Label: label(ctx, "Credentials.Columns.Kind", "Kind"), Value: kind},
		{Label: label(ctx, "Columns.Organization", "Organization"), Value: org, Href: href},
	}
}

func notificationTemplateFields(ctx context.Context, n entities.NotificationTemplate) []resources.Field {
	org, href := refHref(entities.OrganizationsPath, n.SummaryFields.Organization)
	return []resources.Field{
		{Label: label(ctx, "Columns.Name", "Name"), Value: n.Name},
		{Label: label(ctx, "Columns.Description", "Description"), Value: n.Description},
		{Label: label(ctx, "NotificationTemplates.Type", "Notification type"), Value: n.NotificationType},
		{Label: label(ctx, "Columns.Organization", "Organization"), Value: org, Href: href},
	}
}

// accessSection links a user or team to the role wizard.
func accessSection[T interface{ GetID() int }](kind string) func(http.ResponseWriter, *http.Request, T) templ.Component {
	return func(_ http.ResponseWriter, _ *http.Request, item T) templ.Component {
		return resources.AccessSection(fmt.Sprintf("/%s/%d/access/add", kind, item.GetID()))
	}
}
