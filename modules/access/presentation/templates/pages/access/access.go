// Package access renders the steps of the role assignment wizard.
package access

import (
	"strconv"

	"github.com/automationhub/console/modules/access/services"
	"github.com/automationhub/console/pkg/components/base"
	"github.com/automationhub/console/pkg/wizard"
)

type PageProps struct {
	Title  string
	Notice string
	Wizard wizard.Props
}

func cardClass(class string, selected bool) string {
	if selected {
		return base.Classes("rounded border bg-white p-3 text-left", class, "selected border-blue-600 ring-2 ring-blue-200")
	}
	return base.Classes("rounded border bg-white p-3 text-left", class)
}

func grantData(err *services.AssignmentError) map[string]interface{} {
	return map[string]interface{}{
		"Failed": len(err.Failed),
		"Total":  len(err.Failed) + len(err.Granted),
	}
}

func grantErrorData(grantErr *services.GrantError, reason func(error) string) map[string]interface{} {
	return map[string]interface{}{
		"Role":     grantErr.RoleID,
		"Resource": grantErr.ResourceID,
		"Reason":   reason(grantErr.Err),
	}
}

func id(n int) string {
	return strconv.Itoa(n)
}
