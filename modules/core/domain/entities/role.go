package entities

import "fmt"

const RolesPath = "roles"

type RoleSummary struct {
	ResourceID              int    `json:"resource_id"`
	ResourceName            string `json:"resource_name"`
	ResourceType            string `json:"resource_type"`
	ResourceTypeDisplayName string `json:"resource_type_display_name"`
}

// Role is an object role, e.g. the "Execute" role of one job template.
type Role struct {
	ID            int         `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	SummaryFields RoleSummary `json:"summary_fields"`
}

func (r Role) GetID() int      { return r.ID }
func (r Role) GetName() string { return r.Name }

// GetURL points at the resource owning the role.
func (r Role) GetURL() string {
	if r.SummaryFields.ResourceType == "" {
		return ""
	}
	return fmt.Sprintf("/%ss/%d", r.SummaryFields.ResourceType, r.SummaryFields.ResourceID)
}
