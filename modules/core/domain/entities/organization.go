package entities

const OrganizationsPath = "organizations"

type OrganizationSummary struct {
	RelatedFieldCounts struct {
		Users        int `json:"users"`
		Teams        int `json:"teams"`
		JobTemplates int `json:"job_templates"`
	} `json:"related_field_counts"`
}

type Organization struct {
	ID            int                 `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	MaxHosts      int                 `json:"max_hosts"`
	SummaryFields OrganizationSummary `json:"summary_fields"`
	Timestamps
}

func (o Organization) GetID() int      { return o.ID }
func (o Organization) GetName() string { return o.Name }
func (o Organization) GetURL() string  { return detailURL(OrganizationsPath, o.ID) }
