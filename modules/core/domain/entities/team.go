package entities

const TeamsPath = "teams"

type TeamSummary struct {
	Organization *NamedRef `json:"organization,omitempty"`
}

type Team struct {
	ID            int         `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Organization  int         `json:"organization"`
	SummaryFields TeamSummary `json:"summary_fields"`
	Timestamps
}

func (t Team) GetID() int      { return t.ID }
func (t Team) GetName() string { return t.Name }
func (t Team) GetURL() string  { return detailURL(TeamsPath, t.ID) }

// OrganizationName is empty for teams without an organization.
func (t Team) OrganizationName() string {
	if t.SummaryFields.Organization == nil {
		return ""
	}
	return t.SummaryFields.Organization.Name
}
