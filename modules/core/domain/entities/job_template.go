package entities

const JobTemplatesPath = "job_templates"

type JobTemplateSummary struct {
	Inventory    *NamedRef  `json:"inventory,omitempty"`
	Project      *NamedRef  `json:"project,omitempty"`
	Organization *NamedRef  `json:"organization,omitempty"`
	Credentials  []NamedRef `json:"credentials"`
	LastJob      *struct {
		ID     int    `json:"id"`
		Status string `json:"status"`
	} `json:"last_job,omitempty"`
}

type JobTemplate struct {
	ID            int                `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	JobType       string             `json:"job_type"`
	Playbook      string             `json:"playbook"`
	Inventory     *int               `json:"inventory"`
	Project       *int               `json:"project"`
	Status        string             `json:"status"`
	SummaryFields JobTemplateSummary `json:"summary_fields"`
	Timestamps
}

func (j JobTemplate) GetID() int      { return j.ID }
func (j JobTemplate) GetName() string { return j.Name }
func (j JobTemplate) GetURL() string  { return detailURL(JobTemplatesPath, j.ID) }
