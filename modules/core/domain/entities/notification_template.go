package entities

const NotificationTemplatesPath = "notification_templates"

type NotificationTemplate struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	NotificationType string `json:"notification_type"`
	Organization     int    `json:"organization"`
	SummaryFields    struct {
		Organization *NamedRef `json:"organization,omitempty"`
	} `json:"summary_fields"`
	Timestamps
}

func (n NotificationTemplate) GetID() int      { return n.ID }
func (n NotificationTemplate) GetName() string { return n.Name }
func (n NotificationTemplate) GetURL() string  { return detailURL(NotificationTemplatesPath, n.ID) }
