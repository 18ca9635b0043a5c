package entities

import "time"

const SchedulesPath = "schedules"

type ScheduleSummary struct {
	UnifiedJobTemplate *struct {
		ID             int    `json:"id"`
		Name           string `json:"name"`
		UnifiedJobType string `json:"unified_job_type"`
	} `json:"unified_job_template,omitempty"`
}

type Schedule struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Enabled       bool            `json:"enabled"`
	RRule         string          `json:"rrule"`
	NextRun       *time.Time      `json:"next_run"`
	SummaryFields ScheduleSummary `json:"summary_fields"`
	Timestamps
}

func (s Schedule) GetID() int      { return s.ID }
func (s Schedule) GetName() string { return s.Name }
func (s Schedule) GetURL() string  { return detailURL(SchedulesPath, s.ID) }
