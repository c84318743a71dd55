package dto

import "time"

type CalendarEvent struct {
	ID          string    `json:"id" yaml:"id" validate:"required"`
	Summary     *string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Start       time.Time `json:"start" yaml:"start" validate:"required"`
	End         time.Time `json:"end" yaml:"end" validate:"required"`
	HangoutLink *string   `json:"hangoutLink,omitempty" yaml:"hangout_link,omitempty"`
}

// Title falls back to a placeholder for events without a summary.
func (e CalendarEvent) Title() string {
	if e.Summary == nil || *e.Summary == "" {
		return "(no title)"
	}
	return *e.Summary
}

func (e CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// EventsResponse is the answer of GET /cal/events.
type EventsResponse struct {
	Events     []CalendarEvent `json:"events" yaml:"events" validate:"dive"`
	TotalHours float64         `json:"total_hours" yaml:"total_hours" validate:"gte=0"`
}
