package view

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/systematicmess/calendar-assistant/internal/cache"
	"github.com/systematicmess/calendar-assistant/internal/dto"
	"github.com/systematicmess/calendar-assistant/internal/entity"
)

func init() {
	color.NoColor = true
}

func sample() dto.EventsResponse {
	start := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	title := "Standup"
	link := "https://meet.example.com/x"
	return dto.EventsResponse{
		Events: []dto.CalendarEvent{
			{ID: "1", Summary: &title, Start: start, End: start.Add(30 * time.Minute), HangoutLink: &link},
			{ID: "2", Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)},
		},
		TotalHours: 1.5,
	}
}

func TestAgenda(t *testing.T) {
	tests := []struct {
		name string
		res  cache.Result[dto.EventsResponse]
		want []string
	}{
		{
			name: "signed out",
			res:  cache.Result[dto.EventsResponse]{Status: cache.StatusIdle},
			want: []string{"Not signed in"},
		},
		{
			name: "loading",
			res:  cache.Result[dto.EventsResponse]{Status: cache.StatusLoading},
			want: []string{"Loading events"},
		},
		{
			name: "error without data",
			res:  cache.Result[dto.EventsResponse]{Status: cache.StatusError, Err: errors.New("boom")},
			want: []string{"Error: boom"},
		},
		{
			name: "success",
			res:  cache.Result[dto.EventsResponse]{Status: cache.StatusSuccess, Data: sample(), FetchedAt: time.Now()},
			want: []string{"1.50 h", "Standup", "(no title)", "https://meet.example.com/x", "Wed Oct 14 09:00"},
		},
		{
			name: "error keeps previous data",
			res: cache.Result[dto.EventsResponse]{
				Status: cache.StatusError, Err: errors.New("boom"), Data: sample(), FetchedAt: time.Now(),
			},
			want: []string{"Standup", "Refresh failed: boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Agenda(&buf, tt.res, time.UTC)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestTranscript(t *testing.T) {
	var buf bytes.Buffer
	Transcript(&buf, []entity.TranscriptMessage{
		{Role: entity.RoleUser, Text: "hi"},
		{Role: entity.RoleAssistant, Text: "hello"},
		{Role: entity.RoleAssistant, Text: entity.AgentErrorText, Failed: true},
	})

	assert.Equal(t, "You: hi\nBot: hello\nBot: ❌ Error talking to agent\n", buf.String())
}
