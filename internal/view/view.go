// Package view renders client state for the terminal.
package view

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/systematicmess/calendar-assistant/internal/action"
	"github.com/systematicmess/calendar-assistant/internal/cache"
	"github.com/systematicmess/calendar-assistant/internal/dto"
	"github.com/systematicmess/calendar-assistant/internal/entity"
)

var (
	heading = color.New(color.Bold)
	muted   = color.New(color.FgHiBlack)
	failure = color.New(color.FgRed)
	user    = color.New(color.FgBlue)
	bot     = color.New(color.FgGreen)
	notice  = color.New(color.FgYellow)
)

const timeLayout = "Mon Jan 2 15:04"

// Agenda renders the calendar result in whatever state it is in.
func Agenda(w io.Writer, res cache.Result[dto.EventsResponse], loc *time.Location) {
	switch {
	case res.Status == cache.StatusIdle:
		notice.Fprintln(w, "Not signed in. Run `calassist login`.")
		return
	case res.Status == cache.StatusLoading && !res.HasData():
		muted.Fprintln(w, "Loading events…")
		return
	case res.Status == cache.StatusError && !res.HasData():
		failure.Fprintf(w, "Error: %v\n", res.Err)
		return
	}

	heading.Fprintln(w, "Your agenda")
	fmt.Fprintf(w, "Total meeting time (last 7 d → tomorrow): %s\n",
		heading.Sprintf("%.2f h", res.Data.TotalHours))

	if len(res.Data.Events) == 0 {
		muted.Fprintln(w, "No events.")
	}
	for _, ev := range res.Data.Events {
		fmt.Fprintf(w, "\n• %s\n", ev.Title())
		muted.Fprintf(w, "  %s – %s\n", ev.Start.In(loc).Format(timeLayout), ev.End.In(loc).Format(timeLayout))
		if ev.HangoutLink != nil && *ev.HangoutLink != "" {
			muted.Fprintf(w, "  %s\n", *ev.HangoutLink)
		}
	}

	if res.Stale || res.Status == cache.StatusError {
		fmt.Fprintln(w)
	}
	if res.Stale {
		muted.Fprintf(w, "Updated %s ago, refreshing in the background.\n", time.Since(res.FetchedAt).Round(time.Second))
	}
	if res.Status == cache.StatusError {
		failure.Fprintf(w, "Refresh failed: %v\n", res.Err)
	}
}

// Message renders one transcript line.
func Message(w io.Writer, m entity.TranscriptMessage) {
	switch {
	case m.Role == entity.RoleUser:
		user.Fprint(w, "You: ")
		fmt.Fprintln(w, m.Text)
	case m.Failed:
		bot.Fprint(w, "Bot: ")
		failure.Fprintln(w, "❌ "+m.Text)
	default:
		bot.Fprint(w, "Bot: ")
		fmt.Fprintln(w, m.Text)
	}
}

func Transcript(w io.Writer, messages []entity.TranscriptMessage) {
	for _, m := range messages {
		Message(w, m)
	}
}

// Pending shows that a chat turn is in flight.
func Pending(w io.Writer, s action.Snapshot[string]) {
	if s.Status == action.StatusPending {
		muted.Fprintln(w, "…")
	}
}

func Notice(w io.Writer, format string, args ...interface{}) {
	notice.Fprintf(w, format+"\n", args...)
}

func Error(w io.Writer, format string, args ...interface{}) {
	failure.Fprintf(w, format+"\n", args...)
}
