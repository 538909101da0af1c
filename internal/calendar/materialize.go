package calendar

import (
	"context"
	"fmt"
	"time"

	calendarv3 "google.golang.org/api/calendar/v3"

	"mailcal/internal/model"
)

// Materializer converts normalized events into calendar API payloads and
// submits them, one at a time, collecting per-event outcomes.
type Materializer struct {
	sink       Sink
	calendarID string
	timezone   string

	// RetryWait is the pause before the single retry of a failed insert.
	RetryWait time.Duration
}

func NewMaterializer(sink Sink, calendarID, timezone string) *Materializer {
	return &Materializer{
		sink:       sink,
		calendarID: calendarID,
		timezone:   timezone,
		RetryWait:  500 * time.Millisecond,
	}
}

// BuildEvent maps a normalized event onto the calendar API shape. Timed events
// get dateTime+timezone bounds; all-day events get date-only bounds with the
// end date passed through unchanged (exclusive-end adjustment is the calendar
// convention's concern, not ours). A provenance line is appended to the
// description.
func (m *Materializer) BuildEvent(e model.NormalizedEvent) *calendarv3.Event {
	ev := &calendarv3.Event{
		Summary:     e.Title,
		Description: describeWithSource(e),
	}
	if e.Location != "" {
		ev.Location = e.Location
	}

	if e.Timed() {
		endTime := e.EndTime
		if endTime == "" {
			endTime = e.StartTime
		}
		ev.Start = &calendarv3.EventDateTime{
			DateTime: e.StartDate + "T" + e.StartTime + ":00",
			TimeZone: m.timezone,
		}
		ev.End = &calendarv3.EventDateTime{
			DateTime: e.EndDate + "T" + endTime + ":00",
			TimeZone: m.timezone,
		}
	} else {
		ev.Start = &calendarv3.EventDateTime{Date: e.StartDate}
		ev.End = &calendarv3.EventDateTime{Date: e.EndDate}
	}
	return ev
}

// Materialize submits each event independently, in order. One failed insert is
// retried once; a persistent failure is captured in that event's result and
// the batch continues.
func (m *Materializer) Materialize(ctx context.Context, events []model.NormalizedEvent) []model.MaterializeResult {
	results := make([]model.MaterializeResult, 0, len(events))
	for _, e := range events {
		payload := m.BuildEvent(e)

		created, err := m.sink.Insert(ctx, m.calendarID, payload)
		if err != nil && ctx.Err() == nil {
			if m.RetryWait > 0 {
				time.Sleep(m.RetryWait)
			}
			created, err = m.sink.Insert(ctx, m.calendarID, payload)
		}
		if err != nil {
			results = append(results, model.MaterializeResult{
				Event: e,
				Err:   fmt.Errorf("insert %q: %w", e.Title, err),
			})
			continue
		}
		results = append(results, model.MaterializeResult{
			Event:  e,
			Handle: &model.PersistedHandle{ID: created.Id, Link: created.HtmlLink},
		})
	}
	return results
}

func describeWithSource(e model.NormalizedEvent) string {
	if e.SourceSubject == "" {
		return e.Description
	}
	if e.Description == "" {
		return "Source: " + e.SourceSubject
	}
	return e.Description + "\n\nSource: " + e.SourceSubject
}
