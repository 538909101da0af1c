package calendar

import (
	"context"
	"errors"
	"testing"

	calendarv3 "google.golang.org/api/calendar/v3"

	"mailcal/internal/model"
)

// fakeSink records inserted payloads and fails the attempts listed in failOn
// (counting every insert attempt, including retries).
type fakeSink struct {
	inserted []*calendarv3.Event
	attempts int
	failOn   map[int]bool
}

func (f *fakeSink) Insert(_ context.Context, calendarID string, ev *calendarv3.Event) (*calendarv3.Event, error) {
	f.attempts++
	if f.failOn[f.attempts] {
		return nil, errors.New("backend unavailable")
	}
	f.inserted = append(f.inserted, ev)
	return &calendarv3.Event{Id: "evt-" + ev.Summary, HtmlLink: "https://cal.example/evt-" + ev.Summary}, nil
}

func newTestMaterializer(sink Sink) *Materializer {
	m := NewMaterializer(sink, "primary", "Asia/Tokyo")
	m.RetryWait = 0
	return m
}

func TestBuildEvent_TimedScenario(t *testing.T) {
	m := newTestMaterializer(&fakeSink{})
	ev := m.BuildEvent(model.NormalizedEvent{
		Title:         "Team Sync",
		StartDate:     "2025-06-06",
		EndDate:       "2025-06-06",
		StartTime:     "10:00",
		EndTime:       "10:30",
		SourceSubject: "Team Sync",
	})

	if ev.Start.DateTime != "2025-06-06T10:00:00" {
		t.Errorf("start = %q", ev.Start.DateTime)
	}
	if ev.End.DateTime != "2025-06-06T10:30:00" {
		t.Errorf("end = %q", ev.End.DateTime)
	}
	if ev.Start.TimeZone != "Asia/Tokyo" || ev.End.TimeZone != "Asia/Tokyo" {
		t.Errorf("timezone = %q / %q", ev.Start.TimeZone, ev.End.TimeZone)
	}
	if ev.Start.Date != "" {
		t.Errorf("timed event carries date-only start %q", ev.Start.Date)
	}
	if ev.Description != "Source: Team Sync" {
		t.Errorf("description = %q", ev.Description)
	}
}

func TestBuildEvent_AllDayPassesEndDateThrough(t *testing.T) {
	m := newTestMaterializer(&fakeSink{})
	ev := m.BuildEvent(model.NormalizedEvent{
		Title:     "Offsite",
		StartDate: "2025-09-01",
		EndDate:   "2025-09-03",
		AllDay:    true,
	})
	if ev.Start.Date != "2025-09-01" || ev.End.Date != "2025-09-03" {
		t.Errorf("bounds = %q / %q", ev.Start.Date, ev.End.Date)
	}
	if ev.Start.DateTime != "" || ev.End.DateTime != "" {
		t.Error("all-day event carries dateTime bounds")
	}
}

func TestBuildEvent_LocationOmittedWhenAbsent(t *testing.T) {
	m := newTestMaterializer(&fakeSink{})

	with := m.BuildEvent(model.NormalizedEvent{Title: "A", StartDate: "2025-01-01", EndDate: "2025-01-01", AllDay: true, Location: "Room 5"})
	if with.Location != "Room 5" {
		t.Errorf("location = %q", with.Location)
	}

	without := m.BuildEvent(model.NormalizedEvent{Title: "B", StartDate: "2025-01-01", EndDate: "2025-01-01", AllDay: true})
	if without.Location != "" {
		t.Errorf("location should be empty, got %q", without.Location)
	}
}

func TestBuildEvent_ProvenanceAppendedToDescription(t *testing.T) {
	m := newTestMaterializer(&fakeSink{})
	ev := m.BuildEvent(model.NormalizedEvent{
		Title:         "Dinner",
		Description:   "Bring wine",
		StartDate:     "2025-01-01",
		EndDate:       "2025-01-01",
		AllDay:        true,
		SourceSubject: "Dinner plans",
	})
	want := "Bring wine\n\nSource: Dinner plans"
	if ev.Description != want {
		t.Errorf("description = %q, want %q", ev.Description, want)
	}
}

func TestMaterialize_PartialFailureContinues(t *testing.T) {
	// Event 2 fails both its attempt and the retry (attempts 2 and 3).
	sink := &fakeSink{failOn: map[int]bool{2: true, 3: true}}
	m := newTestMaterializer(sink)

	events := []model.NormalizedEvent{
		{Ordinal: 0, Title: "one", StartDate: "2025-01-01", EndDate: "2025-01-01", AllDay: true},
		{Ordinal: 1, Title: "two", StartDate: "2025-01-02", EndDate: "2025-01-02", AllDay: true},
		{Ordinal: 2, Title: "three", StartDate: "2025-01-03", EndDate: "2025-01-03", AllDay: true},
	}
	results := m.Materialize(context.Background(), events)

	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	succeeded := 0
	for _, r := range results {
		if r.Handle != nil {
			succeeded++
		}
	}
	if succeeded != 2 {
		t.Errorf("succeeded = %d, want 2", succeeded)
	}
	if results[1].Err == nil {
		t.Error("expected failure on second event")
	}
	if results[0].Handle == nil || results[2].Handle == nil {
		t.Error("first and third events should have handles")
	}
	if results[0].Handle.ID != "evt-one" || results[0].Handle.Link == "" {
		t.Errorf("handle = %+v", results[0].Handle)
	}
}

func TestMaterialize_RetrySucceeds(t *testing.T) {
	sink := &fakeSink{failOn: map[int]bool{1: true}}
	m := newTestMaterializer(sink)

	results := m.Materialize(context.Background(), []model.NormalizedEvent{
		{Title: "flaky", StartDate: "2025-01-01", EndDate: "2025-01-01", AllDay: true},
	})
	if results[0].Err != nil {
		t.Fatalf("retry should have recovered: %v", results[0].Err)
	}
	if sink.attempts != 2 {
		t.Errorf("attempts = %d, want 2", sink.attempts)
	}
}
