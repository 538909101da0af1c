package event

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"mailcal/internal/model"
)

// Options controls normalization policy.
type Options struct {
	// TimedOnly rejects candidates that claim a timed event but carry no start
	// time, instead of the default of demoting them to all-day.
	TimedOnly bool
}

// Reject records why one candidate was dropped during normalization.
type Reject struct {
	Title         string
	SourceSubject string
	Reason        string
}

// Normalize validates and defaults a candidate into a canonical event.
// Title and start date are the only hard-required fields.
func Normalize(c model.CandidateRecord, opts Options) (model.NormalizedEvent, error) {
	var e model.NormalizedEvent

	title := strings.TrimSpace(c.Title)
	if title == "" {
		return e, fmt.Errorf("missing title")
	}
	startDate, ok := parseDate(c.StartDate)
	if !ok {
		return e, fmt.Errorf("missing or invalid start_date %q", c.StartDate)
	}

	endDate, ok := parseDate(c.EndDate)
	if !ok || endDate < startDate {
		endDate = startDate
	}

	e = model.NormalizedEvent{
		Title:         title,
		Description:   strings.TrimSpace(c.Description),
		StartDate:     startDate,
		EndDate:       endDate,
		AllDay:        c.AllDay,
		Location:      strings.TrimSpace(c.Location),
		SourceSubject: c.SourceSubject,
	}
	if e.AllDay {
		return e, nil
	}

	startTime, ok := parseClock(c.StartTime)
	if !ok {
		if opts.TimedOnly {
			return model.NormalizedEvent{}, fmt.Errorf("timed event without start_time")
		}
		// No time-of-day information: render as all-day rather than invent one.
		e.AllDay = true
		return e, nil
	}
	e.StartTime = startTime

	if endTime, ok := parseClock(c.EndTime); ok {
		e.EndTime = endTime
		return e, nil
	}

	// Default duration is one hour; crossing midnight rolls the end date.
	end, rolled := addHour(startTime)
	e.EndTime = end
	if rolled {
		e.EndDate = nextDay(e.EndDate)
	}
	return e, nil
}

// NormalizeBatch normalizes candidates in order, collecting per-candidate
// rejections, and assigns batch ordinals to the surviving events.
func NormalizeBatch(candidates []model.CandidateRecord, opts Options) ([]model.NormalizedEvent, []Reject) {
	var events []model.NormalizedEvent
	var rejects []Reject
	for _, c := range candidates {
		e, err := Normalize(c, opts)
		if err != nil {
			rejects = append(rejects, Reject{
				Title:         c.Title,
				SourceSubject: c.SourceSubject,
				Reason:        err.Error(),
			})
			continue
		}
		e.Ordinal = len(events)
		events = append(events, e)
	}
	return events, rejects
}

// parseDate canonicalizes a date string to "2006-01-02". Extractor output is
// usually already in that form; anything else goes through dateparse.
func parseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02"), true
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return t.Format("2006-01-02"), true
	}
	return "", false
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3 PM", "3PM"}

// parseClock canonicalizes a clock time string to "15:04".
func parseClock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}

// addHour returns clock + 1h and whether the addition crossed midnight.
func addHour(clock string) (string, bool) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return clock, false
	}
	next := t.Add(time.Hour)
	return next.Format("15:04"), next.Day() != t.Day()
}

func nextDay(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, 1).Format("2006-01-02")
}
