package model

// RawEmail is one fetched mailbox message, reduced to what extraction needs.
// The body is plain text, already decoded from its transport encoding.
type RawEmail struct {
	ID      string
	Subject string
	Body    string
}

// CandidateRecord is the extractor's claimed event for one email, before any
// validation. Any field may be empty; only records with HasEvent set are
// forwarded to normalization.
type CandidateRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	StartTime   string `json:"start_time"`
	EndDate     string `json:"end_date"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location"`
	AllDay      bool   `json:"all_day"`
	HasEvent    bool   `json:"has_event"`

	// SourceSubject is provenance attached by the adapter, not extractor output.
	SourceSubject string `json:"-"`
}

// NormalizedEvent is the canonical, validated event record ready for calendar
// submission. Dates are "2006-01-02", clock times "15:04"; an empty time means
// the field is absent. When AllDay is set both times are empty.
type NormalizedEvent struct {
	// Ordinal is the zero-based position within one extraction batch. It is
	// only meaningful for selection inside that batch, never persisted.
	Ordinal int

	Title       string
	Description string
	StartDate   string
	EndDate     string
	StartTime   string
	EndTime     string
	AllDay      bool
	Location    string

	SourceSubject string
}

// Timed reports whether the event carries a time-of-day component.
func (e NormalizedEvent) Timed() bool { return !e.AllDay && e.StartTime != "" }

// PersistedHandle references an event created in the calendar backend.
type PersistedHandle struct {
	ID   string
	Link string
}

// MaterializeResult is the per-event outcome of a materialization batch.
// Exactly one of Handle and Err is set.
type MaterializeResult struct {
	Event  NormalizedEvent
	Handle *PersistedHandle
	Err    error
}
