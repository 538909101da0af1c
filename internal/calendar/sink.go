package calendar

import (
	"context"
	"fmt"
	"net/http"

	calendarv3 "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Sink accepts event-creation requests. The production implementation is
// Google Calendar; tests substitute a fake.
type Sink interface {
	Insert(ctx context.Context, calendarID string, ev *calendarv3.Event) (*calendarv3.Event, error)
}

// GoogleSink submits events to the Google Calendar API.
type GoogleSink struct {
	svc *calendarv3.Service
}

// NewGoogleSink wraps an authenticated HTTP client in a Calendar API service.
func NewGoogleSink(ctx context.Context, client *http.Client) (*GoogleSink, error) {
	svc, err := calendarv3.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &GoogleSink{svc: svc}, nil
}

func (s *GoogleSink) Insert(ctx context.Context, calendarID string, ev *calendarv3.Event) (*calendarv3.Event, error) {
	return s.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
}
