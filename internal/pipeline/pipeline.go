package pipeline

import (
	"context"
	"errors"
	"fmt"

	"mailcal/internal/calendar"
	"mailcal/internal/event"
	"mailcal/internal/extract"
	"mailcal/internal/logx"
	"mailcal/internal/model"
	"mailcal/internal/store"
)

// ErrNoSelection reports that selection narrowed the batch to nothing. It is
// an expected outcome (the user declined), not a processing failure.
var ErrNoSelection = errors.New("no events selected")

// Source yields subject/body pairs. Query semantics belong to the source.
type Source interface {
	Fetch(ctx context.Context, query string, max int64) ([]model.RawEmail, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, query string, max int64) ([]model.RawEmail, error)

func (f SourceFunc) Fetch(ctx context.Context, query string, max int64) ([]model.RawEmail, error) {
	return f(ctx, query, max)
}

// Pipeline wires the extraction chain into a two-phase preview/commit API so
// any caller (CLI, TUI, test) decides how confirmation is obtained.
type Pipeline struct {
	Source       Source
	Adapter      *extract.Adapter
	Materializer *calendar.Materializer
	Journal      *store.Journal // optional audit trail

	Query         string
	MaxEmails     int64
	NormalizeOpts event.Options
}

// Batch is one extraction run: normalized events with batch ordinals assigned,
// plus the diagnostics accumulated along the way. Ordinals are only meaningful
// against this batch.
type Batch struct {
	Events      []model.NormalizedEvent
	TotalEmails int
	Skips       []extract.Skip
	Rejects     []event.Reject
}

// Summary is the outcome of committing a selection.
type Summary struct {
	Results      []model.MaterializeResult
	Attempted    int
	Succeeded    int
	FailedTitles []string
}

// Preview fetches emails, extracts candidates, and normalizes them into a
// fresh batch. Source failures are fatal; per-email extraction problems and
// per-candidate rejections are collected as diagnostics instead.
func (p *Pipeline) Preview(ctx context.Context) (*Batch, error) {
	emails, err := p.Source.Fetch(ctx, p.Query, p.MaxEmails)
	if err != nil {
		return nil, fmt.Errorf("fetch emails: %w", err)
	}

	candidates, skips := p.Adapter.Extract(ctx, emails)
	logx.Debug("extraction complete", "emails", len(emails), "candidates", len(candidates))
	for _, s := range skips {
		logx.Info("email skipped", "subject", s.Subject, "reason", s.Reason)
		if p.Journal != nil {
			if err := p.Journal.RecordSkip(ctx, s.Subject, s.Reason); err != nil {
				logx.Error("journal skip", err)
			}
		}
	}

	events, rejects := event.NormalizeBatch(candidates, p.NormalizeOpts)
	for _, r := range rejects {
		logx.Info("candidate rejected", "title", r.Title, "subject", r.SourceSubject, "reason", r.Reason)
	}
	logx.Info("preview ready", "emails", len(emails), "events", len(events))

	return &Batch{
		Events:      events,
		TotalEmails: len(emails),
		Skips:       skips,
		Rejects:     rejects,
	}, nil
}

// Commit materializes the events the given ordinals pick from the batch.
// Returns ErrNoSelection when no ordinal survives range checking.
func (p *Pipeline) Commit(ctx context.Context, batch *Batch, ordinals []int) (*Summary, error) {
	selected := event.Select(batch.Events, ordinals)
	if len(selected) == 0 {
		return nil, ErrNoSelection
	}
	return p.commit(ctx, selected)
}

// CommitAll materializes the whole batch.
func (p *Pipeline) CommitAll(ctx context.Context, batch *Batch) (*Summary, error) {
	if len(batch.Events) == 0 {
		return nil, ErrNoSelection
	}
	return p.commit(ctx, batch.Events)
}

func (p *Pipeline) commit(ctx context.Context, selected []model.NormalizedEvent) (*Summary, error) {
	results := p.Materializer.Materialize(ctx, selected)

	if p.Journal != nil {
		if err := p.Journal.RecordResults(ctx, results); err != nil {
			logx.Error("journal results", err)
		}
	}

	sum := &Summary{Results: results, Attempted: len(results)}
	for _, r := range results {
		if r.Err != nil {
			logx.Error("event not created", r.Err, "title", r.Event.Title)
			sum.FailedTitles = append(sum.FailedTitles, r.Event.Title)
			continue
		}
		sum.Succeeded++
	}
	logx.Info("commit finished", "created", sum.Succeeded, "attempted", sum.Attempted)
	return sum, nil
}
