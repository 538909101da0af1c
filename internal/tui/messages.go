package tui

import "mailcal/internal/pipeline"

// Async message types for Bubble Tea commands.

type previewDoneMsg struct {
	batch *pipeline.Batch
	err   error
}

type commitDoneMsg struct {
	summary *pipeline.Summary
	err     error
}
