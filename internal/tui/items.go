package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"mailcal/internal/model"
)

// eventItem wraps a normalized event plus its selection state for display.
type eventItem struct {
	model.NormalizedEvent
	selected bool
}

func (i eventItem) FilterValue() string { return i.NormalizedEvent.Title }

func (i eventItem) Title() string {
	mark := "[ ]"
	if i.selected {
		mark = "[x]"
	}
	return fmt.Sprintf("%s %s — %s", mark, i.NormalizedEvent.Title, when(i.NormalizedEvent))
}

func (i eventItem) Description() string {
	if i.Location != "" {
		return i.Location + "  ·  from: " + i.SourceSubject
	}
	return "from: " + i.SourceSubject
}

func when(e model.NormalizedEvent) string {
	if e.Timed() {
		return fmt.Sprintf("%s %s–%s", e.StartDate, e.StartTime, e.EndTime)
	}
	if e.EndDate != e.StartDate {
		return fmt.Sprintf("%s → %s (all day)", e.StartDate, e.EndDate)
	}
	return e.StartDate + " (all day)"
}

func eventsToItems(events []model.NormalizedEvent, selected map[int]bool) []list.Item {
	items := make([]list.Item, len(events))
	for i, e := range events {
		items[i] = eventItem{NormalizedEvent: e, selected: selected[e.Ordinal]}
	}
	return items
}

var footerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241")).
	PaddingTop(1)

func pickFooter() string {
	return footerStyle.Render("space: toggle  a: all  n: none  enter: create selected  q: quit")
}

func doneFooter() string {
	return footerStyle.Render("q: quit")
}
