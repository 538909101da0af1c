package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"mailcal/internal/pipeline"
)

type viewState int

const (
	viewLoading viewState = iota
	viewPick              // batch preview, selecting ordinals
	viewCommit            // creating events
	viewDone              // per-event results
)

type AppModel struct {
	pipeline *pipeline.Pipeline
	Err      error
	status   string

	view     viewState
	batch    *pipeline.Batch
	selected map[int]bool
	summary  *pipeline.Summary

	eventList list.Model

	width, height int
}

func NewAppModel(p *pipeline.Pipeline) AppModel {
	el := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	el.KeyMap.Quit.SetKeys("q")
	el.SetShowStatusBar(false)

	return AppModel{
		pipeline:  p,
		status:    "Fetching emails...",
		view:      viewLoading,
		selected:  make(map[int]bool),
		eventList: el,
	}
}

func (m *AppModel) Init() tea.Cmd {
	return m.previewCmd()
}

func (m *AppModel) previewCmd() tea.Cmd {
	return func() tea.Msg {
		batch, err := m.pipeline.Preview(context.Background())
		return previewDoneMsg{batch: batch, err: err}
	}
}

func (m *AppModel) commitCmd(ordinals []int) tea.Cmd {
	return func() tea.Msg {
		summary, err := m.pipeline.Commit(context.Background(), m.batch, ordinals)
		return commitDoneMsg{summary: summary, err: err}
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.eventList.SetSize(msg.Width, msg.Height-4) // room for footer
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case previewDoneMsg:
		if msg.err != nil {
			m.Err = msg.err
			return m, tea.Quit
		}
		m.batch = msg.batch
		if len(m.batch.Events) == 0 {
			m.status = fmt.Sprintf("No events found in %d emails.", m.batch.TotalEmails)
			m.view = viewDone
			return m, nil
		}
		// Everything starts selected; the user deselects what they don't want.
		for _, e := range m.batch.Events {
			m.selected[e.Ordinal] = true
		}
		m.eventList.SetItems(eventsToItems(m.batch.Events, m.selected))
		m.eventList.Title = fmt.Sprintf("Found %d events in %d emails", len(m.batch.Events), m.batch.TotalEmails)
		m.view = viewPick
		m.status = ""
		return m, nil

	case commitDoneMsg:
		if msg.err != nil {
			m.Err = msg.err
			return m, tea.Quit
		}
		m.summary = msg.summary
		m.view = viewDone
		m.status = ""
		return m, nil
	}

	var cmd tea.Cmd
	if m.view == viewPick {
		m.eventList, cmd = m.eventList.Update(msg)
	}
	return m, cmd
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.view {
	case viewPick:
		if m.eventList.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.eventList, cmd = m.eventList.Update(msg)
			return m, cmd
		}
		switch key {
		case "q":
			return m, tea.Quit
		case " ":
			return m.toggleSelected()
		case "a":
			return m.setAll(true)
		case "n":
			return m.setAll(false)
		case "enter":
			return m.commitSelection()
		}
		var cmd tea.Cmd
		m.eventList, cmd = m.eventList.Update(msg)
		return m, cmd

	case viewDone:
		switch key {
		case "q", "enter", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *AppModel) toggleSelected() (tea.Model, tea.Cmd) {
	item, ok := m.eventList.SelectedItem().(eventItem)
	if !ok {
		return m, nil
	}
	ord := item.Ordinal
	m.selected[ord] = !m.selected[ord]
	m.eventList.SetItems(eventsToItems(m.batch.Events, m.selected))
	return m, nil
}

func (m *AppModel) setAll(on bool) (tea.Model, tea.Cmd) {
	for _, e := range m.batch.Events {
		m.selected[e.Ordinal] = on
	}
	m.eventList.SetItems(eventsToItems(m.batch.Events, m.selected))
	return m, nil
}

func (m *AppModel) commitSelection() (tea.Model, tea.Cmd) {
	var ordinals []int
	for ord, on := range m.selected {
		if on {
			ordinals = append(ordinals, ord)
		}
	}
	if len(ordinals) == 0 {
		m.status = "Nothing selected — space toggles, a selects all."
		return m, nil
	}
	sort.Ints(ordinals)
	m.view = viewCommit
	m.status = fmt.Sprintf("Creating %d events...", len(ordinals))
	return m, m.commitCmd(ordinals)
}

func (m *AppModel) View() string {
	if m.Err != nil {
		return "Error: " + m.Err.Error() + "\n"
	}

	switch m.view {
	case viewLoading, viewCommit:
		if m.status != "" {
			return m.status + "\n"
		}
		return "Working...\n"

	case viewPick:
		var b strings.Builder
		b.WriteString(m.eventList.View())
		b.WriteString("\n")
		b.WriteString(pickFooter())
		if m.status != "" {
			b.WriteString("\n")
			b.WriteString(m.status)
		}
		return b.String()

	case viewDone:
		return m.doneView()
	}
	return ""
}

func (m *AppModel) doneView() string {
	var b strings.Builder
	if m.summary == nil {
		b.WriteString(m.status)
		b.WriteString("\n")
		b.WriteString(doneFooter())
		return b.String()
	}

	fmt.Fprintf(&b, "Created %d of %d events.\n\n", m.summary.Succeeded, m.summary.Attempted)
	for _, r := range m.summary.Results {
		if r.Err != nil {
			fmt.Fprintf(&b, "  ✗ %s: %v\n", r.Event.Title, r.Err)
			continue
		}
		fmt.Fprintf(&b, "  ✓ %s  %s\n", r.Event.Title, r.Handle.Link)
	}
	b.WriteString(doneFooter())
	return b.String()
}
