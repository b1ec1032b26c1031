package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const maxWatchLog = 12

// WatchEventKind classifies what the relay told a watcher.
type WatchEventKind int

const (
	EventJoined WatchEventKind = iota
	EventLeft
	EventSignal
)

// WatchEvent is one relay message shown by the room watcher.
type WatchEvent struct {
	Kind        WatchEventKind
	Participant string
	// Detail is the signal type for EventSignal.
	Detail string
	At     time.Time
}

// relayClosedMsg is delivered once the event channel is closed.
type relayClosedMsg struct{}

// WatchModel is the bubbletea model behind `callprobe watch`.
type WatchModel struct {
	room    string
	self    string
	members []string
	log     []WatchEvent
	spinner spinner.Model
	events  <-chan WatchEvent

	quitting bool
	closed   bool
}

// NewWatchModel renders events for room until events is closed or the user
// quits.
func NewWatchModel(room, self string, events <-chan WatchEvent) *WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &WatchModel{
		room:    room,
		self:    self,
		spinner: s,
		events:  events,
	}
}

// RunWatch blocks until the watch view exits.
func RunWatch(model *WatchModel) error {
	_, err := tea.NewProgram(model).Run()
	return err
}

// Closed reports whether the view ended because the relay went away.
func (m *WatchModel) Closed() bool {
	return m.closed
}

// Members returns the other participants currently in the room.
func (m *WatchModel) Members() []string {
	return slices.Clone(m.members)
}

func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvents())
}

func (m *WatchModel) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return relayClosedMsg{}
		}
		return ev
	}
}

func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case WatchEvent:
		m.apply(msg)
		return m, m.listenForEvents()

	case relayClosedMsg:
		m.closed = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *WatchModel) apply(ev WatchEvent) {
	switch ev.Kind {
	case EventJoined:
		if !slices.Contains(m.members, ev.Participant) {
			m.members = append(m.members, ev.Participant)
			slices.Sort(m.members)
		}
	case EventLeft:
		m.members = slices.DeleteFunc(m.members, func(p string) bool {
			return p == ev.Participant
		})
	}

	m.log = append(m.log, ev)
	if len(m.log) > maxWatchLog {
		m.log = m.log[len(m.log)-maxWatchLog:]
	}
}

func (m *WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n%s Room %s  %s\n\n",
		IconRoom, BoldStyle.Render(m.room), MutedStyle.Render("as "+m.self)))

	if len(m.members) == 0 {
		b.WriteString(fmt.Sprintf("%s Waiting for participants...\n", m.spinner.View()))
	} else {
		for _, p := range m.members {
			b.WriteString(fmt.Sprintf("  %s %s\n", IconPeer, p))
		}
	}

	if len(m.log) > 0 {
		b.WriteString("\n")
		for _, ev := range m.log {
			b.WriteString(formatWatchEvent(ev))
			b.WriteString("\n")
		}
	}

	b.WriteString(FooterStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

func formatWatchEvent(ev WatchEvent) string {
	stamp := MutedStyle.Render(ev.At.Format("15:04:05"))
	switch ev.Kind {
	case EventJoined:
		return fmt.Sprintf("%s %s %s joined", stamp, IconPeer, SuccessStyle.Render(ev.Participant))
	case EventLeft:
		return fmt.Sprintf("%s %s %s left", stamp, IconLeft, WarningStyle.Render(ev.Participant))
	default:
		return fmt.Sprintf("%s %s %s from %s", stamp, IconSignal, ev.Detail, ev.Participant)
	}
}
