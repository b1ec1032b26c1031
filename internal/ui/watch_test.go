package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchModel_TracksMembers(t *testing.T) {
	events := make(chan WatchEvent)
	m := NewWatchModel("consult-7", "doctor", events)
	now := time.Now()

	for _, ev := range []WatchEvent{
		{Kind: EventJoined, Participant: "patient", At: now},
		{Kind: EventJoined, Participant: "interpreter", At: now},
		{Kind: EventJoined, Participant: "patient", At: now},
		{Kind: EventSignal, Participant: "patient", Detail: "offer", At: now},
		{Kind: EventLeft, Participant: "interpreter", At: now},
	} {
		_, cmd := m.Update(ev)
		require.NotNil(t, cmd, "every event re-arms the listener")
	}

	assert.Equal(t, []string{"patient"}, m.Members())

	view := m.View()
	assert.Contains(t, view, "consult-7")
	assert.Contains(t, view, "offer from patient")
	assert.Contains(t, view, "interpreter left")
}

func TestWatchModel_LogIsBounded(t *testing.T) {
	m := NewWatchModel("r1", "me", nil)
	for i := 0; i < maxWatchLog+5; i++ {
		m.Update(WatchEvent{Kind: EventSignal, Participant: "p", Detail: "candidate"})
	}
	assert.Len(t, m.log, maxWatchLog)
}

func TestWatchModel_RelayClosed(t *testing.T) {
	events := make(chan WatchEvent)
	close(events)
	m := NewWatchModel("r1", "me", events)

	msg := m.listenForEvents()()
	_, cmd := m.Update(msg)

	assert.True(t, m.Closed())
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWatchModel_Quit(t *testing.T) {
	m := NewWatchModel("r1", "me", nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	require.NotNil(t, cmd)
	assert.Empty(t, m.View())
}
