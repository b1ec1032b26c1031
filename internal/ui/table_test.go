package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoomsView(t *testing.T) {
	view := RoomsView([]RoomRow{
		{Name: "consult-7", Participants: []string{"doctor", "patient"}},
		{Name: "triage", Participants: []string{"nurse"}},
	})

	assert.Contains(t, view, "consult-7")
	assert.Contains(t, view, "doctor, patient")
	assert.Contains(t, view, "triage")
}

func TestRoomsView_Empty(t *testing.T) {
	assert.Contains(t, RoomsView(nil), "No active rooms")
}

func TestFormatRTT(t *testing.T) {
	assert.Equal(t, "-", FormatRTT(0))
	assert.Equal(t, "1.50 ms", FormatRTT(1500*time.Microsecond))
}

func TestFormatLoss(t *testing.T) {
	assert.Equal(t, "-", formatLoss(0, 0))
	assert.Equal(t, "25%", formatLoss(4, 3))
}
