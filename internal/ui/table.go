package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RoomRow is one line of the rooms listing.
type RoomRow struct {
	Name         string
	Participants []string
}

// RoomsView renders the relay's live rooms as a table.
func RoomsView(rooms []RoomRow) string {
	if len(rooms) == 0 {
		return MutedStyle.Render("No active rooms")
	}

	tw := prettytable.NewWriter()
	tw.SetStyle(prettytable.StyleRounded)
	tw.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}
	tw.AppendHeader(prettytable.Row{"#", "Room", "Members", "Participants"})

	total := 0
	for i, room := range rooms {
		total += len(room.Participants)
		tw.AppendRow(prettytable.Row{
			i + 1,
			room.Name,
			len(room.Participants),
			strings.Join(room.Participants, ", "),
		})
	}
	tw.AppendFooter(prettytable.Row{"", "Total", total, ""})

	return tw.Render()
}

func RenderRooms(rooms []RoomRow) {
	fmt.Println(RoomsView(rooms))
}

// CallSummary describes a finished probe call.
type CallSummary struct {
	Room     string
	Remote   string
	Sent     int
	Received int
	Min      time.Duration
	Avg      time.Duration
	Median   time.Duration
	Max      time.Duration
}

func CallSummaryView(summary CallSummary) string {
	headers := []string{"Metric", "Value"}
	rows := [][]string{
		{"Room", summary.Room},
		{"Remote peer", summary.Remote},
		{"Pings", fmt.Sprintf("%d sent, %d received", summary.Sent, summary.Received)},
		{"Loss", formatLoss(summary.Sent, summary.Received)},
		{"Min RTT", FormatRTT(summary.Min)},
		{"Avg RTT", FormatRTT(summary.Avg)},
		{"Median RTT", FormatRTT(summary.Median)},
		{"Max RTT", FormatRTT(summary.Max)},
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

func RenderCallSummary(summary CallSummary) {
	fmt.Println(CallSummaryView(summary))
}

// FormatRTT prints a round trip with millisecond precision.
func FormatRTT(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f ms", float64(d)/float64(time.Millisecond))
}

func formatLoss(sent, received int) string {
	if sent == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", float64(sent-received)*100/float64(sent))
}
