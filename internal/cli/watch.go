package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/akshayasree99/healthx-signal/internal/probe/peer"
	"github.com/akshayasree99/healthx-signal/internal/probe/signaling"
	"github.com/akshayasree99/healthx-signal/internal/ui"
)

var (
	flagWatchRoom        string
	flagWatchParticipant string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Join a room and show its membership and signaling traffic live",
	Long: `Join a room on the relay and render every membership event and relayed
signal addressed to this client.

Examples:
  callprobe watch --room consult-7
  callprobe watch --room consult-7 --participant observer`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchRoom(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().StringVarP(&flagWatchRoom, "room", "r", "", "Room to join")
	watchCmd.Flags().StringVarP(&flagWatchParticipant, "participant", "p", "", "Participant id (assigned by the relay when empty)")
	watchCmd.MarkFlagRequired("room")
}

func watchRoom(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	stopSpinner := ui.RunConnectionSpinner("Connecting to relay...")
	conn, err := NewConnectionContext(ctx, cfg)
	stopSpinner()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Client.Join(flagWatchRoom, flagWatchParticipant); err != nil {
		return peer.NewError("join room", err)
	}

	self := flagWatchParticipant
	if self == "" {
		self = "relay-assigned id"
	}

	events := make(chan ui.WatchEvent, 16)
	go forwardEvents(ctx, conn.Handler, events)

	model := ui.NewWatchModel(flagWatchRoom, self, events)
	if err := ui.RunWatch(model); err != nil {
		return err
	}
	if model.Closed() && ctx.Err() == nil {
		return errors.New("relay closed the connection")
	}
	return nil
}

// forwardEvents turns relay messages into watch view events. It closes out
// when the relay connection drops.
func forwardEvents(ctx context.Context, h *signaling.Handler, out chan<- ui.WatchEvent) {
	defer close(out)

	for {
		var ev ui.WatchEvent
		select {
		case who := <-h.Joined:
			ev = ui.WatchEvent{Kind: ui.EventJoined, Participant: who}
		case who := <-h.Left:
			ev = ui.WatchEvent{Kind: ui.EventLeft, Participant: who}
		case sig := <-h.Signal:
			ev = ui.WatchEvent{Kind: ui.EventSignal, Participant: sig.From, Detail: sig.Type}
		case <-h.Disconnected:
			return
		case <-ctx.Done():
			return
		}
		ev.At = time.Now()

		select {
		case out <- ev:
		case <-h.Disconnected:
			return
		case <-ctx.Done():
			return
		}
	}
}
