package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/akshayasree99/healthx-signal/internal/logging"
	"github.com/akshayasree99/healthx-signal/internal/probe/peer"
	"github.com/akshayasree99/healthx-signal/internal/probe/signaling"
	"github.com/akshayasree99/healthx-signal/internal/ui"
)

const (
	// SignalTimeout bounds the wait for negotiation to finish once a
	// remote participant is known.
	SignalTimeout = 30 * time.Second
)

var (
	flagCallRoom        string
	flagCallParticipant string
	flagCallCount       int
	flagCallInterval    time.Duration
	flagCallWait        time.Duration
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Place a test call with another probe in the same room",
	Long: `Join a room and negotiate a WebRTC peer connection with the next probe
that joins it. Offers, answers and ICE candidates travel through the relay;
once the data channel opens the side that joined first measures round-trip
times and prints a summary.

Examples:
  callprobe call --room consult-7
  callprobe call --room consult-7 --count 20 --interval 250ms`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return placeCall(cmd.Context())
	},
}

func init() {
	callCmd.Flags().StringVarP(&flagCallRoom, "room", "r", "", "Room to join")
	callCmd.Flags().StringVarP(&flagCallParticipant, "participant", "p", "", "Participant id (assigned by the relay when empty)")
	callCmd.Flags().IntVarP(&flagCallCount, "count", "n", 10, "Number of pings to send")
	callCmd.Flags().DurationVar(&flagCallInterval, "interval", 500*time.Millisecond, "Delay between pings")
	callCmd.Flags().DurationVar(&flagCallWait, "wait", 2*time.Minute, "How long to wait for another participant")
	callCmd.MarkFlagRequired("room")
}

func placeCall(ctx context.Context) error {
	if flagCallCount <= 0 {
		return fmt.Errorf("--count must be positive")
	}

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

	if err := conn.Client.Join(flagCallRoom, flagCallParticipant); err != nil {
		return peer.NewError("join room", err)
	}
	ui.PrintSuccessf("Joined room %s", ui.BoldStyle.Render(flagCallRoom))

	pc, err := peer.NewPeerConnection(cfg)
	if err != nil {
		return err
	}
	session := peer.NewSession(pc, conn.Client, flagCallRoom)
	defer session.Close()

	offerer, err := negotiate(ctx, conn.Handler, session)
	if err != nil {
		return err
	}
	ui.PrintInfof("%s Connected to %s through the relay", ui.IconPeer, session.Remote())

	callCtx, hangUp := context.WithCancel(ctx)
	defer hangUp()
	go pumpSignals(callCtx, hangUp, conn.Handler, session)

	openCtx, cancel := context.WithTimeout(callCtx, SignalTimeout)
	defer cancel()
	stopSpinner = ui.RunConnectionSpinner("Opening data channel...")
	err = session.WaitOpen(openCtx)
	stopSpinner()
	if err != nil {
		return peer.NewError("open data channel", err)
	}
	ui.PrintSuccess("Data channel open")

	if !offerer {
		ui.PrintInfo("Answering pings from the remote probe. Press Ctrl+C to stop.")
		<-callCtx.Done()
		return nil
	}

	samples, err := session.Ping(callCtx, flagCallCount, flagCallInterval, func(seq uint32, rtt time.Duration) {
		fmt.Printf("%s seq=%d rtt=%s\n", ui.IconTime, seq, ui.FormatRTT(rtt))
	})
	if err != nil {
		ui.PrintWarning(err.Error())
	}

	stats := peer.Summarize(flagCallCount, samples)
	fmt.Println()
	ui.RenderCallSummary(ui.CallSummary{
		Room:     flagCallRoom,
		Remote:   session.Remote(),
		Sent:     stats.Sent,
		Received: stats.Received,
		Min:      stats.Min,
		Avg:      stats.Avg,
		Median:   stats.Median,
		Max:      stats.Max,
	})
	return nil
}

// negotiate waits for the first participant to show up. Whoever sees a
// user-joined first makes the offer; whoever receives an offer first answers.
// It reports whether this side is the offerer.
func negotiate(ctx context.Context, h *signaling.Handler, session *peer.Session) (bool, error) {
	stopSpinner := ui.RunWaitingSpinner(fmt.Sprintf("Waiting for another participant in %s...", flagCallRoom))
	defer stopSpinner()

	timeout := time.After(flagCallWait)
	for {
		select {
		case who := <-h.Joined:
			stopSpinner()
			if err := session.Offer(who); err != nil {
				return false, err
			}
			return true, nil

		case sig := <-h.Signal:
			switch sig.Type {
			case signaling.MessageTypeCandidate:
				// A candidate can overtake its offer; the session queues it.
				if err := session.HandleSignal(sig); err != nil {
					slog.Debug("early candidate", logging.Err(err))
				}
				continue
			case signaling.MessageTypeAnswer:
				slog.Debug("ignoring answer before offer", logging.Participant(sig.From))
				continue
			}
			stopSpinner()
			if err := session.HandleSignal(sig); err != nil {
				return false, err
			}
			return false, nil

		case <-h.Disconnected:
			return false, peer.ErrRelayClosed

		case <-timeout:
			return false, peer.WrapError("wait for participant", peer.ErrTimeout, flagCallRoom)

		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// pumpSignals applies relayed signals for the rest of the call and hangs up
// when the remote participant leaves or the relay goes away.
func pumpSignals(ctx context.Context, hangUp context.CancelFunc, h *signaling.Handler, session *peer.Session) {
	for {
		select {
		case sig := <-h.Signal:
			if sig.From != session.Remote() {
				continue
			}
			if err := session.HandleSignal(sig); err != nil {
				slog.Warn("handle signal", logging.MessageType(sig.Type), logging.Err(err))
			}

		case who := <-h.Left:
			if who == session.Remote() {
				ui.PrintWarningf("%s %s left the room", ui.IconLeft, who)
				hangUp()
				return
			}

		case <-h.Joined:
			// Late joiners are not part of this call.

		case <-h.Disconnected:
			ui.PrintWarning(peer.ErrRelayClosed.Error())
			hangUp()
			return

		case <-ctx.Done():
			return
		}
	}
}
