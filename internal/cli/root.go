// Package cli implements the callprobe commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/akshayasree99/healthx-signal/internal/ui"
	"github.com/akshayasree99/healthx-signal/internal/version"
)

var (
	flagRelayURL string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "callprobe",
	Short:   "Diagnostic client for the signaling relay",
	Long:    `callprobe speaks the relay protocol. It can watch a room's membership and signaling traffic, place a test call between two probes over a real WebRTC data channel, and list the relay's live rooms.`,
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRelayURL, "relay", "", "Relay websocket URL (default ws://localhost:8080/ws)")
	rootCmd.PersistentFlags().StringVar(&flagSTUN, "stun", "", "STUN server URL")
	rootCmd.PersistentFlags().StringVar(&flagTURN, "turn", "", "TURN server URL")
	rootCmd.PersistentFlags().StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	rootCmd.PersistentFlags().StringVar(&flagTURNPass, "turn-pass", "", "TURN password")

	rootCmd.AddCommand(watchCmd, callCmd, roomsCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}
