package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/akshayasree99/healthx-signal/internal/config"
	"github.com/akshayasree99/healthx-signal/internal/logging"
	"github.com/akshayasree99/healthx-signal/internal/server"
	"github.com/akshayasree99/healthx-signal/internal/signaling"
	"github.com/akshayasree99/healthx-signal/internal/telemetry"
	"github.com/akshayasree99/healthx-signal/internal/version"
)

const shutdownTimeout = 10 * time.Second

var opts config.RelayOptions

var rootCmd = &cobra.Command{
	Use:     "relay",
	Short:   "Signaling relay for peer-to-peer video calls",
	Long:    `relay accepts websocket connections, groups them into named rooms and forwards offer, answer and ICE candidate messages between the members of each room. Media never passes through it.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to a YAML config file")
	rootCmd.Flags().StringVarP(&opts.Port, "port", "p", "", "Port to listen on")
	rootCmd.Flags().StringSliceVar(&opts.AllowedOrigins, "origin", nil, "Allowed websocket origin (repeatable, * allows any)")
	rootCmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&opts.LogFormat, "log-format", "", "Log format: text or json")
}

func run(ctx context.Context) error {
	cfg, err := config.LoadRelay(opts)
	if err != nil {
		return err
	}

	log := logging.Init(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat)

	shutdownTracing, err := telemetry.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("flush traces", logging.Err(err))
		}
	}()

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()

	hub := signaling.NewHub(log, signaling.Options{
		SendBuffer:     cfg.SendBuffer,
		MaxMessageSize: cfg.MaxMessageSize,
	})
	go hub.Run(hubCtx)

	srv := server.New(log, hub, server.Config{
		Addr:           cfg.Addr(),
		AllowedOrigins: cfg.AllowedOrigins,
		ServiceName:    cfg.ServiceName,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Stopping the hub closes every open websocket.
	stopHub()
	return <-errCh
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "relay:", err)
		os.Exit(1)
	}
}
