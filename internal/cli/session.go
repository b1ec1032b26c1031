package cli

import (
	"context"
	"time"

	"github.com/akshayasree99/healthx-signal/internal/config"
	"github.com/akshayasree99/healthx-signal/internal/probe/peer"
	"github.com/akshayasree99/healthx-signal/internal/probe/signaling"
)

const dialTimeout = 10 * time.Second

// ConnectionContext bundles a live relay connection and its event router.
type ConnectionContext struct {
	Client  *signaling.Client
	Handler *signaling.Handler
	Config  *config.Probe
}

func NewConnectionContext(ctx context.Context, cfg *config.Probe) (*ConnectionContext, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	client := signaling.NewClient(cfg.RelayURL)
	if err := client.Connect(dialCtx); err != nil {
		return nil, peer.NewError("connect to relay", err)
	}

	handler := signaling.NewHandler(client)
	go handler.Start()

	return &ConnectionContext{
		Client:  client,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (c *ConnectionContext) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

func LoadConfig() (*config.Probe, error) {
	cfg, err := config.LoadProbe(config.ProbeOptions{
		RelayURL:   flagRelayURL,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
	})
	if err != nil {
		return nil, peer.NewError("load config", err)
	}
	return cfg, nil
}
