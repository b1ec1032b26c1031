package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Default probe configuration values
const (
	DefaultRelayURL = "ws://localhost:8080/ws"
	DefaultSTUN     = "stun:stun.l.google.com:19302"
)

// Probe holds callprobe configuration
type Probe struct {
	// RelayURL is the websocket endpoint of the relay
	RelayURL string

	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// ProbeOptions for loading config with CLI flag overrides
type ProbeOptions struct {
	RelayURL   string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// LoadProbe reads configuration with the following priority:
// 1. CLI flags (passed via ProbeOptions) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func LoadProbe(opts ProbeOptions) (*Probe, error) {
	cfg := &Probe{
		RelayURL:   firstNonEmpty(opts.RelayURL, os.Getenv("RELAY_URL"), DefaultRelayURL),
		STUNServer: firstNonEmpty(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		TURNServer: firstNonEmpty(opts.TURNServer, os.Getenv("TURN_SERVER")),
		TURNUser:   firstNonEmpty(opts.TURNUser, os.Getenv("TURN_USERNAME")),
		TURNPass:   firstNonEmpty(opts.TURNPass, os.Getenv("TURN_PASSWORD")),
	}

	u, err := url.Parse(cfg.RelayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("relay URL must use ws or wss, got %q", u.Scheme)
	}
	return cfg, nil
}

// RoomsURL returns the HTTP introspection endpoint that sits next to the
// websocket endpoint.
func (c *Probe) RoomsURL() string {
	u, err := url.Parse(c.RelayURL)
	if err != nil {
		return ""
	}
	if u.Scheme == "wss" {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}
	u.Path = strings.TrimSuffix(u.Path, "/ws") + "/rooms"
	u.RawQuery = ""
	return u.String()
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Probe) GetSTUNServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Probe) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Probe) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
