package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loaders read so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RELAY_CONFIG", "PORT", "LOG_LEVEL", "LOG_FORMAT", "SERVICE_NAME",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "ALLOWED_ORIGINS", "SEND_BUFFER", "MAX_MESSAGE_SIZE",
		"RELAY_URL", "STUN_SERVER", "TURN_SERVER", "TURN_USERNAME", "TURN_PASSWORD",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRelay_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadRelay(RelayOptions{})
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DefaultSendBuffer, cfg.SendBuffer)
	assert.EqualValues(t, DefaultMaxMessageSize, cfg.MaxMessageSize)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestLoadRelay_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
port: "9000"
allowed_origins: ["https://file.example"]
log:
  level: debug
  format: json
send_buffer: 32
service_name: from-file
`)
	t.Setenv("RELAY_CONFIG", path)
	t.Setenv("PORT", "9100")
	t.Setenv("ALLOWED_ORIGINS", "https://env.example, https://other.example")
	t.Setenv("SEND_BUFFER", "64")

	cfg, err := LoadRelay(RelayOptions{Port: "9200"})
	require.NoError(t, err)

	assert.Equal(t, "9200", cfg.Port, "flag beats env and file")
	assert.Equal(t, []string{"https://env.example", "https://other.example"}, cfg.AllowedOrigins, "env beats file")
	assert.Equal(t, 64, cfg.SendBuffer)
	assert.Equal(t, "debug", cfg.LogLevel, "file beats default")
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "from-file", cfg.ServiceName)
}

func TestLoadRelay_FlagOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://env.example")

	cfg, err := LoadRelay(RelayOptions{AllowedOrigins: []string{"*"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadRelay_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
		opts RelayOptions
	}{
		{name: "port not a number", opts: RelayOptions{Port: "http"}},
		{name: "port out of range", opts: RelayOptions{Port: "70000"}},
		{name: "bad send buffer", env: map[string]string{"SEND_BUFFER": "lots"}},
		{name: "zero send buffer", env: map[string]string{"SEND_BUFFER": "0"}},
		{name: "bad log format", opts: RelayOptions{LogFormat: "xml"}},
		{name: "missing config file", opts: RelayOptions{ConfigFile: "/does/not/exist.yaml"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadRelay(tc.opts)
			assert.Error(t, err)
		})
	}
}

func TestLoadProbe(t *testing.T) {
	clearEnv(t)
	t.Setenv("RELAY_URL", "wss://relay.example/ws")
	t.Setenv("TURN_SERVER", "turn:turn.example")

	cfg, err := LoadProbe(ProbeOptions{STUNServer: "stun:stun.example:3478"})
	require.NoError(t, err)

	assert.Equal(t, "wss://relay.example/ws", cfg.RelayURL)
	assert.Equal(t, "https://relay.example/rooms", cfg.RoomsURL())
	assert.Equal(t, []string{"stun:stun.example:3478"}, cfg.GetSTUNServers())
	assert.Len(t, cfg.GetTURNServers(), 2)
}

func TestLoadProbe_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadProbe(ProbeOptions{})
	require.NoError(t, err)

	assert.Equal(t, DefaultRelayURL, cfg.RelayURL)
	assert.Equal(t, "http://localhost:8080/rooms", cfg.RoomsURL())
	assert.Nil(t, cfg.GetTURNServers())
}

func TestLoadProbe_RejectsHTTPURL(t *testing.T) {
	clearEnv(t)

	_, err := LoadProbe(ProbeOptions{RelayURL: "http://localhost:8080/ws"})
	assert.Error(t, err)
}
