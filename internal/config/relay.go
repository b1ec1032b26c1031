package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default relay configuration values
const (
	DefaultPort           = "8080"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultServiceName    = "healthx-signal"
	DefaultSendBuffer     = 256
	DefaultMaxMessageSize = 64 * 1024
)

// Relay holds the relay server configuration.
type Relay struct {
	// Port the HTTP listener binds to.
	Port string

	// AllowedOrigins lists browser origins accepted on the websocket
	// handshake. "*" accepts any origin; an empty list accepts same-host
	// requests only.
	AllowedOrigins []string

	LogLevel  string
	LogFormat string

	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int

	// MaxMessageSize caps inbound frames, in bytes.
	MaxMessageSize int64

	ServiceName string

	// OTLPEndpoint enables trace export when set (host:port of a collector).
	OTLPEndpoint string
}

// RelayOptions carries command-line overrides. Zero values mean "not set".
type RelayOptions struct {
	ConfigFile     string
	Port           string
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
}

// relayFile is the on-disk YAML shape.
type relayFile struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Log            struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	SendBuffer     int    `yaml:"send_buffer"`
	MaxMessageSize int64  `yaml:"max_message_size"`
	ServiceName    string `yaml:"service_name"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
}

// LoadRelay builds the relay configuration with the following priority:
// 1. CLI flags (passed via RelayOptions) - highest priority
// 2. Environment variables (a .env file in the working directory is read first)
// 3. YAML config file (--config or RELAY_CONFIG)
// 4. Hardcoded defaults - lowest priority
func LoadRelay(opts RelayOptions) (*Relay, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Relay{
		Port:           DefaultPort,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		SendBuffer:     DefaultSendBuffer,
		MaxMessageSize: DefaultMaxMessageSize,
		ServiceName:    DefaultServiceName,
	}

	path := firstNonEmpty(opts.ConfigFile, os.Getenv("RELAY_CONFIG"))
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.Port = firstNonEmpty(opts.Port, cfg.Port)
	cfg.LogLevel = firstNonEmpty(opts.LogLevel, cfg.LogLevel)
	cfg.LogFormat = firstNonEmpty(opts.LogFormat, cfg.LogFormat)
	if len(opts.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = opts.AllowedOrigins
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Relay) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var f relayFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.Port = firstNonEmpty(f.Port, c.Port)
	c.LogLevel = firstNonEmpty(f.Log.Level, c.LogLevel)
	c.LogFormat = firstNonEmpty(f.Log.Format, c.LogFormat)
	c.ServiceName = firstNonEmpty(f.ServiceName, c.ServiceName)
	c.OTLPEndpoint = firstNonEmpty(f.OTLPEndpoint, c.OTLPEndpoint)
	if len(f.AllowedOrigins) > 0 {
		c.AllowedOrigins = f.AllowedOrigins
	}
	if f.SendBuffer != 0 {
		c.SendBuffer = f.SendBuffer
	}
	if f.MaxMessageSize != 0 {
		c.MaxMessageSize = f.MaxMessageSize
	}
	return nil
}

func (c *Relay) applyEnv() error {
	c.Port = firstNonEmpty(os.Getenv("PORT"), c.Port)
	c.LogLevel = firstNonEmpty(os.Getenv("LOG_LEVEL"), c.LogLevel)
	c.LogFormat = firstNonEmpty(os.Getenv("LOG_FORMAT"), c.LogFormat)
	c.ServiceName = firstNonEmpty(os.Getenv("SERVICE_NAME"), c.ServiceName)
	c.OTLPEndpoint = firstNonEmpty(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), c.OTLPEndpoint)

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("SEND_BUFFER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SEND_BUFFER: %w", err)
		}
		c.SendBuffer = n
	}
	if v := os.Getenv("MAX_MESSAGE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_MESSAGE_SIZE: %w", err)
		}
		c.MaxMessageSize = n
	}
	return nil
}

// Validate rejects values the relay cannot run with.
func (c *Relay) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send buffer must be positive, got %d", c.SendBuffer)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("max message size must be positive, got %d", c.MaxMessageSize)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// Addr is the listen address for net/http.
func (c *Relay) Addr() string {
	return ":" + c.Port
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
