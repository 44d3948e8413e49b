// Package config loads client configuration from a YAML file, falling back
// to sensible defaults when the file is absent.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Transport selection values for ServerConfig.Transport.
const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)

// Staging mode values for StagingConfig.Mode.
const (
	// StagingServer sends stage/unstage commands to the server and mutates
	// local state only after an ok reply.
	StagingServer = "server"
	// StagingLocal performs staging purely in memory; the server learns the
	// selection from the play command's hand indices.
	StagingLocal = "local"
)

// ClientConfig holds all client-side settings.
type ClientConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Staging  StagingConfig  `yaml:"staging"`
	History  HistoryConfig  `yaml:"history"`
}

// ServerConfig describes how to reach the game server.
type ServerConfig struct {
	// Transport is "tcp" or "websocket".
	Transport string `yaml:"transport"`

	// Address is the host:port for TCP connections.
	Address string `yaml:"address"`

	// URL is the ws:// or wss:// endpoint for WebSocket connections.
	URL string `yaml:"url"`

	// ConnectTimeoutSeconds bounds connection establishment. 0 means no
	// client-side limit.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
}

// ProtocolConfig holds wire-protocol settings.
type ProtocolConfig struct {
	// MaxFrameSize bounds the inbound decode buffer in bytes.
	// 0 selects the protocol package default.
	MaxFrameSize int `yaml:"max_frame_size"`
}

// StagingConfig selects how card staging is validated.
type StagingConfig struct {
	Mode string `yaml:"mode"`
}

// HistoryConfig holds local game-history persistence settings.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`

	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`

	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `yaml:"sqlite_path"`

	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings for the history store.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DefaultConfig returns a ClientConfig with defaults for a local server.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Server: ServerConfig{
			Transport:             TransportTCP,
			Address:               "127.0.0.1:1001",
			ConnectTimeoutSeconds: 10,
		},
		Protocol: ProtocolConfig{
			MaxFrameSize: 0, // protocol default
		},
		Staging: StagingConfig{
			Mode: StagingServer,
		},
		History: HistoryConfig{
			Enabled:    false,
			Driver:     "sqlite",
			SQLitePath: "data/tichu_history.db",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
	}
}

// LoadConfig loads client configuration from a YAML file.
// A missing file yields the defaults; a malformed file is an error.
func LoadConfig(path string) (*ClientConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}

	if err := config.Validate(); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// Validate checks enum-valued fields.
func (c *ClientConfig) Validate() error {
	switch c.Server.Transport {
	case TransportTCP, TransportWebSocket:
	default:
		return fmt.Errorf("unknown transport %q", c.Server.Transport)
	}

	switch c.Staging.Mode {
	case StagingServer, StagingLocal:
	default:
		return fmt.Errorf("unknown staging mode %q", c.Staging.Mode)
	}

	if c.Server.Transport == TransportWebSocket && c.Server.URL == "" {
		return fmt.Errorf("websocket transport requires server.url")
	}

	return nil
}
