// Package config defines the configuration schema for the mocket harness.
package config

// ServerConfig controls the WebSocket harness server.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// Path of the WebSocket endpoint.
	Path string `json:"path"`
}

// RegistryConfig controls the shared channel registry.
type RegistryConfig struct {
	// StartConnected makes the registry connect on startup, so sends
	// succeed without an explicit connect frame.
	StartConnected bool `json:"startConnected"`
}

// FeedConfig describes one scheduled traffic feed.
type FeedConfig struct {
	Name    string `json:"name"`
	Channel string `json:"channel"`
	// Kind is "every", "cron" or "at".
	Kind    string `json:"kind"`
	EveryMs int64  `json:"everyMs,omitempty"`
	Expr    string `json:"expr,omitempty"`
	AtMs    int64  `json:"atMs,omitempty"`
	// Payload is delivered verbatim to subscribers; {{n}} expands to the
	// 1-based fire count.
	Payload string `json:"payload"`
	Enabled bool   `json:"enabled"`
}

// Config is the root configuration object, stored at ~/.mocket/config.json.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Registry RegistryConfig `json:"registry"`
	Feeds    []FeedConfig   `json:"feeds,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 18791,
			Path: "/ws",
		},
		Registry: RegistryConfig{
			StartConnected: true,
		},
	}
}
