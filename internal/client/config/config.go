// Package config handles configuration for the terminal client.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the gophtodo CLI.
//
// Fields:
//   - ServerURL: base URL of the gophtodo HTTP API.
//   - RequestTimeout: per-request deadline; chat turns can take a while.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 60 * time.Second
}

// LoadConfig applies defaults, then JSON (-c/-config), then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
