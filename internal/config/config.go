// Package config assembles runtime settings for the widget sync engine from
// defaults, an optional JSON file and command-line flags, in that order of
// precedence (later sources win).
package config

import "time"

// Config holds runtime settings for the widget sync engine.
//
// Fields:
//   - APIBaseURL: base URL of the backend REST API.
//   - APIToken: bearer token attached to outbound requests (may be empty).
//   - RefreshIntervalHours: periodic reminder refresh interval, hour granularity.
//   - FlipInterval: auto-flip period for advancing the visible item.
//   - HTTPTimeout: bound on every outbound network call.
//   - DataDir: directory holding the state database.
//   - CacheDir: directory holding downloaded widget images.
type Config struct {
	APIBaseURL           string
	APIToken             string
	RefreshIntervalHours int
	FlipInterval         time.Duration
	HTTPTimeout          time.Duration
	DataDir              string
	CacheDir             string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.RefreshIntervalHours = 1
	c.FlipInterval = 3 * time.Second
	c.HTTPTimeout = 15 * time.Second
	c.DataDir = "widgetsync-data"
	c.CacheDir = "widget_images"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
