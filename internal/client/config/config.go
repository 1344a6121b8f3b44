package config

import "time"

// Config holds runtime settings for the mediavault CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - AccessToken: bearer token presented on every API call. Usually entered
//     interactively; the flag exists for scripting.
//   - CacheDSN: path of the local SQLite file holding the cached asset listing.
//   - OnlineCheckInterval: how often the client probes server reachability.
//
// Units: OnlineCheckInterval is a time.Duration (e.g., 3*time.Second).
type Config struct {
	ServerEndpointAddr  string
	AccessToken         string
	CacheDSN            string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.CacheDSN = "assets_cache.db"
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
