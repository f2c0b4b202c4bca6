package config

import "time"

// Config holds runtime settings for the SeqAssist CLI.
//
// Fields:
//   - APIBaseURL: root of the backend REST API.
//   - RequestTimeout: bound on every HTTP request.
//   - DatabasePath: SQLite file holding the credential record.
//   - KeyFilePath: sealing key for credential values at rest.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	DatabasePath   string
	KeyFilePath    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8000"
	c.RequestTimeout = 30 * time.Second
	c.DatabasePath = "seqassist.db"
	c.KeyFilePath = "seqassist.key"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
