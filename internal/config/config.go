package config

import "time"

// Config holds the daemon configuration loaded from ~/.gainhour/config.yaml.
// Every field has a usable default so the file is optional.
type Config struct {
	// ListenPort is the HTTP API port. 0 picks a free port.
	ListenPort int `yaml:"listen_port"`

	// DBPath overrides the default database location when non-empty.
	DBPath string `yaml:"db_path,omitempty"`

	// TickInterval is the window poll period.
	TickInterval time.Duration `yaml:"tick_interval"`

	// HeartbeatInterval bounds how much duration accounting an ungraceful
	// exit can lose.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// DiscordClientID is the rich-presence application id.
	DiscordClientID string `yaml:"discord_client_id"`

	// LogLevel is a zerolog level string (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// WatchProcesses enables the process-list fallback sensor on
	// platforms without window detection: only the named processes are
	// tracked as open.
	WatchProcesses []string `yaml:"watch_processes,omitempty"`
}

// NewConfig creates a config with default values.
func NewConfig() *Config {
	return &Config{
		ListenPort:        0,
		TickInterval:      time.Second,
		HeartbeatInterval: 30 * time.Second,
		DiscordClientID:   "1469935146579918868",
		LogLevel:          "info",
	}
}

// Load reads ~/.gainhour/config.yaml, falling back to defaults for a
// missing file or missing fields.
func Load() (*Config, error) {
	path, err := GlobalConfigFile()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadYAMLOrDefault(path, NewConfig)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to ~/.gainhour/config.yaml.
func Save(cfg *Config) error {
	path, err := GlobalConfigFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, cfg)
}

func (c *Config) applyDefaults() {
	def := NewConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.DiscordClientID == "" {
		c.DiscordClientID = def.DiscordClientID
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}
