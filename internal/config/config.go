// Package config loads the client configuration from an HCL file with
// POKERROOM_* environment overrides layered on top.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/kelseyhightower/envconfig"
)

// Config represents the complete client configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Player PlayerSettings `hcl:"player,block"`
	UI     UISettings     `hcl:"ui,block"`
}

// ServerSettings contains server connection settings
type ServerSettings struct {
	APIURL         string `hcl:"api_url,optional"`
	SocketURL      string `hcl:"socket_url,optional"`
	ConnectTimeout int    `hcl:"connect_timeout,optional"`
	SettleDelayMS  int    `hcl:"settle_delay_ms,optional"`
}

// PlayerSettings contains player-specific settings
type PlayerSettings struct {
	Name         string `hcl:"name,optional"`
	DefaultChips int    `hcl:"default_chips,optional"`
}

// UISettings contains user interface settings
type UISettings struct {
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// envOverrides are applied after the file, prefixed POKERROOM_
// (e.g. POKERROOM_API_URL, POKERROOM_PLAYER_NAME).
type envOverrides struct {
	APIURL        string `envconfig:"API_URL"`
	SocketURL     string `envconfig:"SOCKET_URL"`
	PlayerName    string `envconfig:"PLAYER_NAME"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
	LogFile       string `envconfig:"LOG_FILE"`
	SettleDelayMS int    `envconfig:"SETTLE_DELAY_MS"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			APIURL:         "http://localhost:3001",
			SocketURL:      "ws://localhost:3001/ws",
			ConnectTimeout: 10,
			SettleDelayMS:  1500,
		},
		Player: PlayerSettings{
			Name:         "",
			DefaultChips: 1000,
		},
		UI: UISettings{
			LogLevel: "warn",
			LogFile:  "pokerroom.log",
		},
	}
}

// Load reads configuration from an HCL file, fills in defaults for
// missing values and applies environment overrides. A missing file is not
// an error; defaults plus environment apply.
func Load(filename string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(filename); err == nil {
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCLFile(filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
		}

		var fileConfig Config
		diags = gohcl.DecodeBody(file.Body, nil, &fileConfig)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
		}
		config = applyDefaults(&fileConfig)
	}

	var env envOverrides
	if err := envconfig.Process("pokerroom", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	applyEnv(config, env)

	return config, nil
}

func applyDefaults(config *Config) *Config {
	defaults := Default()

	if config.Server.APIURL == "" {
		config.Server.APIURL = defaults.Server.APIURL
	}
	if config.Server.SocketURL == "" {
		config.Server.SocketURL = defaults.Server.SocketURL
	}
	if config.Server.ConnectTimeout == 0 {
		config.Server.ConnectTimeout = defaults.Server.ConnectTimeout
	}
	if config.Server.SettleDelayMS == 0 {
		config.Server.SettleDelayMS = defaults.Server.SettleDelayMS
	}

	if config.Player.DefaultChips == 0 {
		config.Player.DefaultChips = defaults.Player.DefaultChips
	}

	if config.UI.LogLevel == "" {
		config.UI.LogLevel = defaults.UI.LogLevel
	}
	if config.UI.LogFile == "" {
		config.UI.LogFile = defaults.UI.LogFile
	}

	return config
}

func applyEnv(config *Config, env envOverrides) {
	if env.APIURL != "" {
		config.Server.APIURL = env.APIURL
	}
	if env.SocketURL != "" {
		config.Server.SocketURL = env.SocketURL
	}
	if env.PlayerName != "" {
		config.Player.Name = env.PlayerName
	}
	if env.LogLevel != "" {
		config.UI.LogLevel = env.LogLevel
	}
	if env.LogFile != "" {
		config.UI.LogFile = env.LogFile
	}
	if env.SettleDelayMS != 0 {
		config.Server.SettleDelayMS = env.SettleDelayMS
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.APIURL == "" {
		return fmt.Errorf("server API URL is required")
	}

	if c.Server.SocketURL == "" {
		return fmt.Errorf("server socket URL is required")
	}

	if c.Server.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}

	if c.Server.SettleDelayMS < 0 {
		return fmt.Errorf("settle delay cannot be negative")
	}

	if c.Player.DefaultChips <= 0 {
		return fmt.Errorf("default chips must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	return nil
}

// SettleDelay returns the post-connect settle delay as a duration
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Server.SettleDelayMS) * time.Millisecond
}

// DialTimeout returns the connection timeout as a duration
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.Server.ConnectTimeout) * time.Second
}
