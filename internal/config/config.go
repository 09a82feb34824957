// Package config loads CLI configuration from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/SeamusWaldron/giiker_ble_library"
)

// Config holds all configuration for the giiker CLI
type Config struct {
	BLE     BLEConfig     `mapstructure:"ble"`
	Session SessionConfig `mapstructure:"session"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
}

// BLEConfig defines device discovery settings
type BLEConfig struct {
	NamePrefix  string        `mapstructure:"name_prefix"`
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
}

// SessionConfig defines session settings
type SessionConfig struct {
	BatteryTimeout time.Duration `mapstructure:"battery_timeout"`
	MoveHistory    bool          `mapstructure:"move_history"`
}

// StorageConfig defines where recordings and app state live
type StorageConfig struct {
	DBPath    string `mapstructure:"db_path"`
	StatePath string `mapstructure:"state_path"`
}

// LoggingConfig defines logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServeConfig defines the event stream server
type ServeConfig struct {
	Addr  string `mapstructure:"addr"`
	Codec string `mapstructure:"codec"`
}

// BridgeConfig defines the line bridge used instead of BLE when Port is set
type BridgeConfig struct {
	Port string `mapstructure:"port"`
	Baud int    `mapstructure:"baud"`
}

// EnvPrefix is the prefix of environment overrides, e.g. GIIKER_LOGGING_LEVEL.
const EnvPrefix = "GIIKER"

// envKeyReplacer maps nested keys to variable names: ble.scan_timeout is
// read from GIIKER_BLE_SCAN_TIMEOUT.
var envKeyReplacer = strings.NewReplacer(".", "_")

// Load loads configuration from configPath, or from config.yaml in the
// working directory or ~/.giiker when configPath is empty. A missing
// config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	// Read environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".giiker"), nil
}

func setDefaults(v *viper.Viper) {
	dir, err := Dir()
	if err != nil {
		dir = ".giiker"
	}

	v.SetDefault("ble.name_prefix", giiker.DefaultNamePrefix)
	v.SetDefault("ble.scan_timeout", "10s")

	v.SetDefault("session.battery_timeout", "5s")
	v.SetDefault("session.move_history", true)

	v.SetDefault("storage.db_path", filepath.Join(dir, "giiker.db"))
	v.SetDefault("storage.state_path", filepath.Join(dir, "state.json"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("serve.addr", "127.0.0.1:8080")
	v.SetDefault("serve.codec", "json")

	v.SetDefault("bridge.port", "")
	v.SetDefault("bridge.baud", 115200)
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if c.BLE.ScanTimeout <= 0 {
		return fmt.Errorf("config: ble.scan_timeout must be positive, got %s", c.BLE.ScanTimeout)
	}
	if c.Session.BatteryTimeout < 0 {
		return fmt.Errorf("config: session.battery_timeout must not be negative, got %s", c.Session.BatteryTimeout)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.Bridge.Baud <= 0 {
		return fmt.Errorf("config: bridge.baud must be positive, got %d", c.Bridge.Baud)
	}
	return nil
}
