// Package config loads medtrack configuration from file, environment, and
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for medtrack
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// ServerConfig holds local HTTP API settings
type ServerConfig struct {
	Address      string   `mapstructure:"address"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`
	WriteTimeout int      `mapstructure:"write_timeout"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	BadgerPath string `mapstructure:"badger_path"`
}

// NotificationsConfig holds reminder delivery settings
type NotificationsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   string `mapstructure:"sound"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	defaultDataDir := dataDir
	if defaultDataDir == "" {
		defaultDataDir = getDefaultDataDir()
	}
	v.SetDefault("storage.data_dir", defaultDataDir)
	v.SetDefault("storage.badger_path", "")

	// Config file path
	if configPath == "" {
		configPath = filepath.Join(defaultDataDir, "medtrack.yaml")
	}

	// If config file exists, load it
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (MEDTRACK_SERVER_PORT, MEDTRACK_NOTIFICATIONS_ENABLED, etc.)
	v.SetEnvPrefix("MEDTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// An explicit -data flag wins over file and environment.
	if dataDir != "" {
		v.Set("storage.data_dir", dataDir)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Storage.BadgerPath == "" {
		cfg.Storage.BadgerPath = filepath.Join(cfg.Storage.DataDir, "badger")
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 8600)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.allow_origins", []string{"*"})

	// Notification defaults
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.sound", "default")
}

func getDefaultDataDir() string {
	// Try XDG_DATA_HOME first
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "medtrack")
	}

	// Fall back to home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "medtrack")
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Storage.DataDir == "" {
		return fmt.Errorf("storage data_dir must be set")
	}
	return nil
}
