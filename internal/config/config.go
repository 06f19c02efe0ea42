package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig points the client at an LMeterX backend.
type ServerConfig struct {
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	APIToken string `mapstructure:"api_token" yaml:"api_token"`
	Timeout  string `mapstructure:"timeout" yaml:"timeout"`
}

// DefaultsConfig seeds the load-profile fields of a new draft.
type DefaultsConfig struct {
	Duration        int64 `mapstructure:"duration" yaml:"duration"`
	ConcurrentUsers int64 `mapstructure:"concurrent_users" yaml:"concurrent_users"`
	SpawnRate       int64 `mapstructure:"spawn_rate" yaml:"spawn_rate"`
}

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// Manager handles configuration loading and management
type Manager struct {
	config *Config
	viper  *viper.Viper
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	v := viper.New()
	return &Manager{
		viper: v,
	}
}

// Load loads configuration from file and environment variables
func (m *Manager) Load(configPath string) error {
	// Set default values
	m.setDefaults()

	// Set config file path if provided
	if configPath != "" {
		m.viper.SetConfigFile(configPath)
	} else {
		// Look for config in common locations
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		m.viper.SetConfigName("lmxcli")
		m.viper.SetConfigType("yaml")
		m.viper.AddConfigPath(".")
		m.viper.AddConfigPath(filepath.Join(home, ".config", "lmxcli"))
		m.viper.AddConfigPath("/etc/lmxcli")
	}

	// Environment variables
	m.viper.SetEnvPrefix("LMX")
	m.viper.AutomaticEnv()

	// Read config file
	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Unmarshal into config struct
	m.config = &Config{}
	if err := m.viper.Unmarshal(m.config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return m.validate()
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	m.viper.SetDefault("server.timeout", "30s")
	m.viper.SetDefault("defaults.duration", 60)
	m.viper.SetDefault("defaults.concurrent_users", 1)
	m.viper.SetDefault("defaults.spawn_rate", 1)
}

// validate validates the loaded configuration
func (m *Manager) validate() error {
	if m.config.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}

	if _, err := time.ParseDuration(m.config.Server.Timeout); err != nil {
		return fmt.Errorf("invalid timeout format: %w", err)
	}

	if m.config.Defaults.Duration <= 0 {
		return fmt.Errorf("defaults.duration must be greater than 0")
	}
	if m.config.Defaults.ConcurrentUsers <= 0 {
		return fmt.Errorf("defaults.concurrent_users must be greater than 0")
	}
	if m.config.Defaults.SpawnRate <= 0 {
		return fmt.Errorf("defaults.spawn_rate must be greater than 0")
	}

	return nil
}

// GetConfig returns the loaded configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Timeout returns the parsed request timeout.
func (m *Manager) Timeout() time.Duration {
	if m.config == nil {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(m.config.Server.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CreateSampleConfig creates a sample configuration file
func (m *Manager) CreateSampleConfig(path string) error {
	// Create YAML content manually to avoid encoding issues
	yamlContent := `server:
  base_url: http://localhost:5173
  api_token: your-api-token
  timeout: 30s
defaults:
  duration: 60
  concurrent_users: 1
  spawn_rate: 1
`

	// Write the YAML content directly to file
	return os.WriteFile(path, []byte(yamlContent), 0644)
}
