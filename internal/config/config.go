package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds catalog service configuration
type ServerConfig struct {
	URL    string `mapstructure:"url"`     // Catalog service base URL
	APIKey string `mapstructure:"api_key"` // Bearer token for the service
	UserID string `mapstructure:"user_id"` // Authenticated user id
}

// CatalogConfig holds browsing limits and defaults
type CatalogConfig struct {
	PageSize               int    `mapstructure:"page_size"`
	MaxActiveFilters       int    `mapstructure:"max_active_filters"`
	MaxExcludedPerCategory int    `mapstructure:"max_excluded_per_category"`
	YearFrom               int    `mapstructure:"year_from"` // Default lower year bound
	YearTo                 int    `mapstructure:"year_to"`   // Default upper year bound
	DefaultSort            string `mapstructure:"default_sort"`
}

// DefaultYears returns the combined "from-to" full year range.
func (c CatalogConfig) DefaultYears() string {
	return fmt.Sprintf("%d-%d", c.YearFrom, c.YearTo)
}

// CacheConfig holds query-cache tuning
type CacheConfig struct {
	MaxEntries      int  `mapstructure:"max_entries"`
	TTLMillis       int  `mapstructure:"ttl_ms"`
	RefreshOnAccess bool `mapstructure:"refresh_on_access"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{},
		Catalog: CatalogConfig{
			PageSize:               20,
			MaxActiveFilters:       3,
			MaxExcludedPerCategory: 5,
			YearFrom:               1900,
			YearTo:                 2030,
			DefaultSort:            "year,desc",
		},
		Cache: CacheConfig{
			MaxEntries:      50,
			TTLMillis:       300000,
			RefreshOnAccess: true,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "cartelera", "cartelera.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "cartelera", "cartelera.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "cartelera")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "cartelera")
	}
}

// DefaultDataPath returns the directory for the offline snapshot store
func DefaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "cartelera", "data")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "cartelera", "data")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("CARTELERA")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("server.url", cfg.Server.URL)
	viper.Set("server.api_key", cfg.Server.APIKey)
	viper.Set("server.user_id", cfg.Server.UserID)

	viper.Set("catalog.page_size", cfg.Catalog.PageSize)
	viper.Set("catalog.max_active_filters", cfg.Catalog.MaxActiveFilters)
	viper.Set("catalog.max_excluded_per_category", cfg.Catalog.MaxExcludedPerCategory)
	viper.Set("catalog.year_from", cfg.Catalog.YearFrom)
	viper.Set("catalog.year_to", cfg.Catalog.YearTo)
	viper.Set("catalog.default_sort", cfg.Catalog.DefaultSort)

	viper.Set("cache.max_entries", cfg.Cache.MaxEntries)
	viper.Set("cache.ttl_ms", cfg.Cache.TTLMillis)
	viper.Set("cache.refresh_on_access", cfg.Cache.RefreshOnAccess)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the service URL and key are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.APIKey != ""
}
