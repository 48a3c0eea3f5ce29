package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds scraper server configuration
type ServerConfig struct {
	URL   string `mapstructure:"url"`   // Server base URL
	Token string `mapstructure:"token"` // Optional API token
}

// SyncConfig tunes the polling cadences
type SyncConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`    // Job progress poll cadence
	SummaryInterval time.Duration `mapstructure:"summary_interval"` // Collection summary poll cadence
}

// ScrapeConfig holds scrape submission defaults
type ScrapeConfig struct {
	Aggressive  bool   `mapstructure:"aggressive"`   // Use aggressive scraping by default
	DownloadDir string `mapstructure:"download_dir"` // Where artifact downloads land
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:   "",
			Token: "",
		},
		Sync: SyncConfig{
			PollInterval:    time.Second,
			SummaryInterval: 5 * time.Second,
		},
		Scrape: ScrapeConfig{
			Aggressive:  false,
			DownloadDir: defaultDownloadPath(),
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
		return filepath.Join(os.Getenv("APPDATA"), "nbsrc", "nbsrc.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "nbsrc", "nbsrc.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "nbsrc")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "nbsrc")
	}
}

// defaultCachePath returns the default cache directory for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "nbsrc", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "nbsrc", "cache")
	}
}

// defaultDownloadPath returns the default artifact download directory
func defaultDownloadPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Downloads")
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("NBSRC")
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

	if cfg.Sync.PollInterval <= 0 {
		cfg.Sync.PollInterval = time.Second
	}
	if cfg.Sync.SummaryInterval <= 0 {
		cfg.Sync.SummaryInterval = 5 * time.Second
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
	viper.Set("server.token", cfg.Server.Token)

	viper.Set("sync.poll_interval", cfg.Sync.PollInterval)
	viper.Set("sync.summary_interval", cfg.Sync.SummaryInterval)

	viper.Set("scrape.aggressive", cfg.Scrape.Aggressive)
	viper.Set("scrape.download_dir", cfg.Scrape.DownloadDir)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server URL is set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}

// GetCachePath returns the cache directory path
func GetCachePath() string {
	return defaultCachePath()
}

// ClearCache removes all cached data
func ClearCache() error {
	cachePath := defaultCachePath()
	if err := os.RemoveAll(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
