package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultServerURL is the import service endpoint used when nothing is configured
const DefaultServerURL = "http://localhost:5000/api"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Import  ImportConfig  `mapstructure:"import"`
	Gallery GalleryConfig `mapstructure:"gallery"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Viewer  ViewerConfig  `mapstructure:"viewer"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds import service configuration
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ImportConfig holds import tracking configuration
type ImportConfig struct {
	Source          string `mapstructure:"source"`            // path segment of POST /import/{source}
	MaxPollFailures int    `mapstructure:"max_poll_failures"` // 0 polls forever
}

// GalleryConfig holds catalog browsing configuration
type GalleryConfig struct {
	PerPage int `mapstructure:"per_page"`
}

// CacheConfig holds local cache configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // empty keeps the cache in memory only
}

// ViewerConfig holds the external image viewer configuration
type ViewerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
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
			URL:     DefaultServerURL,
			Timeout: 30 * time.Second,
		},
		Import: ImportConfig{
			Source:          "google-drive",
			MaxPollFailures: 5,
		},
		Gallery: GalleryConfig{
			PerPage: 20,
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
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
		return filepath.Join(os.Getenv("APPDATA"), "imgport", "imgport.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "imgport", "imgport.log")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "imgport")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "imgport")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "imgport", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "imgport", "cache")
	}
}

// LoadEnvFiles loads .env files into the process environment. Missing files
// are skipped; variables already set win over file values.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// LoadConfig loads configuration from file and environment. An explicit
// configFile replaces the default search paths.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(defaultConfigPath())
		viper.AddConfigPath(".")
	}

	setDefaults(cfg)

	// Environment variable overrides: IMGPORT_SERVER_URL -> server.url
	viper.SetEnvPrefix("IMGPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the config file.
func setDefaults(cfg *Config) {
	viper.SetDefault("server.url", cfg.Server.URL)
	viper.SetDefault("server.timeout", cfg.Server.Timeout)
	viper.SetDefault("import.source", cfg.Import.Source)
	viper.SetDefault("import.max_poll_failures", cfg.Import.MaxPollFailures)
	viper.SetDefault("gallery.per_page", cfg.Gallery.PerPage)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("viewer.command", cfg.Viewer.Command)
	viper.SetDefault("viewer.args", cfg.Viewer.Args)
	viper.SetDefault("logging.file", cfg.Logging.File)
	viper.SetDefault("logging.level", cfg.Logging.Level)
}

// Validate rejects values the rest of the program cannot work with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.URL) == "" {
		return fmt.Errorf("server.url must not be empty")
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative")
	}
	if c.Import.MaxPollFailures < 0 {
		return fmt.Errorf("import.max_poll_failures must not be negative")
	}
	if c.Gallery.PerPage <= 0 {
		return fmt.Errorf("gallery.per_page must be positive")
	}
	if strings.TrimSpace(c.Import.Source) == "" {
		return fmt.Errorf("import.source must not be empty")
	}
	return nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set("server.url", cfg.Server.URL)
	viper.Set("server.timeout", cfg.Server.Timeout.String())
	viper.Set("import.source", cfg.Import.Source)
	viper.Set("import.max_poll_failures", cfg.Import.MaxPollFailures)
	viper.Set("gallery.per_page", cfg.Gallery.PerPage)
	viper.Set("cache.dir", cfg.Cache.Dir)
	viper.Set("viewer.command", cfg.Viewer.Command)
	viper.Set("viewer.args", cfg.Viewer.Args)
	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ClearCache removes all cached data
func ClearCache(cfg *Config) error {
	cachePath := cfg.Cache.Dir
	if cachePath == "" {
		return nil
	}
	if err := os.RemoveAll(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// ConfigPath returns the directory searched for config.yaml
func ConfigPath() string {
	return defaultConfigPath()
}
