package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides (FOCUSLOG_STORE_PATH, ...).
const EnvPrefix = "FOCUSLOG"

// Config represents the complete focuslog configuration
type Config struct {
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	State     StateConfig     `mapstructure:"state" yaml:"state"`
	LogSource LogSourceConfig `mapstructure:"logsource" yaml:"logsource"`
	Sync      SyncConfig      `mapstructure:"sync" yaml:"sync"`
	Daemon    DaemonConfig    `mapstructure:"daemon" yaml:"daemon"`
	Feed      FeedConfig      `mapstructure:"feed" yaml:"feed"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// StoreConfig locates the session store. The sync lock lives next to it.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// StateConfig locates the small state file holding the extraction cursor,
// the migration marker and the pending session slot.
type StateConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogSourceConfig controls the OS log query
type LogSourceConfig struct {
	// Command is the log query executable
	Command string `mapstructure:"command" yaml:"command"`
	// Subsystem and Category select the focus producer's records
	Subsystem string `mapstructure:"subsystem" yaml:"subsystem"`
	Category  string `mapstructure:"category" yaml:"category"`
	// Timeout bounds one query
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// InitialLookback is the window of the very first extraction
	InitialLookback time.Duration `mapstructure:"initial_lookback" yaml:"initial_lookback"`
}

// SyncConfig controls synchronization runs
type SyncConfig struct {
	// AutoMigrate migrates the store under the sync lock instead of refusing
	// to run when the schema is behind
	AutoMigrate bool `mapstructure:"auto_migrate" yaml:"auto_migrate"`
}

// DaemonConfig controls background syncs
type DaemonConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// FeedConfig controls the live feed server
type FeedConfig struct {
	// Port of the feed server; 0 disables it in the daemon
	Port int `mapstructure:"port" yaml:"port"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
	// File receives logs when set; otherwise logs go to stderr
	File string `mapstructure:"file" yaml:"file"`
	// MaxSizeMB is the size at which the log file is rotated
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is how many rotated files are kept
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated files
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	dataDir := DataDir()
	return &Config{
		Store: StoreConfig{
			Path: filepath.Join(dataDir, "focuslog.db"),
		},
		State: StateConfig{
			Path: filepath.Join(dataDir, "state.toml"),
		},
		LogSource: LogSourceConfig{
			Command:         "log",
			Subsystem:       "com.raycast.macos",
			Category:        "focus",
			Timeout:         30 * time.Second,
			InitialLookback: 24 * time.Hour,
		},
		Sync: SyncConfig{
			AutoMigrate: true,
		},
		Daemon: DaemonConfig{
			Interval: 5 * time.Minute,
		},
		Feed: FeedConfig{
			Port: 0,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with the global viper instance
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers default values with v
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("store.path", defaults.Store.Path)
	v.SetDefault("state.path", defaults.State.Path)

	v.SetDefault("logsource.command", defaults.LogSource.Command)
	v.SetDefault("logsource.subsystem", defaults.LogSource.Subsystem)
	v.SetDefault("logsource.category", defaults.LogSource.Category)
	v.SetDefault("logsource.timeout", defaults.LogSource.Timeout)
	v.SetDefault("logsource.initial_lookback", defaults.LogSource.InitialLookback)

	v.SetDefault("sync.auto_migrate", defaults.Sync.AutoMigrate)

	v.SetDefault("daemon.interval", defaults.Daemon.Interval)

	v.SetDefault("feed.port", defaults.Feed.Port)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	v.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from the global viper instance and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v and validates it
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Store.Path = ExpandHome(cfg.Store.Path)
	cfg.State.Path = ExpandHome(cfg.State.Path)
	cfg.Logging.File = ExpandHome(cfg.Logging.File)

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "focuslog")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".focuslog"
	}
	return filepath.Join(home, ".config", "focuslog")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir returns the directory holding the store and state files
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "focuslog")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".focuslog"
	}
	return filepath.Join(home, ".local", "share", "focuslog")
}

// ExpandHome replaces a leading ~/ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ConfigureEnv makes v read FOCUSLOG_* overrides, with dots in keys
// replaced by underscores (store.path -> FOCUSLOG_STORE_PATH)
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// MarshalYAML renders durations in their string form ("5m0s") so the
// output of `focuslog config show` can be pasted back into a config file.
func (c LogSourceConfig) MarshalYAML() (any, error) {
	return struct {
		Command         string `yaml:"command"`
		Subsystem       string `yaml:"subsystem"`
		Category        string `yaml:"category"`
		Timeout         string `yaml:"timeout"`
		InitialLookback string `yaml:"initial_lookback"`
	}{c.Command, c.Subsystem, c.Category, c.Timeout.String(), c.InitialLookback.String()}, nil
}

// MarshalYAML renders the interval as a duration string.
func (c DaemonConfig) MarshalYAML() (any, error) {
	return struct {
		Interval string `yaml:"interval"`
	}{c.Interval.String()}, nil
}
