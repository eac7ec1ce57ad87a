package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	cfg := Default()

	if cfg.Store.Path != filepath.Join("/data", "focuslog", "focuslog.db") {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.State.Path != filepath.Join("/data", "focuslog", "state.toml") {
		t.Errorf("State.Path = %q", cfg.State.Path)
	}
	if cfg.LogSource.Command != "log" || cfg.LogSource.Subsystem != "com.raycast.macos" || cfg.LogSource.Category != "focus" {
		t.Errorf("LogSource = %+v", cfg.LogSource)
	}
	if cfg.LogSource.Timeout != 30*time.Second {
		t.Errorf("LogSource.Timeout = %v, want 30s", cfg.LogSource.Timeout)
	}
	if !cfg.Sync.AutoMigrate {
		t.Error("Sync.AutoMigrate should be true by default")
	}
	if cfg.Daemon.Interval != 5*time.Minute {
		t.Errorf("Daemon.Interval = %v, want 5m", cfg.Daemon.Interval)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default().Validate() = %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := ConfigDir(); got != filepath.Join("/xdg", "focuslog") {
		t.Errorf("ConfigDir() = %q", got)
	}
	if got := ConfigFile(); got != filepath.Join("/xdg", "focuslog", "config.yaml") {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestLoadFrom_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := `store:
  path: ` + filepath.Join(dir, "sessions.db") + `
logsource:
  timeout: 45s
daemon:
  interval: 2m
logging:
  level: debug
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	t.Setenv("FOCUSLOG_FEED_PORT", "9999")
	t.Setenv("FOCUSLOG_SYNC_AUTO_MIGRATE", "false")

	v := viper.New()
	SetDefaultsOn(v)
	ConfigureEnv(v)
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() failed: %v", err)
	}

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}

	if cfg.Store.Path != filepath.Join(dir, "sessions.db") {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.LogSource.Timeout != 45*time.Second {
		t.Errorf("LogSource.Timeout = %v, want 45s", cfg.LogSource.Timeout)
	}
	if cfg.LogSource.Category != "focus" {
		t.Errorf("LogSource.Category = %q, want default", cfg.LogSource.Category)
	}
	if cfg.Daemon.Interval != 2*time.Minute {
		t.Errorf("Daemon.Interval = %v, want 2m", cfg.Daemon.Interval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Feed.Port != 9999 {
		t.Errorf("Feed.Port = %d, want 9999 from env", cfg.Feed.Port)
	}
	if cfg.Sync.AutoMigrate {
		t.Error("Sync.AutoMigrate = true, want false from env")
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaultsOn(v)
	v.Set("daemon.interval", "0s")
	v.Set("logging.level", "loud")

	_, err := LoadFrom(v)
	if err == nil {
		t.Fatal("LoadFrom() succeeded, want validation error")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("LoadFrom() error type = %T, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(verrs), verrs)
	}
	if !strings.Contains(err.Error(), "2 validation errors") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"empty store path", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"empty state path", func(c *Config) { c.State.Path = " " }, "state.path"},
		{"state equals store", func(c *Config) { c.State.Path = c.Store.Path }, "state.path"},
		{"empty command", func(c *Config) { c.LogSource.Command = "" }, "logsource.command"},
		{"quoted subsystem", func(c *Config) { c.LogSource.Subsystem = `a" OR 1` }, "logsource.subsystem"},
		{"zero timeout", func(c *Config) { c.LogSource.Timeout = 0 }, "logsource.timeout"},
		{"negative lookback", func(c *Config) { c.LogSource.InitialLookback = -time.Hour }, "logsource.initial_lookback"},
		{"zero interval", func(c *Config) { c.Daemon.Interval = 0 }, "daemon.interval"},
		{"port too large", func(c *Config) { c.Feed.Port = 70000 }, "feed.port"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"zero max size", func(c *Config) { c.Logging.MaxSizeMB = 0 }, "logging.max_size_mb"},
		{"negative backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_backups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("Validate() = %v, want exactly one error", errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.wantField)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/x/focuslog.db"); got != filepath.Join(home, "x", "focuslog.db") {
		t.Errorf("ExpandHome(~/x/focuslog.db) = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandHome(/abs/path) = %q", got)
	}
	if got := ExpandHome("~user/x"); got != "~user/x" {
		t.Errorf("ExpandHome(~user/x) = %q", got)
	}
}

func TestMarshalYAML_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := Default()
	want.Store.Path = filepath.Join(dir, "focuslog.db")
	want.State.Path = filepath.Join(dir, "state.toml")
	want.Daemon.Interval = 90 * time.Second

	data, err := yaml.Marshal(want)
	if err != nil {
		t.Fatalf("yaml.Marshal() failed: %v", err)
	}
	if !strings.Contains(string(data), "interval: 1m30s") {
		t.Errorf("durations should render as strings, got:\n%s", data)
	}

	file := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	v := viper.New()
	SetDefaultsOn(v)
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() failed: %v", err)
	}
	got, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if got.Daemon.Interval != want.Daemon.Interval {
		t.Errorf("Daemon.Interval = %v, want %v", got.Daemon.Interval, want.Daemon.Interval)
	}
	if got.LogSource.Timeout != want.LogSource.Timeout {
		t.Errorf("LogSource.Timeout = %v, want %v", got.LogSource.Timeout, want.LogSource.Timeout)
	}
	if got.Store.Path != want.Store.Path {
		t.Errorf("Store.Path = %q, want %q", got.Store.Path, want.Store.Path)
	}
}
