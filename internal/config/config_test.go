package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"crmagent/internal/config"
)

// clearEnv removes a variable for the duration of the test.
func clearEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t, config.EnvClientsPath)
	clearEnv(t, config.EnvAPIBind)
	clearEnv(t, config.EnvLogLevel)
	clearEnv(t, config.EnvAPIToken)
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(home, ".local", "share", "crmagent")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.ClientsPath != filepath.Join(wantState, "clients.csv") {
		t.Fatalf("unexpected clients path: %q", cfg.Paths.ClientsPath)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7490" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.PollInterval() != time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.SessionWait() != 10*time.Second {
		t.Fatalf("unexpected session wait: %s", cfg.SessionWait())
	}
	if cfg.MaxStreamDuration() != 5*time.Minute {
		t.Fatalf("unexpected max stream duration: %s", cfg.MaxStreamDuration())
	}
	if cfg.Sessions.SweepSchedule != "@every 5m" {
		t.Fatalf("unexpected sweep schedule: %q", cfg.Sessions.SweepSchedule)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if filepath.Dir(cfg.LockPath()) != cfg.Paths.StateDir {
		t.Fatalf("lock path outside state dir: %q", cfg.LockPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	isolate(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "crmagent.toml")

	type payload struct {
		Paths struct {
			ClientsPath string `toml:"clients_path"`
			StateDir    string `toml:"state_dir"`
		} `toml:"paths"`
		Stream struct {
			PollIntervalMS int `toml:"poll_interval_ms"`
		} `toml:"stream"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.ClientsPath = filepath.Join(tempDir, "clients.db")
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	custom.Stream.PollIntervalMS = 250
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.ClientsPath != custom.Paths.ClientsPath {
		t.Fatalf("unexpected clients path: %q", cfg.Paths.ClientsPath)
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lowercased json format, got %q", cfg.Logging.Format)
	}
	if cfg.Stream.MaxDurationSeconds != 300 {
		t.Fatalf("expected default max duration retained, got %d", cfg.Stream.MaxDurationSeconds)
	}
}

func TestEnvOverridesFileValues(t *testing.T) {
	isolate(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "crmagent.toml")
	content := "[paths]\napi_bind = \"127.0.0.1:9000\"\n[logging]\nlevel = \"info\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(config.EnvAPIBind, "0.0.0.0:8181")
	t.Setenv(config.EnvLogLevel, "DEBUG")
	t.Setenv(config.EnvClientsPath, filepath.Join(tempDir, "env.csv"))
	t.Setenv(config.EnvAPIToken, " secret ")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIBind != "0.0.0.0:8181" {
		t.Fatalf("expected env bind, got %q", cfg.Paths.APIBind)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env level, got %q", cfg.Logging.Level)
	}
	if cfg.Paths.ClientsPath != filepath.Join(tempDir, "env.csv") {
		t.Fatalf("expected env clients path, got %q", cfg.Paths.ClientsPath)
	}
	if cfg.Paths.APIToken != "secret" {
		t.Fatalf("expected trimmed env token, got %q", cfg.Paths.APIToken)
	}
}

func TestDotEnvBesideConfigIsLoaded(t *testing.T) {
	isolate(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "crmagent.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nformat = \"console\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte(config.EnvAPIBind+"=127.0.0.1:7777\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7777" {
		t.Fatalf("expected .env bind, got %q", cfg.Paths.APIBind)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"bind", func(c *config.Config) { c.Paths.APIBind = "nonsense" }, "paths.api_bind"},
		{"poll", func(c *config.Config) { c.Stream.PollIntervalMS = -1 }, "stream.poll_interval_ms"},
		{"retention", func(c *config.Config) { c.Sessions.RetentionMinutes = -5 }, "sessions.retention_minutes"},
		{"schedule", func(c *config.Config) { c.Sessions.SweepSchedule = "every so often" }, "sessions.sweep_schedule"},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "ntfy.sh/topic" }, "notifications.ntfy_topic"},
		{"ntfy timeout", func(c *config.Config) { c.Notifications.RequestTimeoutSeconds = -1 }, "notifications.request_timeout_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Sessions.RetentionMinutes != 60 {
		t.Fatalf("unexpected retention: %d", cfg.Sessions.RetentionMinutes)
	}
}
