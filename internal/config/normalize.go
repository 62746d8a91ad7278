package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStream()
	c.normalizeSessions()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
	return nil
}

func (c *Config) applyEnv() {
	if value, ok := lookupEnv(EnvClientsPath); ok {
		c.Paths.ClientsPath = value
	}
	if value, ok := lookupEnv(EnvAPIBind); ok {
		c.Paths.APIBind = value
	}
	if value, ok := lookupEnv(EnvAPIToken); ok {
		c.Paths.APIToken = value
	}
	if value, ok := lookupEnv(EnvLogLevel); ok {
		c.Logging.Level = value
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ClientsPath, err = expandPath(strings.TrimSpace(c.Paths.ClientsPath)); err != nil {
		return fmt.Errorf("paths.clients_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeStream() {
	if c.Stream.PollIntervalMS == 0 {
		c.Stream.PollIntervalMS = defaultPollIntervalMS
	}
	if c.Stream.SessionWaitSeconds == 0 {
		c.Stream.SessionWaitSeconds = defaultSessionWaitSeconds
	}
	if c.Stream.MaxDurationSeconds == 0 {
		c.Stream.MaxDurationSeconds = defaultMaxDurationSeconds
	}
}

func (c *Config) normalizeSessions() {
	c.Sessions.SweepSchedule = strings.TrimSpace(c.Sessions.SweepSchedule)
	if c.Sessions.SweepSchedule == "" {
		c.Sessions.SweepSchedule = defaultSweepSchedule
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
