package testsupport

import (
	"path/filepath"
	"testing"

	"crmagent/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Stream timings are shortened so followers finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ClientsPath = filepath.Join(base, "clients.csv")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Stream.PollIntervalMS = 10
	cfgVal.Stream.SessionWaitSeconds = 1
	cfgVal.Stream.MaxDurationSeconds = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithClientsCSV writes the fixture client list to the configured clients path.
func WithClientsCSV() ConfigOption {
	return func(b *configBuilder) {
		WriteClientsCSV(b.t, b.cfg.Paths.ClientsPath)
	}
}

// WithRetention sets the completed-session retention in minutes.
func WithRetention(minutes int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sessions.RetentionMinutes = minutes
	}
}

// WithPollInterval overrides the stream poll interval.
func WithPollInterval(ms int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Stream.PollIntervalMS = ms
	}
}

// WithAPIToken requires token on API requests.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}
