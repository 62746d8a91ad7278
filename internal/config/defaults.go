package config

const (
	defaultConfigPath         = "~/.config/crmagent/config.toml"
	defaultClientsPath        = "~/.local/share/crmagent/clients.csv"
	defaultStateDir           = "~/.local/share/crmagent"
	defaultLogDir             = "~/.local/share/crmagent/logs"
	defaultAPIBind            = "127.0.0.1:7490"
	defaultPollIntervalMS     = 1000
	defaultSessionWaitSeconds = 10
	defaultMaxDurationSeconds = 300
	defaultRetentionMinutes   = 60
	defaultSweepSchedule      = "@every 5m"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultNtfyTimeoutSeconds = 10
)

// Env vars that override file values.
const (
	EnvClientsPath = "CRMAGENT_CLIENTS_PATH"
	EnvAPIBind     = "CRMAGENT_API_BIND"
	EnvLogLevel    = "CRMAGENT_LOG_LEVEL"
	EnvAPIToken    = "CRMAGENT_API_TOKEN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ClientsPath: defaultClientsPath,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
			APIBind:     defaultAPIBind,
		},
		Stream: Stream{
			PollIntervalMS:     defaultPollIntervalMS,
			SessionWaitSeconds: defaultSessionWaitSeconds,
			MaxDurationSeconds: defaultMaxDurationSeconds,
		},
		Sessions: Sessions{
			RetentionMinutes: defaultRetentionMinutes,
			SweepSchedule:    defaultSweepSchedule,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
	}
}
