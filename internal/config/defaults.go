package config

const (
	defaultArchiveBaseURL        = "http://localhost:3000"
	defaultDetailsBaseURL        = "https://archive.org/details"
	defaultArchiveTimeoutSeconds = 30
	defaultPacingDelayMillis     = 1000
	defaultStoreDomain           = "bandcamp.com"
	defaultLogDir                = "~/.local/share/archivebatch/logs"
	defaultStateDir              = "~/.local/state/archivebatch"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultNotifyRequestTimeout  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Archive: Archive{
			BaseURL:        defaultArchiveBaseURL,
			DetailsBaseURL: defaultDetailsBaseURL,
			TimeoutSeconds: defaultArchiveTimeoutSeconds,
		},
		Workflow: Workflow{
			PacingDelayMillis: defaultPacingDelayMillis,
			StoreDomain:       defaultStoreDomain,
		},
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunStarted:     false,
			RunCompleted:   true,
			RunHalted:      true,
		},
	}
}
