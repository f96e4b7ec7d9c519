package config

const (
	defaultDataDir              = "~/.local/share/pigmea"
	defaultLogDir               = "~/.local/share/pigmea/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultBroadcastURL         = "nats://127.0.0.1:4222"
	defaultSubjectPrefix        = "pedidos.events"
	defaultBroadcastName        = "pigmea"
	defaultMaintenanceInterval  = 300
	defaultAutoArchiveAfterDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			StageChanges:   true,
			Completions:    true,
			Errors:         true,
		},
		Broadcast: Broadcast{
			Enabled:       false,
			URL:           defaultBroadcastURL,
			SubjectPrefix: defaultSubjectPrefix,
			Name:          defaultBroadcastName,
		},
		Workflow: Workflow{
			MaintenanceInterval:  defaultMaintenanceInterval,
			AutoArchiveAfterDays: defaultAutoArchiveAfterDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
