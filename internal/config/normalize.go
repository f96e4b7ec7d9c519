package config

import "strings"

func (c *Config) normalize() error {
	var err error

	if c.Paths.DataDir, err = expandPath(valueOrDefault(c.Paths.DataDir, defaultDataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(valueOrDefault(c.Paths.LogDir, defaultLogDir)); err != nil {
		return err
	}

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = 10
	}

	c.Broadcast.URL = valueOrDefault(strings.TrimSpace(c.Broadcast.URL), defaultBroadcastURL)
	c.Broadcast.SubjectPrefix = strings.Trim(strings.TrimSpace(c.Broadcast.SubjectPrefix), ".")
	if c.Broadcast.SubjectPrefix == "" {
		c.Broadcast.SubjectPrefix = defaultSubjectPrefix
	}
	c.Broadcast.Name = valueOrDefault(strings.TrimSpace(c.Broadcast.Name), defaultBroadcastName)

	if c.Workflow.MaintenanceInterval <= 0 {
		c.Workflow.MaintenanceInterval = defaultMaintenanceInterval
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(valueOrDefault(c.Logging.Format, defaultLogFormat)))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(valueOrDefault(c.Logging.Level, defaultLogLevel)))

	return nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
