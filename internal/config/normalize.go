package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeArchive()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeArchive() {
	if value, ok := os.LookupEnv("ARCHIVEBATCH_BASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.Archive.BaseURL = value
	}
	if c.Archive.APIToken == "" {
		if value, ok := os.LookupEnv("ARCHIVEBATCH_API_TOKEN"); ok {
			c.Archive.APIToken = value
		}
	}
	c.Archive.APIToken = strings.TrimSpace(c.Archive.APIToken)
	c.Archive.BaseURL = strings.TrimRight(strings.TrimSpace(c.Archive.BaseURL), "/")
	if c.Archive.BaseURL == "" {
		c.Archive.BaseURL = defaultArchiveBaseURL
	}
	c.Archive.DetailsBaseURL = strings.TrimRight(strings.TrimSpace(c.Archive.DetailsBaseURL), "/")
	if c.Archive.DetailsBaseURL == "" {
		c.Archive.DetailsBaseURL = defaultDetailsBaseURL
	}
	if c.Archive.TimeoutSeconds == 0 {
		c.Archive.TimeoutSeconds = defaultArchiveTimeoutSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	c.Workflow.StoreDomain = strings.ToLower(strings.TrimSpace(c.Workflow.StoreDomain))
	c.Workflow.StoreDomain = strings.TrimPrefix(c.Workflow.StoreDomain, "www.")
	if c.Workflow.StoreDomain == "" {
		c.Workflow.StoreDomain = defaultStoreDomain
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}
