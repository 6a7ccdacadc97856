package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration consistency after normalization.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAcquisition(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ProjectDir) == "" {
		return fmt.Errorf("paths.project_dir must be set")
	}
	if strings.TrimSpace(c.Paths.MediaCacheDir) == "" {
		return fmt.Errorf("paths.media_cache_dir must be set")
	}
	return nil
}

func (c *Config) validateAcquisition() error {
	a := c.Acquisition
	if a.RetryMaxDelayMS < a.RetryBaseDelayMS {
		return fmt.Errorf("acquisition.retry_max_delay_ms (%d) must be >= retry_base_delay_ms (%d)",
			a.RetryMaxDelayMS, a.RetryBaseDelayMS)
	}
	for _, ext := range a.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("acquisition.allowed_extensions entry %q is not a file extension", ext)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
