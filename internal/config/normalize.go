package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAcquisition()
	c.normalizeProject()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	expand := func(name string, value *string) error {
		expanded, err := expandPath(*value)
		if err != nil {
			return fmt.Errorf("expand %s: %w", name, err)
		}
		*value = expanded
		return nil
	}
	if err := expand("project_dir", &c.Paths.ProjectDir); err != nil {
		return err
	}
	if err := expand("log_dir", &c.Paths.LogDir); err != nil {
		return err
	}
	if err := expand("media_cache_dir", &c.Paths.MediaCacheDir); err != nil {
		return err
	}
	if err := expand("thumbnail_dir", &c.Paths.ThumbnailDir); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeAcquisition() {
	a := &c.Acquisition
	if a.RemoteConcurrency <= 0 {
		a.RemoteConcurrency = defaultRemoteConcurrency
	}
	if a.LocalConcurrency <= 0 {
		a.LocalConcurrency = defaultLocalConcurrency
	}
	if a.MaxRetries <= 0 {
		a.MaxRetries = defaultMaxRetries
	}
	if a.RetryBaseDelayMS <= 0 {
		a.RetryBaseDelayMS = defaultRetryBaseDelayMS
	}
	if a.RetryMaxDelayMS <= 0 {
		a.RetryMaxDelayMS = defaultRetryMaxDelayMS
	}
	if a.RemoteTimeout <= 0 {
		a.RemoteTimeout = defaultRemoteTimeout
	}
	if a.LocalTimeout <= 0 {
		a.LocalTimeout = defaultLocalTimeout
	}
	if a.MaxLocalFileMiB <= 0 {
		a.MaxLocalFileMiB = defaultMaxLocalFileMiB
	}
	if a.StatsWindow <= 0 {
		a.StatsWindow = defaultStatsWindow
	}
	if len(a.AllowedExtensions) == 0 {
		a.AllowedExtensions = append([]string(nil), defaultAllowedExtensions...)
	}
	normalized := a.AllowedExtensions[:0]
	for _, ext := range a.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	a.AllowedExtensions = normalized
}

func (c *Config) normalizeProject() {
	if c.Project.FrameRate <= 0 {
		c.Project.FrameRate = defaultFrameRate
	}
	if c.Project.ImageDurationFrames <= 0 {
		c.Project.ImageDurationFrames = defaultImageDurationFrames
	}
	if c.Project.TextDurationFrames <= 0 {
		c.Project.TextDurationFrames = defaultTextDurationFrames
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
}
