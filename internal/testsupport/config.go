package testsupport

import (
	"path/filepath"
	"testing"

	"cutline/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectDir = filepath.Join(base, "project")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.MediaCacheDir = filepath.Join(base, "cache")
	cfg.Paths.ThumbnailDir = filepath.Join(base, "thumbnails")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAllowedExtensions overrides the local-file allow list.
func WithAllowedExtensions(exts ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Acquisition.AllowedExtensions = exts
	}
}

// WithMaxRetries overrides the acquisition retry budget.
func WithMaxRetries(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Acquisition.MaxRetries = n
	}
}
