package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ProjectDir    string `toml:"project_dir"`
	LogDir        string `toml:"log_dir"`
	MediaCacheDir string `toml:"media_cache_dir"`
	ThumbnailDir  string `toml:"thumbnail_dir"`
}

// Acquisition contains settings for the data-source acquisition runners.
type Acquisition struct {
	// RemoteConcurrency caps simultaneous downloads. Kept small to avoid
	// saturating the network with parallel transfers.
	RemoteConcurrency int `toml:"remote_concurrency"`
	// LocalConcurrency caps simultaneous local-file validations, which are
	// CPU-bound and fast.
	LocalConcurrency int `toml:"local_concurrency"`
	// MaxRetries is the retry budget for transient remote failures. Local
	// validation failures are never retried.
	MaxRetries       int `toml:"max_retries"`
	RetryBaseDelayMS int `toml:"retry_base_delay_ms"`
	RetryMaxDelayMS  int `toml:"retry_max_delay_ms"`
	// RemoteTimeout / LocalTimeout bound a single acquisition attempt, in
	// seconds. The retry budget is separate.
	RemoteTimeout     int      `toml:"remote_timeout"`
	LocalTimeout      int      `toml:"local_timeout"`
	MaxLocalFileMiB   int      `toml:"max_local_file_mib"`
	AllowedExtensions []string `toml:"allowed_extensions"`
	// StatsWindow is the ring-buffer size for per-runner processing-time
	// statistics.
	StatsWindow int `toml:"stats_window"`
}

// Project contains timeline defaults.
type Project struct {
	FrameRate int `toml:"frame_rate"`
	// Still images and text clips have no intrinsic duration; these are the
	// frame counts used when they are first placed.
	ImageDurationFrames int64 `toml:"image_duration_frames"`
	TextDurationFrames  int64 `toml:"text_duration_frames"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration for the editing core.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Acquisition Acquisition `toml:"acquisition"`
	Project     Project     `toml:"project"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cutline/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was actually found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cutline.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the core writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ProjectDir, c.Paths.LogDir, c.Paths.MediaCacheDir, c.Paths.ThumbnailDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the annotated sample config to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves ~ and relative segments in a user-supplied path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			return home, nil
		}
		if strings.HasPrefix(pathValue, "~/") {
			return filepath.Join(home, pathValue[2:]), nil
		}
	}
	return filepath.Abs(pathValue)
}
