package config

const (
	defaultProjectDir          = "~/.local/share/cutline/projects"
	defaultLogDir              = "~/.local/share/cutline/logs"
	defaultMediaCacheDir       = "~/.local/share/cutline/cache/media"
	defaultThumbnailDir        = "~/.local/share/cutline/cache/thumbnails"
	defaultRemoteConcurrency   = 3
	defaultLocalConcurrency    = 10
	defaultMaxRetries          = 3
	defaultRetryBaseDelayMS    = 1000
	defaultRetryMaxDelayMS     = 30000
	defaultRemoteTimeout       = 120
	defaultLocalTimeout        = 30
	defaultMaxLocalFileMiB     = 4096
	defaultStatsWindow         = 32
	defaultFrameRate           = 30
	defaultImageDurationFrames = 90
	defaultTextDurationFrames  = 90
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

var defaultAllowedExtensions = []string{
	".mp4", ".mov", ".mkv", ".webm", ".avi",
	".mp3", ".wav", ".flac", ".aac", ".ogg",
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectDir:    defaultProjectDir,
			LogDir:        defaultLogDir,
			MediaCacheDir: defaultMediaCacheDir,
			ThumbnailDir:  defaultThumbnailDir,
		},
		Acquisition: Acquisition{
			RemoteConcurrency: defaultRemoteConcurrency,
			LocalConcurrency:  defaultLocalConcurrency,
			MaxRetries:        defaultMaxRetries,
			RetryBaseDelayMS:  defaultRetryBaseDelayMS,
			RetryMaxDelayMS:   defaultRetryMaxDelayMS,
			RemoteTimeout:     defaultRemoteTimeout,
			LocalTimeout:      defaultLocalTimeout,
			MaxLocalFileMiB:   defaultMaxLocalFileMiB,
			AllowedExtensions: append([]string(nil), defaultAllowedExtensions...),
			StatsWindow:       defaultStatsWindow,
		},
		Project: Project{
			FrameRate:           defaultFrameRate,
			ImageDurationFrames: defaultImageDurationFrames,
			TextDurationFrames:  defaultTextDurationFrames,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
