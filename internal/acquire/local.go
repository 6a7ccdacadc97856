package acquire

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"cutline/internal/services"
	"cutline/internal/source"
)

// LocalAcquirer validates a locally selected file. Validation failures are
// never retryable: an unsupported type or an oversized file cannot succeed
// on a second attempt.
type LocalAcquirer struct {
	AllowedExtensions []string
	MaxBytes          int64
}

// Kind implements Acquirer.
func (a *LocalAcquirer) Kind() source.Kind { return source.KindLocal }

// Acquire implements Acquirer for local files.
func (a *LocalAcquirer) Acquire(ctx context.Context, src *source.Data, update ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(src.FilePath) == "" {
		return services.Wrap(services.ErrValidation, "acquire", "local", "file path missing", nil)
	}
	if err := validateFilename(filepath.Base(src.FilePath)); err != nil {
		return err
	}
	if err := a.validateExtension(src.FilePath); err != nil {
		return err
	}

	info, err := os.Stat(src.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrNotFound, "acquire", "local",
				fmt.Sprintf("file %s does not exist", src.FilePath), nil)
		}
		return services.Wrap(services.ErrTransient, "acquire", "local", "stat file", err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, "acquire", "local",
			fmt.Sprintf("%s is a directory", src.FilePath), nil)
	}
	if a.MaxBytes > 0 && info.Size() > a.MaxBytes {
		return services.Wrap(services.ErrValidation, "acquire", "local",
			fmt.Sprintf("file is %d bytes, limit %d", info.Size(), a.MaxBytes), nil)
	}

	update(func(d *source.Data) {
		d.SizeBytes = info.Size()
		d.SuggestedName = filepath.Base(src.FilePath)
		d.Progress = 100
	})
	return nil
}

func (a *LocalAcquirer) validateExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return services.Wrap(services.ErrValidation, "acquire", "local", "file has no extension", nil)
	}
	for _, allowed := range a.AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return services.Wrap(services.ErrValidation, "acquire", "local",
		fmt.Sprintf("unsupported file type %s", ext), nil)
}

func validateFilename(name string) error {
	if name == "" || name == "." || name == string(filepath.Separator) {
		return services.Wrap(services.ErrValidation, "acquire", "local", "invalid filename", nil)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return services.Wrap(services.ErrValidation, "acquire", "local",
				fmt.Sprintf("filename %q contains control characters", name), nil)
		}
	}
	return nil
}
