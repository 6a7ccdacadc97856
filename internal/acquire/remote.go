package acquire

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"cutline/internal/services"
	"cutline/internal/source"
)

// RemoteAcquirer downloads a remote source into the media cache. Size,
// type, and filename are inferred from Content-Length, Content-Type, and
// Content-Disposition; the transfer itself is plain HTTP GET.
type RemoteAcquirer struct {
	Client   *http.Client
	CacheDir string
}

// Kind implements Acquirer.
func (a *RemoteAcquirer) Kind() source.Kind { return source.KindRemote }

// Acquire implements Acquirer for remote URLs.
func (a *RemoteAcquirer) Acquire(ctx context.Context, src *source.Data, update ProgressFunc) error {
	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimSpace(src.ResolvedURL)
	if url == "" {
		return services.Wrap(services.ErrValidation, "acquire", "remote", "url missing", nil)
	}

	// HEAD is best effort: size and filename inference only, never fatal.
	if head, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil); err == nil {
		if resp, err := client.Do(head); err == nil {
			inferFromHeaders(resp, url, update)
			resp.Body.Close()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "acquire", "remote", "build request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "acquire", "remote", "fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			marker = services.ErrNotFound
		}
		return services.Wrap(marker, "acquire", "remote",
			fmt.Sprintf("%s returned %d", url, resp.StatusCode), nil)
	}

	inferFromHeaders(resp, url, update)

	if err := os.MkdirAll(a.CacheDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "acquire", "remote", "ensure cache dir", err)
	}
	target := filepath.Join(a.CacheDir, src.ID+inferExtension(resp, url))
	file, err := os.Create(target)
	if err != nil {
		return services.Wrap(services.ErrTransient, "acquire", "remote", "create cache file", err)
	}
	defer file.Close()

	written, err := copyWithProgress(ctx, file, resp.Body, resp.ContentLength, update)
	if err != nil {
		os.Remove(target)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "acquire", "remote", "download", err)
	}

	update(func(d *source.Data) {
		d.FilePath = target
		d.SizeBytes = written
		d.Progress = 100
	})
	return nil
}

func inferFromHeaders(resp *http.Response, url string, update ProgressFunc) {
	var name string
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			name = params["filename"]
		}
	}
	if name == "" {
		if idx := strings.LastIndex(url, "/"); idx >= 0 && idx+1 < len(url) {
			name = url[idx+1:]
		}
	}
	size := resp.ContentLength
	update(func(d *source.Data) {
		if name != "" {
			d.SuggestedName = name
		}
		if size > 0 && d.SizeBytes == 0 {
			d.SizeBytes = size
		}
	})
}

func inferExtension(resp *http.Response, url string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if ext := filepath.Ext(params["filename"]); ext != "" {
				return ext
			}
		}
	}
	if ext := filepath.Ext(url); ext != "" && len(ext) <= 5 {
		return ext
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
				return exts[0]
			}
		}
	}
	return ""
}

func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, update ProgressFunc) (int64, error) {
	buf := make([]byte, 128*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			if total > 0 {
				percent := float64(written) / float64(total) * 100
				if percent > 100 {
					percent = 100
				}
				update(func(d *source.Data) { d.Progress = percent })
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}
