// Package render defines the boundary to the compositing engine. The engine
// itself is an external collaborator; this package owns only the proxy
// objects handed across that boundary and their construction from decoded
// media. Proxies are expensive to build, never persisted, and never shared
// between two timeline items.
package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"cutline/internal/media"
	"cutline/internal/services"
)

// Engine is the rendering/compositing collaborator. Both calls report
// whether the engine accepted the mutation.
type Engine interface {
	AddRenderObject(proxy *Proxy) bool
	RemoveRenderObject(proxy *Proxy) bool
}

// FrameRange is the portion of source material a proxy covers, in frames.
type FrameRange struct {
	ClipStart int64
	ClipEnd   int64
}

// Proxy binds a cloned clip handle to a timeline placement for the engine to
// composite.
type Proxy struct {
	ID             string
	MediaItemID    string
	TimelineItemID string
	Kind           media.Type
	Clip           media.ClipHandle
	Range          FrameRange
}

// NewProxy rebuilds a render proxy from a ready media item. The clip handle
// is cloned so the proxy owns its handle exclusively.
func NewProxy(item *media.Item, timelineItemID string, frameRange FrameRange) (*Proxy, error) {
	if item == nil {
		return nil, services.Wrap(services.ErrPrecondition, "render", "new proxy", "media item is nil", nil)
	}
	if item.Status != media.StatusReady || item.Decoded == nil || item.Decoded.Clip == nil {
		return nil, services.Wrap(services.ErrPrecondition, "render", "new proxy",
			fmt.Sprintf("media item %s is not ready", item.ID), nil)
	}
	return &Proxy{
		ID:             uuid.NewString(),
		MediaItemID:    item.ID,
		TimelineItemID: timelineItemID,
		Kind:           item.Type,
		Clip:           item.Decoded.Clip.Clone(),
		Range:          frameRange,
	}, nil
}

// Release frees the proxy's clip handle. Safe on nil.
func (p *Proxy) Release() {
	if p == nil || p.Clip == nil {
		return
	}
	p.Clip.Release()
	p.Clip = nil
}

// DeriveThumbnail produces a thumbnail file for a ready media item inside
// thumbnailDir and returns its path. Items without a poster frame (audio,
// text) yield an empty path and no error.
func DeriveThumbnail(thumbnailDir string, item *media.Item, timelineItemID string) (string, error) {
	if item == nil || item.Decoded == nil || item.Decoded.PosterFramePath == "" {
		return "", nil
	}
	if thumbnailDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(thumbnailDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure thumbnail dir: %w", err)
	}
	src, err := os.ReadFile(item.Decoded.PosterFramePath)
	if err != nil {
		return "", fmt.Errorf("read poster frame: %w", err)
	}
	target := filepath.Join(thumbnailDir, timelineItemID+filepath.Ext(item.Decoded.PosterFramePath))
	if err := os.WriteFile(target, src, 0o644); err != nil {
		return "", fmt.Errorf("write thumbnail: %w", err)
	}
	return target, nil
}
