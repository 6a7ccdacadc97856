// Package command implements the reversible edit units of the editor. Every
// command stores the minimal snapshot needed to reconstruct its effect, never
// the runtime objects themselves, so execute, undo, and redo all run the
// same rebuild-from-source path.
package command

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"cutline/internal/config"
	"cutline/internal/media"
	"cutline/internal/mediasync"
	"cutline/internal/render"
	"cutline/internal/timeline"
)

// Command is one reversible edit. Execute and Undo must be safe to call in
// alternation any number of times.
type Command interface {
	ID() string
	Description() string
	Execute(ctx context.Context) error
	Undo(ctx context.Context) error
}

// Noop is implemented by commands whose stored before/after values turn out
// to be indistinguishable. The history orchestrator skips recording them.
type Noop interface {
	Noop() bool
}

// Deps are the collaborators a command works against. Commands hold these
// narrow references instead of importing concrete stores, and always
// re-fetch current state through them rather than caching it across an
// asynchronous boundary.
type Deps struct {
	Logger       *slog.Logger
	Timeline     *timeline.Store
	Library      *media.Library
	Sync         *mediasync.Manager
	Engine       render.Engine
	ThumbnailDir string
	// Project supplies the frame rate and still-clip durations used to size
	// placements whose media duration is not yet known.
	Project config.Project
}

type base struct {
	id          string
	description string
	deps        Deps
}

func newBase(deps Deps, description string) base {
	return base{id: uuid.NewString(), description: description, deps: deps}
}

func (b *base) ID() string          { return b.id }
func (b *base) Description() string { return b.description }

// newPlacementID mints an ID for a timeline item a command will create.
// Generated at construction so redo reuses the same placement identity.
func newPlacementID() string { return uuid.NewString() }

// floatTolerance bounds the difference under which two edited values are
// considered the same edit. Pointer drag handlers emit sub-pixel noise.
const floatTolerance = 1e-6

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= floatTolerance
}

func transformsEqual(a, b timeline.Transform) bool {
	return approxEqual(a.X, b.X) &&
		approxEqual(a.Y, b.Y) &&
		approxEqual(a.ScaleX, b.ScaleX) &&
		approxEqual(a.ScaleY, b.ScaleY) &&
		approxEqual(a.Rotation, b.Rotation)
}

// configsEqual compares two configs of the same kind under floatTolerance.
// Different kinds are never equal.
func configsEqual(a, b timeline.Config) bool {
	switch av := a.(type) {
	case timeline.VideoConfig:
		bv, ok := b.(timeline.VideoConfig)
		return ok && transformsEqual(av.Transform, bv.Transform) &&
			approxEqual(av.Opacity, bv.Opacity) &&
			av.ZIndex == bv.ZIndex &&
			approxEqual(av.Volume, bv.Volume) &&
			av.Muted == bv.Muted
	case timeline.ImageConfig:
		bv, ok := b.(timeline.ImageConfig)
		return ok && transformsEqual(av.Transform, bv.Transform) &&
			approxEqual(av.Opacity, bv.Opacity) &&
			av.ZIndex == bv.ZIndex
	case timeline.AudioConfig:
		bv, ok := b.(timeline.AudioConfig)
		return ok && approxEqual(av.Volume, bv.Volume) && av.Muted == bv.Muted
	case timeline.TextConfig:
		bv, ok := b.(timeline.TextConfig)
		return ok && av.Text == bv.Text &&
			av.FontFamily == bv.FontFamily &&
			approxEqual(av.FontSize, bv.FontSize) &&
			av.Color == bv.Color &&
			transformsEqual(av.Transform, bv.Transform) &&
			approxEqual(av.Opacity, bv.Opacity) &&
			av.ZIndex == bv.ZIndex
	default:
		return false
	}
}

func keyframesEqual(a, b timeline.Keyframe) bool {
	if a.Frame != b.Frame {
		return false
	}
	switch {
	case a.Visual == nil && b.Visual != nil, a.Visual != nil && b.Visual == nil:
		return false
	case a.Visual != nil:
		av, bv := *a.Visual, *b.Visual
		if !approxEqual(av.X, bv.X) || !approxEqual(av.Y, bv.Y) ||
			!approxEqual(av.ScaleX, bv.ScaleX) || !approxEqual(av.ScaleY, bv.ScaleY) ||
			!approxEqual(av.Rotation, bv.Rotation) || !approxEqual(av.Opacity, bv.Opacity) {
			return false
		}
	}
	switch {
	case a.Audio == nil && b.Audio != nil, a.Audio != nil && b.Audio == nil:
		return false
	case a.Audio != nil:
		if !approxEqual(a.Audio.Volume, b.Audio.Volume) {
			return false
		}
	}
	return true
}
