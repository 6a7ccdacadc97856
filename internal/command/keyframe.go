package command

import (
	"context"
	"fmt"
	"sort"

	"cutline/internal/services"
	"cutline/internal/timeline"
)

func validateKeyframe(cfg timeline.Config, kf timeline.Keyframe) error {
	if kf.Frame < 0 {
		return services.Wrap(services.ErrValidation, "command", "keyframe", "frame must not be negative", nil)
	}
	if kf.Visual == nil && kf.Audio == nil {
		return services.Wrap(services.ErrValidation, "command", "keyframe", "keyframe carries no properties", nil)
	}
	if kf.Visual != nil && !timeline.HasVisualProperties(cfg) {
		return services.Wrap(services.ErrValidation, "command", "keyframe",
			fmt.Sprintf("%s items have no visual properties", cfg.Kind()), nil)
	}
	if kf.Audio != nil && !timeline.HasAudioProperties(cfg) {
		return services.Wrap(services.ErrValidation, "command", "keyframe",
			fmt.Sprintf("%s items have no audio properties", cfg.Kind()), nil)
	}
	return nil
}

func sortKeyframes(kfs []timeline.Keyframe) {
	sort.Slice(kfs, func(i, j int) bool { return kfs[i].Frame < kfs[j].Frame })
}

func keyframeIndex(a *timeline.Animation, frame int64) int {
	if a == nil {
		return -1
	}
	for i, kf := range a.Keyframes {
		if kf.Frame == frame {
			return i
		}
	}
	return -1
}

// animationEdit is the shared shape of the keyframe commands: the animation
// before and after the edit, swapped whole on execute and undo.
type animationEdit struct {
	base
	itemID string
	before *timeline.Animation
	after  *timeline.Animation
}

func (c *animationEdit) Execute(ctx context.Context) error {
	return c.deps.Timeline.UpdateItemAnimation(c.itemID, c.after.Clone())
}

func (c *animationEdit) Undo(ctx context.Context) error {
	return c.deps.Timeline.UpdateItemAnimation(c.itemID, c.before.Clone())
}

func newAnimationEdit(deps Deps, description, itemID string, before, after *timeline.Animation) animationEdit {
	return animationEdit{
		base:   newBase(deps, description),
		itemID: itemID,
		before: before,
		after:  after,
	}
}

// CreateKeyframe adds a keyframe to a placement's animation.
type CreateKeyframe struct{ animationEdit }

func NewCreateKeyframe(deps Deps, timelineItemID string, kf timeline.Keyframe) (*CreateKeyframe, error) {
	item := deps.Timeline.GetItem(timelineItemID)
	if item == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "create keyframe",
			fmt.Sprintf("timeline item %s", timelineItemID), nil)
	}
	if err := validateKeyframe(item.Config, kf); err != nil {
		return nil, err
	}
	if keyframeIndex(item.Animation, kf.Frame) >= 0 {
		return nil, services.Wrap(services.ErrPrecondition, "command", "create keyframe",
			fmt.Sprintf("keyframe already exists at frame %d", kf.Frame), nil)
	}

	before := item.Animation.Clone()
	after := before.Clone()
	if after == nil {
		after = &timeline.Animation{Enabled: true}
	}
	after.Keyframes = append(after.Keyframes, kf)
	sortKeyframes(after.Keyframes)

	return &CreateKeyframe{newAnimationEdit(deps, "add keyframe", timelineItemID, before, after)}, nil
}

// UpdateKeyframe replaces the values of an existing keyframe.
type UpdateKeyframe struct {
	animationEdit
	unchanged bool
}

func NewUpdateKeyframe(deps Deps, timelineItemID string, kf timeline.Keyframe) (*UpdateKeyframe, error) {
	item := deps.Timeline.GetItem(timelineItemID)
	if item == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "update keyframe",
			fmt.Sprintf("timeline item %s", timelineItemID), nil)
	}
	if err := validateKeyframe(item.Config, kf); err != nil {
		return nil, err
	}
	idx := keyframeIndex(item.Animation, kf.Frame)
	if idx < 0 {
		return nil, services.Wrap(services.ErrNotFound, "command", "update keyframe",
			fmt.Sprintf("no keyframe at frame %d", kf.Frame), nil)
	}

	before := item.Animation.Clone()
	after := before.Clone()
	unchanged := keyframesEqual(after.Keyframes[idx], kf)
	after.Keyframes[idx] = kf

	return &UpdateKeyframe{
		animationEdit: newAnimationEdit(deps, "edit keyframe", timelineItemID, before, after),
		unchanged:     unchanged,
	}, nil
}

func (c *UpdateKeyframe) Noop() bool { return c.unchanged }

func (c *UpdateKeyframe) Execute(ctx context.Context) error {
	if c.unchanged {
		return nil
	}
	return c.animationEdit.Execute(ctx)
}

func (c *UpdateKeyframe) Undo(ctx context.Context) error {
	if c.unchanged {
		return nil
	}
	return c.animationEdit.Undo(ctx)
}

// DeleteKeyframe removes one keyframe.
type DeleteKeyframe struct{ animationEdit }

func NewDeleteKeyframe(deps Deps, timelineItemID string, frame int64) (*DeleteKeyframe, error) {
	item := deps.Timeline.GetItem(timelineItemID)
	if item == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "delete keyframe",
			fmt.Sprintf("timeline item %s", timelineItemID), nil)
	}
	idx := keyframeIndex(item.Animation, frame)
	if idx < 0 {
		return nil, services.Wrap(services.ErrNotFound, "command", "delete keyframe",
			fmt.Sprintf("no keyframe at frame %d", frame), nil)
	}

	before := item.Animation.Clone()
	after := before.Clone()
	after.Keyframes = append(after.Keyframes[:idx], after.Keyframes[idx+1:]...)

	return &DeleteKeyframe{newAnimationEdit(deps, "delete keyframe", timelineItemID, before, after)}, nil
}

// ClearKeyframes drops a placement's whole animation.
type ClearKeyframes struct{ animationEdit }

func NewClearKeyframes(deps Deps, timelineItemID string) (*ClearKeyframes, error) {
	item := deps.Timeline.GetItem(timelineItemID)
	if item == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "clear keyframes",
			fmt.Sprintf("timeline item %s", timelineItemID), nil)
	}
	return &ClearKeyframes{newAnimationEdit(deps, "clear keyframes", timelineItemID, item.Animation.Clone(), nil)}, nil
}

func (c *ClearKeyframes) Noop() bool {
	return c.before == nil || len(c.before.Keyframes) == 0
}
