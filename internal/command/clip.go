package command

import (
	"context"
	"fmt"

	"cutline/internal/config"
	"cutline/internal/media"
	"cutline/internal/services"
	"cutline/internal/timeline"
)

// AddClip places a media item on a track. When the media is not yet ready
// the placement starts loading with a provisional duration and finishes
// through a sync watcher.
type AddClip struct {
	base
	snapshot Snapshot
}

// provisionalSeconds sizes a video or audio placement before its real
// duration is known.
const provisionalSeconds = 5

// provisionalDuration returns the configured placement length for media whose
// duration is not yet known. Still images and text use their configured frame
// counts; everything else gets a few seconds at the project frame rate.
func provisionalDuration(project config.Project, mediaType media.Type) int64 {
	switch mediaType {
	case media.TypeImage:
		return project.ImageDurationFrames
	case media.TypeText:
		return project.TextDurationFrames
	default:
		return int64(project.FrameRate) * provisionalSeconds
	}
}

// NewAddClip builds the command. provisionalFrames sizes the placement until
// the real duration is known; pass 0 to use the configured defaults for the
// media type.
func NewAddClip(deps Deps, mediaItemID, trackID string, timelineStart, provisionalFrames int64) (*AddClip, error) {
	mediaItem := deps.Library.Get(mediaItemID)
	if mediaItem == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "add clip",
			fmt.Sprintf("media item %s", mediaItemID), nil)
	}
	if provisionalFrames <= 0 {
		provisionalFrames = provisionalDuration(deps.Project, mediaItem.Type)
	}
	if provisionalFrames <= 0 {
		return nil, services.Wrap(services.ErrValidation, "command", "add clip", "provisional duration must be positive", nil)
	}
	if mediaItem.DurationFrames > 0 {
		provisionalFrames = mediaItem.DurationFrames
	}
	timeRange := timeline.TimeRange{
		TimelineStart: timelineStart,
		TimelineEnd:   timelineStart + provisionalFrames,
		ClipStart:     0,
		ClipEnd:       provisionalFrames,
	}
	item := timeline.NewItem(mediaItemID, trackID, mediaItem.Type, timeRange, nil)
	snap := TakeSnapshot(item)
	snap.Provisional = mediaItem.DurationFrames <= 0
	cmd := &AddClip{
		base:     newBase(deps, fmt.Sprintf("add %s", mediaItem.Name)),
		snapshot: snap,
	}
	return cmd, nil
}

func (c *AddClip) Execute(ctx context.Context) error {
	return attach(c.deps, c.id, c.description, c.snapshot)
}

func (c *AddClip) Undo(ctx context.Context) error {
	c.deps.Sync.CleanupCommandMediaSync(c.id)
	detachItem(c.deps, c.snapshot.ID)
	return nil
}

// TimelineItemID returns the ID of the placement this command creates.
func (c *AddClip) TimelineItemID() string { return c.snapshot.ID }

// RemoveClip deletes a placement, remembering enough to rebuild it on undo.
type RemoveClip struct {
	base
	snapshot Snapshot
}

func NewRemoveClip(deps Deps, timelineItemID string) (*RemoveClip, error) {
	item := deps.Timeline.GetItem(timelineItemID)
	if item == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "remove clip",
			fmt.Sprintf("timeline item %s", timelineItemID), nil)
	}
	return &RemoveClip{
		base:     newBase(deps, "remove clip"),
		snapshot: TakeSnapshot(item),
	}, nil
}

func (c *RemoveClip) Execute(ctx context.Context) error {
	if c.deps.Timeline.GetItem(c.snapshot.ID) == nil {
		return services.Wrap(services.ErrNotFound, "command", "remove clip",
			fmt.Sprintf("timeline item %s already removed", c.snapshot.ID), nil)
	}
	detachItem(c.deps, c.snapshot.ID)
	return nil
}

func (c *RemoveClip) Undo(ctx context.Context) error {
	return attach(c.deps, c.id, c.description, c.snapshot)
}

// MoveClip repositions a placement, possibly across tracks.
type MoveClip struct {
	base
	itemID   string
	oldTrack string
	newTrack string
	oldRange timeline.TimeRange
	newRange timeline.TimeRange
}

func NewMoveClip(deps Deps, timelineItemID, newTrackID string, newRange timeline.TimeRange) (*MoveClip, error) {
	item := deps.Timeline.GetItem(timelineItemID)
	if item == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "move clip",
			fmt.Sprintf("timeline item %s", timelineItemID), nil)
	}
	if err := newRange.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "command", "move clip", "invalid target range", err)
	}
	return &MoveClip{
		base:     newBase(deps, "move clip"),
		itemID:   timelineItemID,
		oldTrack: item.TrackID,
		newTrack: newTrackID,
		oldRange: item.Range,
		newRange: newRange,
	}, nil
}

func (c *MoveClip) Noop() bool {
	return c.oldTrack == c.newTrack && c.oldRange == c.newRange
}

func (c *MoveClip) Execute(ctx context.Context) error {
	if c.Noop() {
		return nil
	}
	return c.deps.Timeline.UpdateItemPosition(c.itemID, c.newTrack, c.newRange)
}

func (c *MoveClip) Undo(ctx context.Context) error {
	if c.Noop() {
		return nil
	}
	return c.deps.Timeline.UpdateItemPosition(c.itemID, c.oldTrack, c.oldRange)
}

// ResizeClip changes a placement's time range on its current track.
type ResizeClip struct {
	base
	itemID   string
	trackID  string
	oldRange timeline.TimeRange
	newRange timeline.TimeRange
}

func NewResizeClip(deps Deps, timelineItemID string, newRange timeline.TimeRange) (*ResizeClip, error) {
	item := deps.Timeline.GetItem(timelineItemID)
	if item == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "resize clip",
			fmt.Sprintf("timeline item %s", timelineItemID), nil)
	}
	if err := newRange.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "command", "resize clip", "invalid target range", err)
	}
	return &ResizeClip{
		base:     newBase(deps, "resize clip"),
		itemID:   timelineItemID,
		trackID:  item.TrackID,
		oldRange: item.Range,
		newRange: newRange,
	}, nil
}

func (c *ResizeClip) Noop() bool { return c.oldRange == c.newRange }

func (c *ResizeClip) Execute(ctx context.Context) error {
	if c.Noop() {
		return nil
	}
	return c.deps.Timeline.UpdateItemPosition(c.itemID, c.trackID, c.newRange)
}

func (c *ResizeClip) Undo(ctx context.Context) error {
	if c.Noop() {
		return nil
	}
	return c.deps.Timeline.UpdateItemPosition(c.itemID, c.trackID, c.oldRange)
}

// UpdateTransform swaps a placement's config for an edited one.
type UpdateTransform struct {
	base
	itemID    string
	oldConfig timeline.Config
	newConfig timeline.Config
}

func NewUpdateTransform(deps Deps, timelineItemID string, newConfig timeline.Config) (*UpdateTransform, error) {
	item := deps.Timeline.GetItem(timelineItemID)
	if item == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "update transform",
			fmt.Sprintf("timeline item %s", timelineItemID), nil)
	}
	if newConfig == nil || newConfig.Kind() != item.Config.Kind() {
		return nil, services.Wrap(services.ErrValidation, "command", "update transform",
			fmt.Sprintf("config kind mismatch for item %s", timelineItemID), nil)
	}
	return &UpdateTransform{
		base:      newBase(deps, "edit clip settings"),
		itemID:    timelineItemID,
		oldConfig: item.Config.Clone(),
		newConfig: newConfig.Clone(),
	}, nil
}

func (c *UpdateTransform) Noop() bool { return configsEqual(c.oldConfig, c.newConfig) }

func (c *UpdateTransform) Execute(ctx context.Context) error {
	if c.Noop() {
		return nil
	}
	return c.deps.Timeline.UpdateItemTransform(c.itemID, c.newConfig)
}

func (c *UpdateTransform) Undo(ctx context.Context) error {
	if c.Noop() {
		return nil
	}
	return c.deps.Timeline.UpdateItemTransform(c.itemID, c.oldConfig)
}

// SplitClip cuts a placement at a timeline frame into two placements that
// together cover the original range.
type SplitClip struct {
	base
	original Snapshot
	left     Snapshot
	right    Snapshot
}

func NewSplitClip(deps Deps, timelineItemID string, atFrame int64) (*SplitClip, error) {
	item := deps.Timeline.GetItem(timelineItemID)
	if item == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "split clip",
			fmt.Sprintf("timeline item %s", timelineItemID), nil)
	}
	if atFrame <= item.Range.TimelineStart || atFrame >= item.Range.TimelineEnd {
		return nil, services.Wrap(services.ErrValidation, "command", "split clip",
			fmt.Sprintf("frame %d is outside [%d, %d]", atFrame, item.Range.TimelineStart, item.Range.TimelineEnd), nil)
	}

	original := TakeSnapshot(item)
	offset := atFrame - item.Range.TimelineStart

	left := TakeSnapshot(item.Clone())
	left.ID = newPlacementID()
	left.Range.TimelineEnd = atFrame
	left.Range.ClipEnd = left.Range.ClipStart + offset

	right := TakeSnapshot(item.Clone())
	right.ID = newPlacementID()
	right.Range.TimelineStart = atFrame
	right.Range.ClipStart = original.Range.ClipStart + offset

	return &SplitClip{
		base:     newBase(deps, "split clip"),
		original: original,
		left:     left,
		right:    right,
	}, nil
}

func (c *SplitClip) Execute(ctx context.Context) error {
	if c.deps.Timeline.GetItem(c.original.ID) == nil {
		return services.Wrap(services.ErrNotFound, "command", "split clip",
			fmt.Sprintf("timeline item %s no longer exists", c.original.ID), nil)
	}
	detachItem(c.deps, c.original.ID)
	if err := attach(c.deps, c.id, c.description, c.left); err != nil {
		// Put the original back before surfacing the failure.
		if restoreErr := attach(c.deps, c.id, c.description, c.original); restoreErr != nil {
			return fmt.Errorf("split failed and original could not be restored: %w", restoreErr)
		}
		return err
	}
	if err := attach(c.deps, c.id, c.description, c.right); err != nil {
		detachItem(c.deps, c.left.ID)
		if restoreErr := attach(c.deps, c.id, c.description, c.original); restoreErr != nil {
			return fmt.Errorf("split failed and original could not be restored: %w", restoreErr)
		}
		return err
	}
	return nil
}

func (c *SplitClip) Undo(ctx context.Context) error {
	detachItem(c.deps, c.left.ID)
	detachItem(c.deps, c.right.ID)
	c.deps.Sync.CleanupCommandMediaSync(c.id)
	return attach(c.deps, c.id, c.description, c.original)
}

// DuplicateClip copies a placement onto the same track, immediately after
// the original. The copy rebuilds its own proxy; clip handles are cloned,
// never shared.
type DuplicateClip struct {
	base
	copy Snapshot
}

func NewDuplicateClip(deps Deps, timelineItemID string) (*DuplicateClip, error) {
	item := deps.Timeline.GetItem(timelineItemID)
	if item == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "duplicate clip",
			fmt.Sprintf("timeline item %s", timelineItemID), nil)
	}
	snap := TakeSnapshot(item)
	snap.ID = newPlacementID()
	duration := snap.Range.Duration()
	snap.Range.TimelineStart = item.Range.TimelineEnd
	snap.Range.TimelineEnd = snap.Range.TimelineStart + duration
	return &DuplicateClip{
		base: newBase(deps, "duplicate clip"),
		copy: snap,
	}, nil
}

func (c *DuplicateClip) Execute(ctx context.Context) error {
	return attach(c.deps, c.id, c.description, c.copy)
}

func (c *DuplicateClip) Undo(ctx context.Context) error {
	c.deps.Sync.CleanupCommandMediaSync(c.id)
	detachItem(c.deps, c.copy.ID)
	return nil
}

// TimelineItemID returns the ID of the copied placement.
func (c *DuplicateClip) TimelineItemID() string { return c.copy.ID }
