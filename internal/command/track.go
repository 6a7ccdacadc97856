package command

import (
	"context"
	"fmt"

	"cutline/internal/services"
	"cutline/internal/timeline"
)

// AddTrack appends a new empty track.
type AddTrack struct {
	base
	track *timeline.Track
}

func NewAddTrack(deps Deps, name string, kind timeline.TrackKind) *AddTrack {
	return &AddTrack{
		base:  newBase(deps, fmt.Sprintf("add %s track", kind)),
		track: timeline.NewTrack(name, kind),
	}
}

func (c *AddTrack) Execute(ctx context.Context) error {
	return c.deps.Timeline.AddTrack(c.track.Clone())
}

func (c *AddTrack) Undo(ctx context.Context) error {
	return c.deps.Timeline.RemoveTrack(c.track.ID)
}

// TrackID returns the ID of the track this command creates.
func (c *AddTrack) TrackID() string { return c.track.ID }

// RemoveTrack deletes an empty track. The store refuses to remove a track
// that still carries items, so the command fails cleanly instead of
// stranding placements.
type RemoveTrack struct {
	base
	track *timeline.Track
}

func NewRemoveTrack(deps Deps, trackID string) (*RemoveTrack, error) {
	track := deps.Timeline.GetTrack(trackID)
	if track == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "remove track",
			fmt.Sprintf("track %s", trackID), nil)
	}
	return &RemoveTrack{
		base:  newBase(deps, fmt.Sprintf("remove track %s", track.Name)),
		track: track.Clone(),
	}, nil
}

func (c *RemoveTrack) Execute(ctx context.Context) error {
	return c.deps.Timeline.RemoveTrack(c.track.ID)
}

func (c *RemoveTrack) Undo(ctx context.Context) error {
	return c.deps.Timeline.AddTrack(c.track.Clone())
}

// RenameTrack changes a track's display name.
type RenameTrack struct {
	base
	trackID string
	oldName string
	newName string
}

func NewRenameTrack(deps Deps, trackID, newName string) (*RenameTrack, error) {
	track := deps.Timeline.GetTrack(trackID)
	if track == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "rename track",
			fmt.Sprintf("track %s", trackID), nil)
	}
	return &RenameTrack{
		base:    newBase(deps, "rename track"),
		trackID: trackID,
		oldName: track.Name,
		newName: newName,
	}, nil
}

func (c *RenameTrack) Noop() bool { return c.oldName == c.newName }

func (c *RenameTrack) Execute(ctx context.Context) error {
	if c.Noop() {
		return nil
	}
	return c.deps.Timeline.UpdateTrack(c.trackID, func(t *timeline.Track) { t.Name = c.newName })
}

func (c *RenameTrack) Undo(ctx context.Context) error {
	if c.Noop() {
		return nil
	}
	return c.deps.Timeline.UpdateTrack(c.trackID, func(t *timeline.Track) { t.Name = c.oldName })
}

// ToggleTrackVisibility flips whether a track composites.
type ToggleTrackVisibility struct {
	base
	trackID string
}

func NewToggleTrackVisibility(deps Deps, trackID string) (*ToggleTrackVisibility, error) {
	if deps.Timeline.GetTrack(trackID) == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "toggle visibility",
			fmt.Sprintf("track %s", trackID), nil)
	}
	return &ToggleTrackVisibility{
		base:    newBase(deps, "toggle track visibility"),
		trackID: trackID,
	}, nil
}

func (c *ToggleTrackVisibility) Execute(ctx context.Context) error {
	return c.deps.Timeline.UpdateTrack(c.trackID, func(t *timeline.Track) { t.Visible = !t.Visible })
}

// Undo flips the toggle back; a toggle is its own inverse.
func (c *ToggleTrackVisibility) Undo(ctx context.Context) error {
	return c.Execute(ctx)
}

// ToggleTrackMute flips whether a track is audible.
type ToggleTrackMute struct {
	base
	trackID string
}

func NewToggleTrackMute(deps Deps, trackID string) (*ToggleTrackMute, error) {
	if deps.Timeline.GetTrack(trackID) == nil {
		return nil, services.Wrap(services.ErrNotFound, "command", "toggle mute",
			fmt.Sprintf("track %s", trackID), nil)
	}
	return &ToggleTrackMute{
		base:    newBase(deps, "toggle track mute"),
		trackID: trackID,
	}, nil
}

func (c *ToggleTrackMute) Execute(ctx context.Context) error {
	return c.deps.Timeline.UpdateTrack(c.trackID, func(t *timeline.Track) { t.Muted = !t.Muted })
}

func (c *ToggleTrackMute) Undo(ctx context.Context) error {
	return c.Execute(ctx)
}
