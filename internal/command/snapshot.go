package command

import (
	"cutline/internal/media"
	"cutline/internal/timeline"
)

// snapshotVersion tracks the snapshot shape so persisted histories can be
// migrated if the fields change.
const snapshotVersion = 1

// Snapshot is the rebuildable description of one timeline placement: the
// persistent fields only, never the proxy or subscription. Rebuilding from a
// snapshot always produces an item with the same ID, which keeps undo and
// redo referring to the same placement.
type Snapshot struct {
	Version     int
	ID          string
	MediaItemID string
	TrackID     string
	MediaType   media.Type
	Range       timeline.TimeRange
	Config      timeline.Config
	Animation   *timeline.Animation

	// Provisional marks a range sized before the media duration was known.
	// Only a provisional range may be stretched to the real duration on
	// completion; a trimmed range is kept exactly as snapshotted.
	Provisional bool
}

// TakeSnapshot clones the persistent fields of an item.
func TakeSnapshot(item *timeline.Item) Snapshot {
	snap := Snapshot{
		Version:     snapshotVersion,
		ID:          item.ID,
		MediaItemID: item.MediaItemID,
		TrackID:     item.TrackID,
		MediaType:   item.MediaType,
		Range:       item.Range,
		Animation:   item.Animation.Clone(),
	}
	if item.Config != nil {
		snap.Config = item.Config.Clone()
	}
	return snap
}

// materialize rebuilds a loading item from the snapshot.
func (s Snapshot) materialize() *timeline.Item {
	item := timeline.NewItem(s.MediaItemID, s.TrackID, s.MediaType, s.Range, s.Config)
	item.ID = s.ID
	item.Animation = s.Animation.Clone()
	return item
}
