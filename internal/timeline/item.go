package timeline

import (
	"fmt"

	"github.com/google/uuid"

	"cutline/internal/media"
	"cutline/internal/render"
)

// ItemStatus is the lifecycle of a timeline placement.
type ItemStatus string

const (
	ItemStatusLoading ItemStatus = "loading"
	ItemStatusReady   ItemStatus = "ready"
	ItemStatusError   ItemStatus = "error"
)

// TimeRange positions a clip, in frame units. TimelineStart/End place the
// clip on the timeline; ClipStart/End select the source material.
type TimeRange struct {
	TimelineStart int64 `json:"timelineStart"`
	TimelineEnd   int64 `json:"timelineEnd"`
	ClipStart     int64 `json:"clipStart"`
	ClipEnd       int64 `json:"clipEnd"`
}

// Duration returns the on-timeline length in frames.
func (r TimeRange) Duration() int64 {
	return r.TimelineEnd - r.TimelineStart
}

// Validate rejects inverted or negative ranges.
func (r TimeRange) Validate() error {
	if r.TimelineStart < 0 || r.ClipStart < 0 {
		return fmt.Errorf("time range starts before frame 0: %+v", r)
	}
	if r.TimelineEnd <= r.TimelineStart {
		return fmt.Errorf("timeline range is empty or inverted: %+v", r)
	}
	if r.ClipEnd <= r.ClipStart {
		return fmt.Errorf("clip range is empty or inverted: %+v", r)
	}
	return nil
}

// Keyframe pins animation values at a frame. Properties are split by
// capability: visual values apply to configs with visual properties, audio
// values to configs with audio properties.
type Keyframe struct {
	Frame  int64        `json:"frame"`
	Visual *VisualProps `json:"visual,omitempty"`
	Audio  *AudioProps  `json:"audio,omitempty"`
}

// VisualProps are the animatable visual values.
type VisualProps struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
}

// AudioProps are the animatable audio values.
type AudioProps struct {
	Volume float64 `json:"volume"`
}

// Animation is an item's keyframe set.
type Animation struct {
	Keyframes []Keyframe `json:"keyframes"`
	Enabled   bool       `json:"isEnabled"`
}

// Clone deep-copies the animation.
func (a *Animation) Clone() *Animation {
	if a == nil {
		return nil
	}
	cp := &Animation{Enabled: a.Enabled, Keyframes: make([]Keyframe, len(a.Keyframes))}
	for i, kf := range a.Keyframes {
		copied := Keyframe{Frame: kf.Frame}
		if kf.Visual != nil {
			v := *kf.Visual
			copied.Visual = &v
		}
		if kf.Audio != nil {
			a := *kf.Audio
			copied.Audio = &a
		}
		cp.Keyframes[i] = copied
	}
	return cp
}

// Runtime is the rebuilt, never-persisted state of a placement.
type Runtime struct {
	Proxy           *render.Proxy
	ThumbnailPath   string
	SubscriptionKey string
}

// Item is a placement of a media item on a track.
type Item struct {
	ID          string
	MediaItemID string
	TrackID     string
	MediaType   media.Type
	Range       TimeRange
	Config      Config
	Animation   *Animation
	Status      ItemStatus
	Runtime     Runtime
}

// NewItem builds a loading placement with a fresh ID.
func NewItem(mediaItemID, trackID string, mediaType media.Type, timeRange TimeRange, cfg Config) *Item {
	if cfg == nil {
		cfg = DefaultConfig(mediaType)
	}
	return &Item{
		ID:          uuid.NewString(),
		MediaItemID: mediaItemID,
		TrackID:     trackID,
		MediaType:   mediaType,
		Range:       timeRange,
		Config:      cfg,
		Status:      ItemStatusLoading,
	}
}

// Clone deep-copies the item's data fields. The runtime proxy pointer is
// shared: it references the one engine-owned object, which is exactly what
// callers need to hand back to the engine on teardown.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	if i.Config != nil {
		cp.Config = i.Config.Clone()
	}
	cp.Animation = i.Animation.Clone()
	return &cp
}

// TrackKind partitions tracks by the media they accept.
type TrackKind string

const (
	TrackKindVideo TrackKind = "video"
	TrackKindAudio TrackKind = "audio"
	TrackKindText  TrackKind = "text"
)

// Track is a horizontal lane of the timeline.
type Track struct {
	ID      string
	Name    string
	Kind    TrackKind
	Visible bool
	Muted   bool
}

// NewTrack builds a visible, unmuted track.
func NewTrack(name string, kind TrackKind) *Track {
	return &Track{
		ID:      uuid.NewString(),
		Name:    name,
		Kind:    kind,
		Visible: true,
	}
}

// Clone returns a copy.
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
