package timeline

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"cutline/internal/logging"
	"cutline/internal/render"
	"cutline/internal/services"
)

// Store is the registry of tracks and timeline items. All mutation goes
// through its methods; Get* calls return isolated copies.
type Store struct {
	logger *slog.Logger

	mu         sync.Mutex
	tracks     []*Track
	items      map[string]*Item
	itemOrder  []string
	trackIndex map[string]*Track
}

// NewStore constructs an empty timeline store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		logger:     logging.NewComponentLogger(logger, "timeline-store"),
		items:      make(map[string]*Item),
		trackIndex: make(map[string]*Track),
	}
}

// AddTrack appends a track.
func (s *Store) AddTrack(track *Track) error {
	if track == nil || track.ID == "" {
		return services.Wrap(services.ErrValidation, "timeline-store", "add track", "track missing id", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.trackIndex[track.ID]; exists {
		return services.Wrap(services.ErrValidation, "timeline-store", "add track", fmt.Sprintf("duplicate track %s", track.ID), nil)
	}
	s.tracks = append(s.tracks, track)
	s.trackIndex[track.ID] = track
	return nil
}

// RemoveTrack deletes an empty track. Tracks carrying items refuse removal
// so item teardown stays with the commands that own it.
func (s *Store) RemoveTrack(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trackIndex[id]; !ok {
		return services.Wrap(services.ErrNotFound, "timeline-store", "remove track", fmt.Sprintf("track %s", id), nil)
	}
	for _, item := range s.items {
		if item.TrackID == id {
			return services.Wrap(services.ErrPrecondition, "timeline-store", "remove track",
				fmt.Sprintf("track %s still has items", id), nil)
		}
	}
	delete(s.trackIndex, id)
	for i, track := range s.tracks {
		if track.ID == id {
			s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
			break
		}
	}
	return nil
}

// GetTrack returns a copy of the track, or nil.
func (s *Store) GetTrack(id string) *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackIndex[id].Clone()
}

// Tracks returns copies of all tracks in order.
func (s *Store) Tracks() []*Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Track, len(s.tracks))
	for i, track := range s.tracks {
		out[i] = track.Clone()
	}
	return out
}

// UpdateTrack applies a mutation to a track's name or flags.
func (s *Store) UpdateTrack(id string, mutate func(*Track)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	track, ok := s.trackIndex[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "timeline-store", "update track", fmt.Sprintf("track %s", id), nil)
	}
	mutate(track)
	return nil
}

// AddItem registers a placement. Ready items must carry a proxy, loading
// items must not.
func (s *Store) AddItem(item *Item) error {
	if item == nil || item.ID == "" {
		return services.Wrap(services.ErrValidation, "timeline-store", "add item", "item missing id", nil)
	}
	if err := item.Range.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "timeline-store", "add item", err.Error(), nil)
	}
	if err := checkStatusInvariant(item); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return services.Wrap(services.ErrValidation, "timeline-store", "add item", fmt.Sprintf("duplicate item %s", item.ID), nil)
	}
	if _, ok := s.trackIndex[item.TrackID]; !ok {
		return services.Wrap(services.ErrNotFound, "timeline-store", "add item", fmt.Sprintf("track %s", item.TrackID), nil)
	}
	s.items[item.ID] = item
	s.itemOrder = append(s.itemOrder, item.ID)
	return nil
}

// RemoveItem deletes a placement and returns it so the caller can tear down
// its runtime (proxy, subscription). Returns nil when absent.
func (s *Store) RemoveItem(id string) *Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil
	}
	delete(s.items, id)
	for i, existing := range s.itemOrder {
		if existing == id {
			s.itemOrder = append(s.itemOrder[:i], s.itemOrder[i+1:]...)
			break
		}
	}
	return item
}

// GetItem returns a copy of the placement, or nil.
func (s *Store) GetItem(id string) *Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id].Clone()
}

// Items returns copies of all placements in insertion order.
func (s *Store) Items() []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Item, 0, len(s.itemOrder))
	for _, id := range s.itemOrder {
		out = append(out, s.items[id].Clone())
	}
	return out
}

// ItemsOnTrack returns copies of a track's placements sorted by start frame.
func (s *Store) ItemsOnTrack(trackID string) []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Item
	for _, id := range s.itemOrder {
		if item := s.items[id]; item.TrackID == trackID {
			out = append(out, item.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Range.TimelineStart < out[j].Range.TimelineStart
	})
	return out
}

// UpdateItemTransform replaces the item's config. The config kind must match
// the item's media type.
func (s *Store) UpdateItemTransform(id string, cfg Config) error {
	if cfg == nil {
		return services.Wrap(services.ErrValidation, "timeline-store", "update transform", "config is nil", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "timeline-store", "update transform", fmt.Sprintf("item %s", id), nil)
	}
	if cfg.Kind() != item.MediaType {
		return services.Wrap(services.ErrValidation, "timeline-store", "update transform",
			fmt.Sprintf("config kind %s does not match item type %s", cfg.Kind(), item.MediaType), nil)
	}
	item.Config = cfg.Clone()
	return nil
}

// UpdateItemPosition moves an item to a track and time range.
func (s *Store) UpdateItemPosition(id, trackID string, timeRange TimeRange) error {
	if err := timeRange.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "timeline-store", "update position", err.Error(), nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "timeline-store", "update position", fmt.Sprintf("item %s", id), nil)
	}
	if _, ok := s.trackIndex[trackID]; !ok {
		return services.Wrap(services.ErrNotFound, "timeline-store", "update position", fmt.Sprintf("track %s", trackID), nil)
	}
	item.TrackID = trackID
	item.Range = timeRange
	if item.Runtime.Proxy != nil {
		item.Runtime.Proxy.Range = proxyRange(timeRange)
	}
	return nil
}

// UpdateItemAnimation replaces the item's keyframe set.
func (s *Store) UpdateItemAnimation(id string, animation *Animation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "timeline-store", "update animation", fmt.Sprintf("item %s", id), nil)
	}
	item.Animation = animation.Clone()
	return nil
}

// MarkReady attaches a rebuilt proxy and thumbnail and flips the item to
// ready, clearing any subscription key.
func (s *Store) MarkReady(id string, runtime Runtime) error {
	if runtime.Proxy == nil {
		return services.Wrap(services.ErrValidation, "timeline-store", "mark ready", "proxy missing", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "timeline-store", "mark ready", fmt.Sprintf("item %s", id), nil)
	}
	item.Status = ItemStatusReady
	item.Runtime.Proxy = runtime.Proxy
	item.Runtime.ThumbnailPath = runtime.ThumbnailPath
	item.Runtime.SubscriptionKey = ""
	return nil
}

// MarkError degrades the item, leaving any proxy teardown to the caller.
func (s *Store) MarkError(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "timeline-store", "mark error", fmt.Sprintf("item %s", id), nil)
	}
	item.Status = ItemStatusError
	item.Runtime.Proxy = nil
	item.Runtime.SubscriptionKey = ""
	s.logger.Warn("timeline item degraded to error",
		logging.String(logging.FieldTimelineItemID, id),
		logging.String(logging.FieldMediaItemID, item.MediaItemID),
		logging.String(logging.FieldEventType, "timeline_item_error"),
	)
	return nil
}

// SetSubscriptionKey records the live sync registration for a loading item.
// An item that already left loading had its registration torn down, so the
// key is dropped rather than stamped on a completed item.
func (s *Store) SetSubscriptionKey(id, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "timeline-store", "set subscription", fmt.Sprintf("item %s", id), nil)
	}
	if item.Status != ItemStatusLoading {
		return nil
	}
	item.Runtime.SubscriptionKey = key
	return nil
}

// AdjustItemDuration resizes the on-timeline range once the real media
// duration is known, keeping the start anchored.
func (s *Store) AdjustItemDuration(id string, durationFrames int64) error {
	if durationFrames <= 0 {
		return services.Wrap(services.ErrValidation, "timeline-store", "adjust duration", "duration must be positive", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "timeline-store", "adjust duration", fmt.Sprintf("item %s", id), nil)
	}
	item.Range.TimelineEnd = item.Range.TimelineStart + durationFrames
	item.Range.ClipStart = 0
	item.Range.ClipEnd = durationFrames
	if item.Runtime.Proxy != nil {
		item.Runtime.Proxy.Range = proxyRange(item.Range)
	}
	return nil
}

func proxyRange(r TimeRange) render.FrameRange {
	return render.FrameRange{ClipStart: r.ClipStart, ClipEnd: r.ClipEnd}
}

func checkStatusInvariant(item *Item) error {
	switch item.Status {
	case ItemStatusReady:
		if item.Runtime.Proxy == nil {
			return services.Wrap(services.ErrValidation, "timeline-store", "status invariant",
				fmt.Sprintf("ready item %s has no proxy", item.ID), nil)
		}
	case ItemStatusLoading:
		if item.Runtime.Proxy != nil {
			return services.Wrap(services.ErrValidation, "timeline-store", "status invariant",
				fmt.Sprintf("loading item %s already has a proxy", item.ID), nil)
		}
	}
	return nil
}
