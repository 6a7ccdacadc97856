package media

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"cutline/internal/logging"
	"cutline/internal/services"
	"cutline/internal/source"
)

// ObserverFunc receives a snapshot of an item after each status change.
type ObserverFunc func(item *Item)

// Library is the registry of media items. It is constructor-injected, not a
// module-level singleton, so tests can run independent instances.
type Library struct {
	logger *slog.Logger

	mu        sync.Mutex
	items     map[string]*libraryEntry
	removed   map[string]struct{}
	nextToken int64
}

type libraryEntry struct {
	item *Item
	// notifyMu serializes status transitions and their observer delivery so
	// a single item's observers never see transitions out of order.
	notifyMu  sync.Mutex
	observers map[int64]ObserverFunc
}

// NewLibrary constructs an empty library.
func NewLibrary(logger *slog.Logger) *Library {
	return &Library{
		logger:  logging.NewComponentLogger(logger, "media-library"),
		items:   make(map[string]*libraryEntry),
		removed: make(map[string]struct{}),
	}
}

// Add registers a new item. The library takes ownership of the item; callers
// keep only its ID.
func (l *Library) Add(item *Item) error {
	if item == nil || item.ID == "" {
		return services.Wrap(services.ErrValidation, "media-library", "add", "item missing id", nil)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.items[item.ID]; exists {
		return services.Wrap(services.ErrValidation, "media-library", "add", fmt.Sprintf("duplicate item %s", item.ID), nil)
	}
	l.items[item.ID] = &libraryEntry{
		item:      item,
		observers: make(map[int64]ObserverFunc),
	}
	delete(l.removed, item.ID)
	return nil
}

// Get returns a deep copy of the item, or nil when unknown. Copies keep
// external code from mutating registry state outside the action methods.
func (l *Library) Get(id string) *Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.items[id]
	if !ok {
		return nil
	}
	return entry.item.Clone()
}

// Items returns copies of all items ordered by creation time.
func (l *Library) Items() []*Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Item, 0, len(l.items))
	for _, entry := range l.items {
		out = append(out, entry.item.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Remove deletes an item, releasing its decoded objects. Observers are
// dropped without firing; watchers tied to commands are cleaned up by the
// sync manager, not here.
func (l *Library) Remove(id string) {
	l.mu.Lock()
	entry, ok := l.items[id]
	if ok {
		delete(l.items, id)
		l.removed[id] = struct{}{}
	}
	l.mu.Unlock()
	if !ok {
		return
	}
	if entry.item.Decoded != nil && entry.item.Decoded.Clip != nil {
		entry.item.Decoded.Clip.Release()
	}
	l.logger.Debug("media item removed", logging.String(logging.FieldMediaItemID, id))
}

// Subscribe registers an observer for one item's status changes and returns
// an unsubscribe closure. Unsubscribing twice is a no-op.
func (l *Library) Subscribe(id string, fn ObserverFunc) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.items[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "media-library", "subscribe", fmt.Sprintf("media item %s", id), nil)
	}
	l.nextToken++
	token := l.nextToken
	entry.observers[token] = fn

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if current, ok := l.items[id]; ok {
				delete(current.observers, token)
			}
		})
	}
	return unsubscribe, nil
}

// Transition applies a plain status change after checking the table.
func (l *Library) Transition(id string, target Status) error {
	return l.transition(id, target, nil)
}

// SetReady populates duration and decoded objects, then transitions to
// ready. The invariant ready ⇒ duration>0 ∧ decoded≠nil is checked before
// the transition is applied.
func (l *Library) SetReady(id string, meta Metadata, decoded *DecodedObjects) error {
	if decoded == nil || decoded.Clip == nil {
		return services.Wrap(services.ErrValidation, "media-library", "set ready", "decoded objects missing", nil)
	}
	if meta.DurationFrames <= 0 {
		return services.Wrap(services.ErrValidation, "media-library", "set ready", "duration not set", nil)
	}
	return l.transition(id, StatusReady, func(item *Item) {
		item.Type = meta.Type
		item.DurationFrames = meta.DurationFrames
		item.Decoded = decoded
	})
}

// Fail moves an item to error with a user-visible message on its source.
func (l *Library) Fail(id, message string) error {
	return l.transition(id, StatusError, func(item *Item) {
		item.Source.ErrorMessage = message
		if item.Source.Status != source.StatusAcquired && source.CanTransition(item.Source.Status, source.StatusError) {
			item.Source.Status = source.StatusError
		}
	})
}

// MarkMissing flags an item whose local resource is absent on reload.
func (l *Library) MarkMissing(id string) error {
	return l.transition(id, StatusMissing, func(item *Item) {
		if source.CanTransition(item.Source.Status, source.StatusMissing) {
			item.Source.Status = source.StatusMissing
		}
	})
}

// Retry resets a failed, cancelled, or missing item (and its source) back to
// pending so the acquisition runner can pick it up again.
func (l *Library) Retry(id string) error {
	return l.transition(id, StatusPending, func(item *Item) {
		item.Source.ResetForRetry()
		item.DurationFrames = 0
		if item.Decoded != nil && item.Decoded.Clip != nil {
			item.Decoded.Clip.Release()
		}
		item.Decoded = nil
	})
}

// UpdateSource mutates source fields (progress, resolved URL, file path)
// without a readiness transition and without notifying status observers.
func (l *Library) UpdateSource(id string, mutate func(*source.Data)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.items[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "media-library", "update source", fmt.Sprintf("media item %s", id), nil)
	}
	mutate(entry.item.Source)
	return nil
}

// transition is the single gate for readiness changes: legality check,
// optional mutation, ordered observer delivery.
func (l *Library) transition(id string, target Status, mutate func(*Item)) error {
	l.mu.Lock()
	entry, ok := l.items[id]
	l.mu.Unlock()
	if !ok {
		return services.Wrap(services.ErrNotFound, "media-library", "transition", fmt.Sprintf("media item %s", id), nil)
	}

	entry.notifyMu.Lock()
	defer entry.notifyMu.Unlock()

	l.mu.Lock()
	if _, stillThere := l.items[id]; !stillThere {
		// Removed while waiting on the notify lock.
		l.mu.Unlock()
		return services.Wrap(services.ErrNotFound, "media-library", "transition", fmt.Sprintf("media item %s", id), nil)
	}
	from := entry.item.Status
	if !CanTransition(from, target) {
		l.mu.Unlock()
		l.logger.Error("illegal media status transition rejected",
			logging.String(logging.FieldMediaItemID, id),
			logging.String("from", string(from)),
			logging.String("to", string(target)),
			logging.String(logging.FieldEventType, "media_transition_rejected"),
		)
		return services.Wrap(services.ErrValidation, "media-library", "transition",
			fmt.Sprintf("illegal transition %s -> %s", from, target), nil)
	}
	if mutate != nil {
		mutate(entry.item)
	}
	if target == StatusReady && (entry.item.DurationFrames <= 0 || entry.item.Decoded == nil) {
		// Invariant check: the caller populates these before the transition.
		l.mu.Unlock()
		return services.Wrap(services.ErrValidation, "media-library", "transition",
			"ready requires duration and decoded objects", nil)
	}
	entry.item.Status = target
	snapshot := entry.item.Clone()
	observers := make([]ObserverFunc, 0, len(entry.observers))
	tokens := make([]int64, 0, len(entry.observers))
	for token := range entry.observers {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	for _, token := range tokens {
		observers = append(observers, entry.observers[token])
	}
	l.mu.Unlock()

	l.logger.Debug("media status changed",
		logging.String(logging.FieldMediaItemID, id),
		logging.String("from", string(from)),
		logging.String(logging.FieldStatus, string(target)),
	)

	for _, fn := range observers {
		fn(snapshot.Clone())
	}
	return nil
}
