package mediasync

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"cutline/internal/logging"
)

// Registration is one tracked subscription.
type Registration struct {
	Key            string
	CommandID      string
	MediaItemID    string
	TimelineItemID string
	Description    string

	unsubscribe func()
}

// Manager is the sync registry. It is constructor-injected so tests can run
// independent instances.
type Manager struct {
	logger *slog.Logger

	mu             sync.Mutex
	byKey          map[string]*Registration
	byCommand      map[string]map[string]struct{}
	byTimelineItem map[string]string
}

// NewManager constructs an empty registry.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger:         logging.NewComponentLogger(logger, "media-sync"),
		byKey:          make(map[string]*Registration),
		byCommand:      make(map[string]map[string]struct{}),
		byTimelineItem: make(map[string]string),
	}
}

// RegisterCommandMediaSync stores a registration under a freshly generated
// key. The key is never derived from commandID+mediaItemID alone: a command
// can be executed, undone, and redone, and each cycle is a distinct
// subscription lifetime. When timelineItemID is set and already has a live
// registration, the older one is torn down first so at most one
// subscription per timeline item stays active.
func (m *Manager) RegisterCommandMediaSync(commandID, mediaItemID string, unsubscribe func(), timelineItemID, description string) string {
	reg := &Registration{
		Key:            uuid.NewString(),
		CommandID:      commandID,
		MediaItemID:    mediaItemID,
		TimelineItemID: timelineItemID,
		Description:    description,
		unsubscribe:    unsubscribe,
	}

	var displaced *Registration
	m.mu.Lock()
	if timelineItemID != "" {
		if oldKey, ok := m.byTimelineItem[timelineItemID]; ok {
			displaced = m.detachLocked(oldKey)
		}
	}
	m.byKey[reg.Key] = reg
	keys, ok := m.byCommand[commandID]
	if !ok {
		keys = make(map[string]struct{})
		m.byCommand[commandID] = keys
	}
	keys[reg.Key] = struct{}{}
	if timelineItemID != "" {
		m.byTimelineItem[timelineItemID] = reg.Key
	}
	m.mu.Unlock()

	if displaced != nil {
		m.runUnsubscribe(displaced)
		m.logger.Debug("displaced earlier subscription for timeline item",
			logging.String(logging.FieldTimelineItemID, timelineItemID),
			logging.String("displaced_key", displaced.Key),
		)
	}

	m.logger.Debug("sync registration added",
		logging.String("key", reg.Key),
		logging.String(logging.FieldCommandID, commandID),
		logging.String(logging.FieldMediaItemID, mediaItemID),
	)
	return reg.Key
}

// CleanupCommandMediaSync unsubscribes and removes every registration
// belonging to the command. Safe to call when nothing is registered, and
// safe to call repeatedly.
func (m *Manager) CleanupCommandMediaSync(commandID string) {
	m.mu.Lock()
	keys := m.byCommand[commandID]
	removed := make([]*Registration, 0, len(keys))
	for key := range keys {
		if reg := m.detachLocked(key); reg != nil {
			removed = append(removed, reg)
		}
	}
	delete(m.byCommand, commandID)
	m.mu.Unlock()

	for _, reg := range removed {
		m.runUnsubscribe(reg)
	}
	if len(removed) > 0 {
		m.logger.Debug("sync registrations cleaned up",
			logging.String(logging.FieldCommandID, commandID),
			logging.Int("count", len(removed)),
		)
	}
}

// Remove tears down a single registration by key, typically from a watcher
// unsubscribing itself after a terminal status. Unknown keys are a no-op.
func (m *Manager) Remove(key string) {
	m.mu.Lock()
	reg := m.detachLocked(key)
	m.mu.Unlock()
	if reg != nil {
		m.runUnsubscribe(reg)
	}
}

// RegistrationsFor returns copies of a command's live registrations.
func (m *Manager) RegistrationsFor(commandID string) []Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Registration, 0, len(m.byCommand[commandID]))
	for key := range m.byCommand[commandID] {
		if reg, ok := m.byKey[key]; ok {
			cp := *reg
			cp.unsubscribe = nil
			out = append(out, cp)
		}
	}
	return out
}

// Count returns the number of live registrations.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey)
}

// HasTimelineItem reports whether the timeline item has a live registration.
func (m *Manager) HasTimelineItem(timelineItemID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byTimelineItem[timelineItemID]
	return ok
}

// detachLocked removes a registration from every index and returns it. The
// caller invokes unsubscribe after releasing the lock; because detachment
// happens exactly once under the lock, each unsubscribe runs exactly once.
func (m *Manager) detachLocked(key string) *Registration {
	reg, ok := m.byKey[key]
	if !ok {
		return nil
	}
	delete(m.byKey, key)
	if keys, ok := m.byCommand[reg.CommandID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.byCommand, reg.CommandID)
		}
	}
	if reg.TimelineItemID != "" && m.byTimelineItem[reg.TimelineItemID] == key {
		delete(m.byTimelineItem, reg.TimelineItemID)
	}
	return reg
}

func (m *Manager) runUnsubscribe(reg *Registration) {
	if reg == nil || reg.unsubscribe == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("unsubscribe panicked",
				logging.String("key", reg.Key),
				logging.String(logging.FieldCommandID, reg.CommandID),
				logging.Error(fmt.Errorf("%v", r)),
			)
		}
	}()
	reg.unsubscribe()
}
