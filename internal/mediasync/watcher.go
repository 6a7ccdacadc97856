package mediasync

import (
	"fmt"
	"sync"

	"cutline/internal/logging"
	"cutline/internal/media"
)

// Reaction completes a command's deferred work once its media item reaches a
// terminal readiness state. It runs at most once per watch. A non-nil error
// (or a panic) degrades the dependent timeline item via the fail callback,
// and the subscription is torn down either way.
type Reaction struct {
	// OnReady fires when the media item transitions to ready.
	OnReady func(item *media.Item) error
	// OnFailed fires when the media item reaches error, cancelled, or
	// missing, and also when OnReady itself fails.
	OnFailed func(item *media.Item, cause error)
}

// WatchCommandMedia installs a readiness watcher for a pending command. The
// watcher observes every status change of the media item, reacts on the
// first terminal one, and removes its own registration. If the item is
// already in a terminal state when the watch is installed, the reaction runs
// immediately; the registration still passes through the registry so
// cleanup paths stay uniform.
func (m *Manager) WatchCommandMedia(library *media.Library, commandID, mediaItemID, timelineItemID, description string, reaction Reaction) (string, error) {
	// fireMu guards both flags: the acquisition goroutine can deliver a
	// terminal transition before RegisterCommandMediaSync has assigned the
	// key, in which case the registration is removed after registering
	// instead of from inside fire.
	var (
		fireMu sync.Mutex
		fired  bool
		key    string
	)

	fire := func(item *media.Item) {
		fireMu.Lock()
		if fired {
			fireMu.Unlock()
			return
		}
		fired = true
		firedKey := key
		fireMu.Unlock()

		if firedKey != "" {
			defer m.Remove(firedKey)
		}

		switch {
		case item.Status == media.StatusReady:
			err := runReady(reaction, item)
			if err == nil {
				return
			}
			m.logger.Error("readiness reaction failed",
				logging.String(logging.FieldCommandID, commandID),
				logging.String(logging.FieldMediaItemID, mediaItemID),
				logging.String(logging.FieldTimelineItemID, timelineItemID),
				logging.Error(err),
				logging.String(logging.FieldEventType, "sync_reaction_failed"),
			)
			if reaction.OnFailed != nil {
				reaction.OnFailed(item, err)
			}
		case item.Status.IsTerminalFailure():
			if reaction.OnFailed != nil {
				reaction.OnFailed(item, fmt.Errorf("media item %s reached %s", item.ID, item.Status))
			}
		}
	}

	unsubscribe, err := library.Subscribe(mediaItemID, func(item *media.Item) {
		if item.Status == media.StatusReady || item.Status.IsTerminalFailure() {
			fire(item)
		}
	})
	if err != nil {
		return "", err
	}

	registered := m.RegisterCommandMediaSync(commandID, mediaItemID, unsubscribe, timelineItemID, description)

	fireMu.Lock()
	key = registered
	alreadyFired := fired
	fireMu.Unlock()
	if alreadyFired {
		// The reaction ran before the registration existed and could not
		// remove it; tear it down now.
		m.Remove(registered)
		return registered, nil
	}

	// The item may have reached a terminal state between the caller's
	// readiness check and the subscription above; catch up explicitly.
	if current := library.Get(mediaItemID); current != nil &&
		(current.Status == media.StatusReady || current.Status.IsTerminalFailure()) {
		fire(current)
	}
	return registered, nil
}

// runReady isolates reaction panics so a failed reaction cannot leak the
// subscription.
func runReady(reaction Reaction, item *media.Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("readiness reaction panicked: %v", r)
		}
	}()
	if reaction.OnReady == nil {
		return nil
	}
	return reaction.OnReady(item)
}
