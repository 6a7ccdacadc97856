package command

import (
	"fmt"

	"cutline/internal/logging"
	"cutline/internal/media"
	"cutline/internal/mediasync"
	"cutline/internal/render"
	"cutline/internal/services"
	"cutline/internal/timeline"
)

// attach places a snapshot on the timeline and either completes it
// synchronously (media ready) or defers completion to a sync watcher. On any
// partial failure the placement is rolled back so the store never holds a
// ready item without a proxy or an orphaned loading item.
func attach(deps Deps, commandID, description string, snap Snapshot) error {
	mediaItem := deps.Library.Get(snap.MediaItemID)
	if mediaItem == nil {
		return services.Wrap(services.ErrNotFound, "command", "attach",
			fmt.Sprintf("media item %s no longer exists", snap.MediaItemID), nil)
	}
	if mediaItem.Status.IsTerminalFailure() {
		return services.Wrap(services.ErrPrecondition, "command", "attach",
			fmt.Sprintf("media item %s is %s", snap.MediaItemID, mediaItem.Status), nil)
	}

	item := snap.materialize()
	if err := deps.Timeline.AddItem(item); err != nil {
		return err
	}

	if mediaItem.Status == media.StatusReady {
		if err := completeItem(deps, item.ID, mediaItem, snap.Provisional); err != nil {
			detachItem(deps, item.ID)
			return err
		}
		return nil
	}

	key, err := deps.Sync.WatchCommandMedia(deps.Library, commandID, snap.MediaItemID, item.ID, description, mediasync.Reaction{
		OnReady: func(ready *media.Item) error {
			return completeItem(deps, item.ID, ready, snap.Provisional)
		},
		OnFailed: func(failed *media.Item, cause error) {
			deps.Logger.Warn("deferred placement failed",
				logging.String(logging.FieldTimelineItemID, item.ID),
				logging.String(logging.FieldMediaItemID, snap.MediaItemID),
				logging.Error(cause),
			)
			if err := deps.Timeline.MarkError(item.ID); err != nil {
				deps.Logger.Debug("degrade skipped", logging.Error(err))
			}
		},
	})
	if err != nil {
		detachItem(deps, item.ID)
		return err
	}
	if err := deps.Timeline.SetSubscriptionKey(item.ID, key); err != nil {
		// Item vanished between add and subscribe registration.
		deps.Sync.Remove(key)
		return err
	}
	return nil
}

// completeItem rebuilds the runtime state of a placement from ready media:
// render proxy, thumbnail, and, for a provisional range only, the real
// duration. A snapshotted trim (resize, split) must survive every rebuild,
// and AdjustItemDuration resets the clip window, so it never runs for
// non-provisional ranges. Runs both on the synchronous path and inside the
// watcher, so it re-fetches the item instead of trusting a captured pointer.
func completeItem(deps Deps, timelineItemID string, mediaItem *media.Item, provisional bool) error {
	current := deps.Timeline.GetItem(timelineItemID)
	if current == nil {
		// Removed while the media was still loading; nothing to finish.
		return nil
	}
	if provisional && mediaItem.DurationFrames > 0 && current.Range.Duration() != mediaItem.DurationFrames {
		if err := deps.Timeline.AdjustItemDuration(timelineItemID, mediaItem.DurationFrames); err != nil {
			return err
		}
		current = deps.Timeline.GetItem(timelineItemID)
		if current == nil {
			return nil
		}
	}

	proxy, err := render.NewProxy(mediaItem, timelineItemID, render.FrameRange{
		ClipStart: current.Range.ClipStart,
		ClipEnd:   current.Range.ClipEnd,
	})
	if err != nil {
		return err
	}
	if !deps.Engine.AddRenderObject(proxy) {
		proxy.Release()
		return services.Wrap(services.ErrPrecondition, "command", "complete",
			fmt.Sprintf("render engine rejected proxy for item %s", timelineItemID), nil)
	}

	thumbnail := ""
	if deps.ThumbnailDir != "" {
		thumbnail, err = render.DeriveThumbnail(deps.ThumbnailDir, mediaItem, timelineItemID)
		if err != nil {
			deps.Logger.Warn("thumbnail derivation failed",
				logging.String(logging.FieldTimelineItemID, timelineItemID),
				logging.Error(err),
			)
			thumbnail = ""
		}
	}

	if err := deps.Timeline.MarkReady(timelineItemID, timeline.Runtime{Proxy: proxy, ThumbnailPath: thumbnail}); err != nil {
		deps.Engine.RemoveRenderObject(proxy)
		proxy.Release()
		return err
	}
	return nil
}

// detachItem removes one placement and everything hanging off it: its live
// subscription, the render proxy, and the store entry. Safe to call whether
// or not readiness ever arrived.
func detachItem(deps Deps, timelineItemID string) {
	if current := deps.Timeline.GetItem(timelineItemID); current != nil && current.Runtime.SubscriptionKey != "" {
		deps.Sync.Remove(current.Runtime.SubscriptionKey)
	}
	removed := deps.Timeline.RemoveItem(timelineItemID)
	if removed == nil {
		return
	}
	if proxy := removed.Runtime.Proxy; proxy != nil {
		if !deps.Engine.RemoveRenderObject(proxy) {
			deps.Logger.Warn("render engine did not release proxy",
				logging.String(logging.FieldTimelineItemID, timelineItemID),
			)
		}
		proxy.Release()
	}
}
