// Package timeline owns placements of media items on tracks.
//
// A timeline item references a media item by ID (never by pointer), carries
// a frame-unit time range, a type-specific config, optional keyframe
// animation, and its own loading/ready/error status. Runtime state (render
// proxy, thumbnail, sync subscription key) is rebuilt from the media item
// and never persisted. The Store is the single mutation point so the
// status invariants hold: ready requires an attached proxy, loading forbids
// one.
package timeline
