// Package mediasync bridges asynchronous media readiness to pending
// commands. A registration ties {command, media item, optional timeline
// item} to a live library subscription under a freshly generated key; the
// registry guarantees every unsubscribe runs exactly once, cleanup per
// command is idempotent, and a timeline item never carries two live
// subscriptions.
package mediasync
