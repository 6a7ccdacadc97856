// Package source models where a media item's raw bytes come from: a locally
// selected file or a remote URL. Each data source owns an acquisition status
// that only moves forward (pending → acquiring → acquired | error |
// cancelled | missing) and returns to pending only through an explicit retry.
package source
