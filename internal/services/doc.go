// Package services defines shared utilities consumed by the acquisition
// runner, the command layer, and the sync manager.
//
// Key responsibilities:
//   - Context helpers that stamp media item IDs, command IDs, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     consistently (retryable vs terminal, command precondition vs decode).
//
// Use these helpers when wiring new edit logic so operational behaviour
// (error handling, observability, retries) stays uniform across the core.
package services
