// Package acquire drives data sources from pending to acquired.
//
// One runner exists per source kind. Each runner owns a concurrency cap
// (remote transfers are capped low to avoid network congestion, local
// validation runs wider), a retry loop with exponential backoff for
// transient failures, a per-attempt timeout, and a ring buffer of
// processing times for statistics. Successful acquisition feeds straight
// into the decode step, so a submitted media item ends in ready, error, or
// cancelled.
package acquire
