// Package config loads, validates, and normalizes cutline configuration.
//
// Configuration is TOML with sane defaults: a missing file yields a fully
// usable default config. Paths are tilde-expanded and required directories
// are created on demand. Sections:
//   - Paths: project, log, media cache, and thumbnail directories
//   - Acquisition: concurrency caps, retry budget/backoff, attempt timeouts,
//     and local-file validation limits
//   - Project: frame rate and default placement durations
//   - Logging: log format and level
package config
