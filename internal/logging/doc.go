// Package logging wires log/slog for the editing core.
//
// It provides a console handler for interactive use, a JSON handler for
// machine consumption, attribute helpers, and the standardized field keys
// used across packages so media items, timeline items, and commands can be
// correlated in log output.
package logging
