package logging

import (
	"context"
	"log/slog"

	"cutline/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldMediaItemID is the standardized structured logging key for media item identifiers.
	FieldMediaItemID = "media_item_id"
	// FieldTimelineItemID is the standardized structured logging key for timeline item identifiers.
	FieldTimelineItemID = "timeline_item_id"
	// FieldTrackID is the standardized structured logging key for track identifiers.
	FieldTrackID = "track_id"
	// FieldCommandID is the standardized structured logging key for command identifiers.
	FieldCommandID = "command_id"
	// FieldStatus is the standardized structured logging key for lifecycle statuses.
	FieldStatus = "status"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.MediaItemIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMediaItemID, id))
	}
	if id, ok := services.CommandIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCommandID, id))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger pre-populated with the context's standard fields.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return logger.With(args...)
}
