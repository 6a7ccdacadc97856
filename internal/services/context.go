package services

import "context"

type contextKey string

const (
	mediaItemIDKey contextKey = "media_item_id"
	commandIDKey   contextKey = "command_id"
	requestIDKey   contextKey = "request_id"
)

// WithMediaItemID annotates context with the media item identifier.
func WithMediaItemID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, mediaItemIDKey, id)
}

// MediaItemIDFromContext extracts the media item identifier if present.
func MediaItemIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(mediaItemIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCommandID annotates context with the executing command identifier.
func WithCommandID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, commandIDKey, id)
}

// CommandIDFromContext extracts the command identifier if present.
func CommandIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(commandIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
