package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	sessionIDKey contextKey = "session_id"
)

// WithUserID adds a chat user ID to the context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// WithSessionID adds a review session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// GetUserID returns the user ID from the context.
func GetUserID(ctx context.Context) (userID int64, ok bool) {
	userID, ok = ctx.Value(userIDKey).(int64)
	return userID, ok
}

// GetSessionID returns the session ID from the context, or "".
func GetSessionID(ctx context.Context) (sessionID string) {
	sessionID, _ = ctx.Value(sessionIDKey).(string)
	return sessionID
}

// ContextHook copies user and session IDs from an event's context onto the event.
type ContextHook struct{}

// Run implements zerolog.Hook.
func (h ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}

	if userID, ok := GetUserID(ctx); ok {
		e.Int64("user_id", userID)
	}

	if sessionID := GetSessionID(ctx); sessionID != "" {
		e.Str("session_id", sessionID)
	}
}
