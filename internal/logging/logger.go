// Package logging holds the structured logger used by every client
// component. slog serves the text and json formats, zerolog the console
// format. Both backends scrub credential values.
package logging

import "context"

// Logger is a context-aware, structured logger. Args are key/value pairs:
//
//	log.Info(ctx, "check-in submitted", "trakt_id", id, "retried", false)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn is used for recoverable conditions such as a conflicting check-in.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always carries the given pairs.
	With(args ...any) Logger
}
